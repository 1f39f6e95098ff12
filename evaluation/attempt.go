// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package evaluation

import (
	"fmt"
	"time"
)

// AttemptStatus is the lifecycle state of a RunAttempt.
type AttemptStatus string

const (
	StatusPending    AttemptStatus = "pending"
	StatusInProgress AttemptStatus = "in_progress"
	StatusSucceeded  AttemptStatus = "succeeded"
	StatusFailed     AttemptStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s AttemptStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// MalformedFailureThreshold is the number of consecutive malformed_output
// errors after which an attempt is failed regardless of the remaining retry
// budget: a model that repeatedly cannot produce the answer format will not
// be fixed by retrying.
const MalformedFailureThreshold = 2

// AttemptKey uniquely identifies a run attempt.
type AttemptKey struct {
	ModelID    string
	TestCaseID string
	RunNumber  int
}

func (k AttemptKey) String() string {
	return fmt.Sprintf("%s/%s#%d", k.ModelID, k.TestCaseID, k.RunNumber)
}

// RunAttempt is the mutable retry bookkeeping for one (model, test case,
// run number) execution. It is owned exclusively by the orchestrator for
// the duration of the attempt's lifecycle.
type RunAttempt struct {
	Key            AttemptKey
	Status         AttemptStatus
	RetryCount     int
	MalformedCount int
	LastError      string
	LastAttemptAt  time.Time
}

// Decision is the outcome of the retry policy for a failed invocation.
type Decision int

const (
	// DecisionRetry schedules the attempt for another try.
	DecisionRetry Decision = iota
	// DecisionFail marks the attempt terminally failed.
	DecisionFail
)

// Decide is the retry policy: a pure function of the attempt state, the
// error classification, and the retry budget. It performs no I/O and does
// not mutate the attempt.
func Decide(a *RunAttempt, kind AgentErrorKind, maxRetries int) Decision {
	if !kind.Retryable() {
		return DecisionFail
	}
	if kind == AgentErrMalformedOutput && a.MalformedCount+1 >= MalformedFailureThreshold {
		return DecisionFail
	}
	if a.RetryCount >= maxRetries {
		return DecisionFail
	}
	return DecisionRetry
}

// Tracker records attempt history per key and enforces the state machine.
// It is not safe for concurrent use; the orchestrator's sequential loop is
// the only writer.
type Tracker struct {
	attempts map[AttemptKey]*RunAttempt
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{attempts: make(map[AttemptKey]*RunAttempt)}
}

// Begin dequeues the attempt for execution: it creates a pending record on
// first use and transitions pending to in_progress. Beginning a terminal
// attempt is an error; the caller must key a fresh run number instead of
// mutating history.
func (t *Tracker) Begin(key AttemptKey) (*RunAttempt, error) {
	a, ok := t.attempts[key]
	if !ok {
		a = &RunAttempt{Key: key, Status: StatusPending}
		t.attempts[key] = a
	}
	if a.Status.Terminal() {
		return nil, fmt.Errorf("%w: attempt %s is already %s", ErrAlreadyExists, key, a.Status)
	}
	if a.Status != StatusPending {
		return nil, fmt.Errorf("%w: attempt %s is %s, want %s", ErrInvalidInput, key, a.Status, StatusPending)
	}
	a.Status = StatusInProgress
	a.LastAttemptAt = time.Now().UTC()
	return a, nil
}

// Succeed transitions in_progress to succeeded.
func (t *Tracker) Succeed(key AttemptKey) error {
	return t.finish(key, StatusSucceeded, "")
}

// Fail transitions in_progress to failed, recording the final error.
func (t *Tracker) Fail(key AttemptKey, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return t.finish(key, StatusFailed, msg)
}

// ScheduleRetry transitions in_progress back to pending, increments the
// retry count, and records the error that triggered the retry.
func (t *Tracker) ScheduleRetry(key AttemptKey, kind AgentErrorKind, cause error) error {
	a, ok := t.attempts[key]
	if !ok {
		return fmt.Errorf("%w: attempt %s", ErrNotFound, key)
	}
	if a.Status != StatusInProgress {
		return fmt.Errorf("%w: attempt %s is %s, want %s", ErrInvalidInput, key, a.Status, StatusInProgress)
	}
	a.Status = StatusPending
	a.RetryCount++
	if kind == AgentErrMalformedOutput {
		a.MalformedCount++
	} else {
		a.MalformedCount = 0
	}
	if cause != nil {
		a.LastError = cause.Error()
	}
	return nil
}

// Get returns the attempt record for key.
func (t *Tracker) Get(key AttemptKey) (*RunAttempt, bool) {
	a, ok := t.attempts[key]
	return a, ok
}

func (t *Tracker) finish(key AttemptKey, status AttemptStatus, lastError string) error {
	a, ok := t.attempts[key]
	if !ok {
		return fmt.Errorf("%w: attempt %s", ErrNotFound, key)
	}
	if a.Status != StatusInProgress {
		return fmt.Errorf("%w: attempt %s is %s, want %s", ErrInvalidInput, key, a.Status, StatusInProgress)
	}
	a.Status = status
	if lastError != "" {
		a.LastError = lastError
	}
	return nil
}

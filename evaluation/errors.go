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
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("evaluation: not found")

	// ErrAlreadyExists indicates the resource already exists.
	ErrAlreadyExists = errors.New("evaluation: already exists")

	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.New("evaluation: invalid input")
)

// ScoringError reports that one metric failed to compute. The scorer
// collects these alongside the partial result set; a ScoringError never
// aborts the remaining metrics.
type ScoringError struct {
	Metric MetricKind
	Err    error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring %s: %v", e.Metric, e.Err)
}

func (e *ScoringError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed store write. The orchestrator surfaces
// it in the run summary and continues with the remaining test cases.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

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
	"context"
	"time"
)

// Record is the persisted join of one successful run attempt with the agent
// response and its metric scores. Records are append-only and never updated
// in place; a re-run of the evaluation writes new records under an
// incremented run number.
type Record struct {
	ID         string `json:"id"`
	ModelID    string `json:"model_id"`
	TestCaseID string `json:"test_case_id"`
	RunNumber  int    `json:"run_number"`

	Query             string   `json:"query"`
	GroundTruth       string   `json:"ground_truth"`
	RetrievedContexts []string `json:"retrieved_contexts"`

	DirectAnswer string     `json:"direct_answer"`
	FullResponse string     `json:"full_response"`
	SQLQueries   []string   `json:"sql_queries"`
	TokenUsage   TokenUsage `json:"token_usage"`

	Metrics Metrics `json:"metrics"`

	CreatedAt time.Time `json:"created_at"`
}

// Key returns the idempotence key of the record.
func (r *Record) Key() AttemptKey {
	return AttemptKey{ModelID: r.ModelID, TestCaseID: r.TestCaseID, RunNumber: r.RunNumber}
}

// MetricStats is the aggregate of one metric over the records where it was
// computed. Nil scores are excluded from both the mean and the count.
type MetricStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Count  int     `json:"count"`
}

// ModelStats is the per-model aggregate over all persisted records.
type ModelStats struct {
	ModelID string `json:"model_id"`

	// Records is the total number of persisted records for the model.
	Records int `json:"records"`

	// Metrics holds per-metric aggregates. A metric that was never
	// computed for the model is absent from the map.
	Metrics map[MetricKind]MetricStats `json:"metrics"`
}

// ResultStore persists evaluation records. Append is idempotent by
// (model_id, test_case_id, run_number): writing the same key twice must not
// create two records, so a crash-and-restart of the orchestrator cannot
// duplicate completed work.
type ResultStore interface {
	// Append stores one record. A record whose key is already present is
	// silently ignored.
	Append(ctx context.Context, rec *Record) error

	// Aggregate computes per-model statistics. An empty modelID aggregates
	// all models.
	Aggregate(ctx context.Context, modelID string) ([]ModelStats, error)
}

// AttemptHistoryStore is an optional extension of ResultStore for backends
// that keep the attempt audit trail. The orchestrator writes attempt
// history best-effort: a failure to record history never fails the run.
type AttemptHistoryStore interface {
	RecordAttempt(ctx context.Context, attempt *RunAttempt) error
}

// FailureArtifact captures a terminally failed attempt for later triage.
type FailureArtifact struct {
	Key       AttemptKey `json:"key"`
	Query     string     `json:"query"`
	Error     string     `json:"error"`
	Timestamp time.Time  `json:"timestamp"`
}

// FailureSink is an optional extension for backends that save failure
// artifacts. Writes are best-effort.
type FailureSink interface {
	RecordFailure(ctx context.Context, failure *FailureArtifact) error
}

// RunLog is an optional extension for backends that keep one bookkeeping
// row per orchestrated run with its final counts.
type RunLog interface {
	// BeginRun opens a run row and returns its ID.
	BeginRun(ctx context.Context, modelID string, totalTests int) (string, error)

	// CompleteRun closes the run row with the final counts.
	CompleteRun(ctx context.Context, runID string, succeeded, failed int) error
}

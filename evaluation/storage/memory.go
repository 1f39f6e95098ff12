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

// Package storage provides ResultStore implementations: in-memory for
// tests and development, JSON files for local runs, and a relational store
// in the database subpackage.
package storage

import (
	"context"
	"sync"

	"github.com/tidewater-ai/seabench/evaluation"
)

// MemoryStore keeps evaluation records in memory. Suitable for testing and
// development.
type MemoryStore struct {
	mu sync.RWMutex

	records map[evaluation.AttemptKey]*evaluation.Record
	order   []evaluation.AttemptKey

	attempts []evaluation.RunAttempt
	failures []evaluation.FailureArtifact
}

var (
	_ evaluation.ResultStore         = (*MemoryStore)(nil)
	_ evaluation.AttemptHistoryStore = (*MemoryStore)(nil)
	_ evaluation.FailureSink         = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[evaluation.AttemptKey]*evaluation.Record),
	}
}

// Append stores one record. A record with an already-present key is
// silently ignored, making Append idempotent.
func (m *MemoryStore) Append(ctx context.Context, rec *evaluation.Record) error {
	if rec == nil || rec.ModelID == "" || rec.TestCaseID == "" {
		return evaluation.ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := rec.Key()
	if _, exists := m.records[key]; exists {
		return nil
	}

	// Copy to prevent external modifications.
	copied := *rec
	m.records[key] = &copied
	m.order = append(m.order, key)
	return nil
}

// Aggregate computes per-model statistics over the stored records.
func (m *MemoryStore) Aggregate(ctx context.Context, modelID string) ([]evaluation.ModelStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*evaluation.Record, 0, len(m.order))
	for _, key := range m.order {
		records = append(records, m.records[key])
	}
	return evaluation.AggregateRecords(records, modelID), nil
}

// Records returns the stored records in insertion order.
func (m *MemoryStore) Records() []*evaluation.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*evaluation.Record, 0, len(m.order))
	for _, key := range m.order {
		copied := *m.records[key]
		records = append(records, &copied)
	}
	return records
}

// RecordAttempt appends a snapshot of the attempt to the history.
func (m *MemoryStore) RecordAttempt(ctx context.Context, attempt *evaluation.RunAttempt) error {
	if attempt == nil {
		return evaluation.ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, *attempt)
	return nil
}

// AttemptHistory returns the recorded attempt snapshots.
func (m *MemoryStore) AttemptHistory() []evaluation.RunAttempt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]evaluation.RunAttempt(nil), m.attempts...)
}

// RecordFailure appends a failure artifact.
func (m *MemoryStore) RecordFailure(ctx context.Context, failure *evaluation.FailureArtifact) error {
	if failure == nil {
		return evaluation.ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, *failure)
	return nil
}

// Failures returns the recorded failure artifacts.
func (m *MemoryStore) Failures() []evaluation.FailureArtifact {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]evaluation.FailureArtifact(nil), m.failures...)
}

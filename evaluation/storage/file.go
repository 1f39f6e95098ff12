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

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tidewater-ai/seabench/evaluation"
)

// FileStore persists evaluation records as JSON files:
//
//	<basePath>/
//	  records/
//	    <modelID>/
//	      <testCaseID>_run<NN>.json
//	  failed_tests/
//	    failed_<testCaseID>_<timestamp>.json
//
// The record path doubles as the idempotence key: an existing file is
// never rewritten.
type FileStore struct {
	mu       sync.RWMutex
	basePath string
}

var (
	_ evaluation.ResultStore = (*FileStore)(nil)
	_ evaluation.FailureSink = (*FileStore)(nil)
)

// NewFileStore creates a file-based store rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(basePath, "records"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create records directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(basePath, "failed_tests"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create failed_tests directory: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// Append writes one record file. An existing key is silently ignored.
func (f *FileStore) Append(ctx context.Context, rec *evaluation.Record) error {
	if rec == nil || rec.ModelID == "" || rec.TestCaseID == "" {
		return evaluation.ErrInvalidInput
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Join(f.basePath, "records", sanitize(rec.ModelID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_run%02d.json", sanitize(rec.TestCaseID), rec.RunNumber))
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Aggregate loads every record file and computes per-model statistics.
func (f *FileStore) Aggregate(ctx context.Context, modelID string) ([]evaluation.ModelStats, error) {
	records, err := f.load()
	if err != nil {
		return nil, err
	}
	return evaluation.AggregateRecords(records, modelID), nil
}

// RecordFailure saves a failure artifact for later triage.
func (f *FileStore) RecordFailure(ctx context.Context, failure *evaluation.FailureArtifact) error {
	if failure == nil {
		return evaluation.ErrInvalidInput
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	name := fmt.Sprintf("failed_%s_%s.json",
		sanitize(failure.Key.TestCaseID),
		failure.Timestamp.UTC().Format("20060102_150405"))
	data, err := json.MarshalIndent(failure, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal failure: %w", err)
	}
	path := filepath.Join(f.basePath, "failed_tests", name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write failure: %w", err)
	}
	return nil
}

func (f *FileStore) load() ([]*evaluation.Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var records []*evaluation.Record
	root := filepath.Join(f.basePath, "records")
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read record %s: %w", path, err)
		}
		var rec evaluation.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to parse record %s: %w", path, err)
		}
		records = append(records, &rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// sanitize makes an identifier safe to use as a path component.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

// NewTimestampedFailure builds a failure artifact stamped with now.
func NewTimestampedFailure(key evaluation.AttemptKey, query string, cause error) *evaluation.FailureArtifact {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &evaluation.FailureArtifact{
		Key:       key,
		Query:     query,
		Error:     msg,
		Timestamp: time.Now().UTC(),
	}
}

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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tidewater-ai/seabench/evaluation"
)

func TestFileStoreAppendAndAggregate(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := t.Context()

	store.Append(ctx, record("m", "1", 1, 0.2))
	store.Append(ctx, record("m", "2", 1, 0.8))

	stats, err := store.Aggregate(ctx, "")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(stats) != 1 || stats[0].Records != 2 {
		t.Fatalf("stats = %+v, want one model with 2 records", stats)
	}
	if bleu := stats[0].Metrics[evaluation.MetricBLEU]; bleu.Mean != 0.5 {
		t.Errorf("bleu mean = %v, want 0.5", bleu.Mean)
	}
}

func TestFileStoreAppendIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := t.Context()

	store.Append(ctx, record("m", "1", 1, 0.5))
	store.Append(ctx, record("m", "1", 1, 0.9))

	entries, err := os.ReadDir(filepath.Join(dir, "records", "m"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("record files = %d, want 1", len(entries))
	}

	stats, err := store.Aggregate(ctx, "m")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if bleu := stats[0].Metrics[evaluation.MetricBLEU]; bleu.Mean != 0.5 {
		t.Errorf("bleu mean = %v, want the first write's 0.5", bleu.Mean)
	}
}

func TestFileStoreAppendValidation(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := store.Append(t.Context(), nil); !errors.Is(err, evaluation.ErrInvalidInput) {
		t.Errorf("Append(nil) = %v, want ErrInvalidInput", err)
	}
}

func TestFileStoreSanitizesPathCharacters(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	// Model IDs often contain slashes ("google/gemini-2.0-flash").
	if err := store.Append(t.Context(), record("google/gemini-2.0-flash", "1", 1, 0.5)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	stats, err := store.Aggregate(t.Context(), "google/gemini-2.0-flash")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("stats = %+v, want the slashed model ID to round-trip", stats)
	}
}

func TestFileStoreRecordFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	artifact := NewTimestampedFailure(
		evaluation.AttemptKey{ModelID: "m", TestCaseID: "4", RunNumber: 1},
		"what was the speed?",
		errors.New("timeout after 3 attempts"),
	)
	if err := store.RecordFailure(t.Context(), artifact); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "failed_tests"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("failure artifacts = %d, want 1", len(entries))
	}
}

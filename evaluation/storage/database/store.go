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

// Package database implements the evaluation ResultStore on a relational
// database through GORM, including the attempt audit trail and per-run
// bookkeeping rows.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/tidewater-ai/seabench/evaluation"
)

type recordRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	ModelID    string `gorm:"size:128;uniqueIndex:idx_record_key"`
	TestCaseID string `gorm:"size:128;uniqueIndex:idx_record_key"`
	RunNumber  int    `gorm:"uniqueIndex:idx_record_key"`

	Query             string
	GroundTruth       string
	RetrievedContexts StringSlice

	DirectAnswer     string
	FullResponse     string
	SQLQueries       StringSlice
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int

	FactualCorrectness     *float64
	SemanticSimilarity     *float64
	ContextRecall          *float64
	Faithfulness           *float64
	BLEUScore              *float64
	NonLLMStringSimilarity *float64
	RougeScore             *float64
	StringPresent          *float64

	CreatedAt time.Time
}

func (recordRow) TableName() string { return "evaluation_records" }

type attemptRow struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	ModelID        string `gorm:"size:128;index:idx_attempt_key"`
	TestCaseID     string `gorm:"size:128;index:idx_attempt_key"`
	RunNumber      int    `gorm:"index:idx_attempt_key"`
	Status         string `gorm:"size:16"`
	RetryCount     int
	MalformedCount int
	LastError      string
	AttemptAt      time.Time
}

func (attemptRow) TableName() string { return "run_attempt_history" }

type runRow struct {
	ID              string `gorm:"primaryKey;size:36"`
	ModelID         string `gorm:"size:128;index"`
	TotalTests      int
	Status          string `gorm:"size:16"`
	SuccessfulTests int
	FailedTests     int
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

func (runRow) TableName() string { return "evaluation_runs" }

type failureRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	ModelID    string `gorm:"size:128;index"`
	TestCaseID string `gorm:"size:128"`
	RunNumber  int
	Query      string
	Error      string
	CreatedAt  time.Time
}

func (failureRow) TableName() string { return "failed_tests" }

// Store is the relational ResultStore.
type Store struct {
	db *gorm.DB
}

var (
	_ evaluation.ResultStore         = (*Store)(nil)
	_ evaluation.AttemptHistoryStore = (*Store)(nil)
	_ evaluation.FailureSink         = (*Store)(nil)
	_ evaluation.RunLog              = (*Store)(nil)
)

// Open creates a sqlite-backed store at path, migrating the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return New(db)
}

// New wraps an existing GORM connection, migrating the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&recordRow{}, &attemptRow{}, &runRow{}, &failureRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Append inserts one record. The unique (model_id, test_case_id,
// run_number) index plus ON CONFLICT DO NOTHING makes the write idempotent.
func (s *Store) Append(ctx context.Context, rec *evaluation.Record) error {
	if rec == nil || rec.ModelID == "" || rec.TestCaseID == "" {
		return evaluation.ErrInvalidInput
	}

	row := toRow(rec)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "model_id"}, {Name: "test_case_id"}, {Name: "run_number"},
			},
			DoNothing: true,
		}).
		Create(row).Error
	if err != nil {
		return &evaluation.PersistenceError{Op: "append", Err: err}
	}
	return nil
}

// Aggregate computes per-model statistics over the stored records.
func (s *Store) Aggregate(ctx context.Context, modelID string) ([]evaluation.ModelStats, error) {
	q := s.db.WithContext(ctx).Model(&recordRow{})
	if modelID != "" {
		q = q.Where("model_id = ?", modelID)
	}

	var rows []recordRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, &evaluation.PersistenceError{Op: "aggregate", Err: err}
	}

	records := make([]*evaluation.Record, 0, len(rows))
	for i := range rows {
		records = append(records, fromRow(&rows[i]))
	}
	return evaluation.AggregateRecords(records, ""), nil
}

// RecordAttempt appends one row to the attempt audit trail.
func (s *Store) RecordAttempt(ctx context.Context, attempt *evaluation.RunAttempt) error {
	if attempt == nil {
		return evaluation.ErrInvalidInput
	}
	row := attemptRow{
		ModelID:        attempt.Key.ModelID,
		TestCaseID:     attempt.Key.TestCaseID,
		RunNumber:      attempt.Key.RunNumber,
		Status:         string(attempt.Status),
		RetryCount:     attempt.RetryCount,
		MalformedCount: attempt.MalformedCount,
		LastError:      attempt.LastError,
		AttemptAt:      attempt.LastAttemptAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return &evaluation.PersistenceError{Op: "record attempt", Err: err}
	}
	return nil
}

// RecordFailure saves a failure artifact row.
func (s *Store) RecordFailure(ctx context.Context, failure *evaluation.FailureArtifact) error {
	if failure == nil {
		return evaluation.ErrInvalidInput
	}
	row := failureRow{
		ModelID:    failure.Key.ModelID,
		TestCaseID: failure.Key.TestCaseID,
		RunNumber:  failure.Key.RunNumber,
		Query:      failure.Query,
		Error:      failure.Error,
		CreatedAt:  failure.Timestamp,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return &evaluation.PersistenceError{Op: "record failure", Err: err}
	}
	return nil
}

// BeginRun opens a run bookkeeping row in "running" state.
func (s *Store) BeginRun(ctx context.Context, modelID string, totalTests int) (string, error) {
	row := runRow{
		ID:         uuid.NewString(),
		ModelID:    modelID,
		TotalTests: totalTests,
		Status:     "running",
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", &evaluation.PersistenceError{Op: "begin run", Err: err}
	}
	return row.ID, nil
}

// CompleteRun closes the run row with final counts.
func (s *Store) CompleteRun(ctx context.Context, runID string, succeeded, failed int) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).
		Model(&runRow{}).
		Where("id = ?", runID).
		Updates(map[string]any{
			"status":           "completed",
			"successful_tests": succeeded,
			"failed_tests":     failed,
			"completed_at":     &now,
		}).Error
	if err != nil {
		return &evaluation.PersistenceError{Op: "complete run", Err: err}
	}
	return nil
}

func toRow(rec *evaluation.Record) *recordRow {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &recordRow{
		ID:         id,
		ModelID:    rec.ModelID,
		TestCaseID: rec.TestCaseID,
		RunNumber:  rec.RunNumber,

		Query:             rec.Query,
		GroundTruth:       rec.GroundTruth,
		RetrievedContexts: StringSlice(rec.RetrievedContexts),

		DirectAnswer:     rec.DirectAnswer,
		FullResponse:     rec.FullResponse,
		SQLQueries:       StringSlice(rec.SQLQueries),
		PromptTokens:     rec.TokenUsage.PromptTokens,
		CompletionTokens: rec.TokenUsage.CompletionTokens,
		TotalTokens:      rec.TokenUsage.TotalTokens,

		FactualCorrectness:     rec.Metrics.FactualCorrectness,
		SemanticSimilarity:     rec.Metrics.SemanticSimilarity,
		ContextRecall:          rec.Metrics.ContextRecall,
		Faithfulness:           rec.Metrics.Faithfulness,
		BLEUScore:              rec.Metrics.BLEUScore,
		NonLLMStringSimilarity: rec.Metrics.NonLLMStringSimilarity,
		RougeScore:             rec.Metrics.RougeScore,
		StringPresent:          rec.Metrics.StringPresent,

		CreatedAt: createdAt,
	}
}

func fromRow(row *recordRow) *evaluation.Record {
	return &evaluation.Record{
		ID:         row.ID,
		ModelID:    row.ModelID,
		TestCaseID: row.TestCaseID,
		RunNumber:  row.RunNumber,

		Query:             row.Query,
		GroundTruth:       row.GroundTruth,
		RetrievedContexts: row.RetrievedContexts,

		DirectAnswer: row.DirectAnswer,
		FullResponse: row.FullResponse,
		SQLQueries:   row.SQLQueries,
		TokenUsage: evaluation.TokenUsage{
			PromptTokens:     row.PromptTokens,
			CompletionTokens: row.CompletionTokens,
			TotalTokens:      row.TotalTokens,
		},

		Metrics: evaluation.Metrics{
			FactualCorrectness:     row.FactualCorrectness,
			SemanticSimilarity:     row.SemanticSimilarity,
			ContextRecall:          row.ContextRecall,
			Faithfulness:           row.Faithfulness,
			BLEUScore:              row.BLEUScore,
			NonLLMStringSimilarity: row.NonLLMStringSimilarity,
			RougeScore:             row.RougeScore,
			StringPresent:          row.StringPresent,
		},

		CreatedAt: row.CreatedAt,
	}
}

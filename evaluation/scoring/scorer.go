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

// Package scoring computes the evaluation metric set for one agent answer.
//
// Metrics are computed independently: the deterministic lexical metrics
// never fail, and a failure of one LLM-backed metric (embedding service
// down, grader timeout) degrades that metric to "not computed" without
// blocking the others. Score always returns a best-effort partial result.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tidewater-ai/seabench/evaluation"
	"github.com/tidewater-ai/seabench/evaluation/scoring/judge"
)

// DefaultRelativeTolerance is the numeric tolerance band for factual
// correctness. The band is configurable; ±5% is the default.
const DefaultRelativeTolerance = 0.05

// DefaultLLMTimeout bounds each embedding or grading call.
const DefaultLLMTimeout = 45 * time.Second

// Embedder produces an embedding vector for a text. The model package
// provides a genai-backed implementation with an LRU cache.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Config configures a Scorer. Embedder and Judge are optional: without
// them the corresponding metrics are reported as not computed.
type Config struct {
	Embedder Embedder
	Judge    *judge.Judge

	// RelativeTolerance is the numeric tolerance band for factual
	// correctness. Zero means DefaultRelativeTolerance.
	RelativeTolerance float64

	// LLMTimeout bounds each embedding or grading call, distinct from the
	// caller's overall deadline. Zero means DefaultLLMTimeout.
	LLMTimeout time.Duration
}

// Scorer maps (candidate, reference, retrieved contexts) to a Metrics set.
type Scorer struct {
	embedder  Embedder
	judge     *judge.Judge
	tolerance float64
	timeout   time.Duration
}

// New creates a Scorer.
func New(cfg Config) *Scorer {
	if cfg.RelativeTolerance <= 0 {
		cfg.RelativeTolerance = DefaultRelativeTolerance
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = DefaultLLMTimeout
	}
	return &Scorer{
		embedder:  cfg.Embedder,
		judge:     cfg.Judge,
		tolerance: cfg.RelativeTolerance,
		timeout:   cfg.LLMTimeout,
	}
}

// Input carries everything one scoring pass needs.
type Input struct {
	// Candidate is the agent's extracted answer.
	Candidate string

	// Reference is the ground-truth answer.
	Reference string

	// RetrievedContexts are the agent's executed SQL and reasoning trace,
	// graded for faithfulness.
	RetrievedContexts []string

	// ReferenceContexts are the correct supporting facts, graded for
	// context recall.
	ReferenceContexts []string
}

// Score computes all metrics for one answer. The returned error slice
// holds one *evaluation.ScoringError per metric that could not be
// computed; the Metrics set is always valid and holds whatever was.
func (s *Scorer) Score(ctx context.Context, in Input) (*evaluation.Metrics, []error) {
	m := &evaluation.Metrics{}
	var errs []error

	// Deterministic metrics: total functions, no I/O.
	if fc := factualCorrectness(in.Candidate, in.Reference, s.tolerance); fc != nil {
		m.Set(evaluation.MetricFactualCorrectness, *fc)
	}
	m.Set(evaluation.MetricBLEU, bleuScore(in.Candidate, in.Reference))
	m.Set(evaluation.MetricRouge, rougeL(in.Candidate, in.Reference))
	m.Set(evaluation.MetricStringSimilarity, stringSimilarity(in.Candidate, in.Reference))
	m.Set(evaluation.MetricStringPresent, stringPresent(in.Candidate, in.Reference))

	if s.embedder != nil {
		if sim, err := s.semanticSimilarity(ctx, in.Candidate, in.Reference); err != nil {
			errs = append(errs, &evaluation.ScoringError{Metric: evaluation.MetricSemanticSimilarity, Err: err})
		} else {
			m.Set(evaluation.MetricSemanticSimilarity, sim)
		}
	}

	if s.judge != nil {
		gradeCtx, cancel := context.WithTimeout(ctx, s.timeout)
		score, err := s.judge.GradeFaithfulness(gradeCtx, in.Candidate, in.RetrievedContexts)
		cancel()
		if err != nil {
			errs = append(errs, &evaluation.ScoringError{Metric: evaluation.MetricFaithfulness, Err: err})
		} else {
			m.Set(evaluation.MetricFaithfulness, score)
		}

		gradeCtx, cancel = context.WithTimeout(ctx, s.timeout)
		score, err = s.judge.GradeContextRecall(gradeCtx, in.ReferenceContexts, in.RetrievedContexts)
		cancel()
		if err != nil {
			errs = append(errs, &evaluation.ScoringError{Metric: evaluation.MetricContextRecall, Err: err})
		} else {
			m.Set(evaluation.MetricContextRecall, score)
		}
	}

	return m, errs
}

func (s *Scorer) semanticSimilarity(ctx context.Context, candidate, reference string) (float64, error) {
	embedCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	candVec, err := s.embedder.Embed(embedCtx, candidate)
	if err != nil {
		return 0, fmt.Errorf("embedding candidate: %w", err)
	}
	refVec, err := s.embedder.Embed(embedCtx, reference)
	if err != nil {
		return 0, fmt.Errorf("embedding reference: %w", err)
	}

	cos, err := cosineSimilarity(candVec, refVec)
	if err != nil {
		return 0, err
	}
	// Project [-1,1] into [0,1].
	return (cos + 1) / 2, nil
}

func cosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, fmt.Errorf("embedding dimensions mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("zero-magnitude embedding vector")
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

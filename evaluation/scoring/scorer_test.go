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

package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/tidewater-ai/seabench/evaluation"
	"github.com/tidewater-ai/seabench/evaluation/scoring/judge"
)

// fakeEmbedder maps every distinct text to a fixed vector.
type fakeEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float64{1, 0, 0}, nil
}

// fakeGenerator returns a canned verdict response for every prompt.
type fakeGenerator struct {
	response string
	err      error
}

func (f *fakeGenerator) GenerateText(context.Context, string) (string, error) {
	return f.response, f.err
}

func TestScoreDeterministicOnly(t *testing.T) {
	scorer := New(Config{})
	m, errs := scorer.Score(t.Context(), Input{
		Candidate: "The average speed was 6.17 knots.",
		Reference: "6.17 knots",
	})
	if len(errs) != 0 {
		t.Fatalf("Score returned errors: %v", errs)
	}

	if m.FactualCorrectness == nil || *m.FactualCorrectness != 1 {
		t.Errorf("FactualCorrectness = %v, want 1", m.FactualCorrectness)
	}
	for _, kind := range []evaluation.MetricKind{
		evaluation.MetricBLEU,
		evaluation.MetricRouge,
		evaluation.MetricStringSimilarity,
		evaluation.MetricStringPresent,
	} {
		if m.Get(kind) == nil {
			t.Errorf("metric %s not computed", kind)
		}
	}
	// Without an embedder or a judge the LLM metrics must stay unset.
	for _, kind := range []evaluation.MetricKind{
		evaluation.MetricSemanticSimilarity,
		evaluation.MetricFaithfulness,
		evaluation.MetricContextRecall,
	} {
		if m.Get(kind) != nil {
			t.Errorf("metric %s = %v, want not computed", kind, *m.Get(kind))
		}
	}
}

func TestScoreSemanticSimilarity(t *testing.T) {
	scorer := New(Config{
		Embedder: &fakeEmbedder{vectors: map[string][]float64{
			"a": {1, 0, 0},
			"b": {1, 0, 0},
		}},
	})
	m, errs := scorer.Score(t.Context(), Input{Candidate: "a", Reference: "b"})
	if len(errs) != 0 {
		t.Fatalf("Score returned errors: %v", errs)
	}
	if m.SemanticSimilarity == nil || *m.SemanticSimilarity != 1 {
		t.Errorf("SemanticSimilarity = %v, want 1 for identical vectors", m.SemanticSimilarity)
	}
}

func TestScoreEmbedderFailureIsPartial(t *testing.T) {
	scorer := New(Config{
		Embedder: &fakeEmbedder{err: errors.New("service down")},
	})
	m, errs := scorer.Score(t.Context(), Input{
		Candidate: "6.17 knots",
		Reference: "6.17 knots",
	})

	if len(errs) != 1 {
		t.Fatalf("Score returned %d errors, want 1: %v", len(errs), errs)
	}
	var serr *evaluation.ScoringError
	if !errors.As(errs[0], &serr) {
		t.Fatalf("error %v is not a ScoringError", errs[0])
	}
	if serr.Metric != evaluation.MetricSemanticSimilarity {
		t.Errorf("failed metric = %s, want %s", serr.Metric, evaluation.MetricSemanticSimilarity)
	}
	if m.SemanticSimilarity != nil {
		t.Errorf("SemanticSimilarity = %v, want not computed", *m.SemanticSimilarity)
	}
	// The deterministic metrics still landed.
	if m.Computed() == 0 {
		t.Error("no metrics computed, want the deterministic set")
	}
}

func TestScoreWithJudge(t *testing.T) {
	j := judge.New(&fakeGenerator{response: "the speed was 6.17 knots | yes\nthe route was 272 | no"})
	scorer := New(Config{Judge: j})
	m, errs := scorer.Score(t.Context(), Input{
		Candidate:         "6.17 knots",
		Reference:         "6.17",
		RetrievedContexts: []string{"SQL Query: SELECT avg(speed) FROM trips"},
		ReferenceContexts: []string{"average speed is 6.17 knots"},
	})
	if len(errs) != 0 {
		t.Fatalf("Score returned errors: %v", errs)
	}
	if m.Faithfulness == nil || *m.Faithfulness != 0.5 {
		t.Errorf("Faithfulness = %v, want 0.5", m.Faithfulness)
	}
	if m.ContextRecall == nil || *m.ContextRecall != 0.5 {
		t.Errorf("ContextRecall = %v, want 0.5", m.ContextRecall)
	}
}

func TestScoreJudgeFailureIsPartial(t *testing.T) {
	j := judge.New(&fakeGenerator{err: errors.New("grader down")})
	scorer := New(Config{Judge: j})
	m, errs := scorer.Score(t.Context(), Input{
		Candidate:         "6.17 knots",
		Reference:         "6.17",
		RetrievedContexts: []string{"ctx"},
		ReferenceContexts: []string{"ref ctx"},
	})
	if len(errs) != 2 {
		t.Fatalf("Score returned %d errors, want 2 (faithfulness and context recall): %v", len(errs), errs)
	}
	if m.Faithfulness != nil || m.ContextRecall != nil {
		t.Error("judge metrics set despite grader failure")
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float64
		want    float64
		wantErr bool
	}{
		{name: "identical", a: []float64{1, 2}, b: []float64{1, 2}, want: 1},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "opposite", a: []float64{1, 0}, b: []float64{-1, 0}, want: -1},
		{name: "dimension mismatch", a: []float64{1}, b: []float64{1, 2}, wantErr: true},
		{name: "zero vector", a: []float64{0, 0}, b: []float64{1, 2}, wantErr: true},
		{name: "empty", a: nil, b: nil, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := cosineSimilarity(tc.a, tc.b)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("cosineSimilarity(%v, %v) = %v, want error", tc.a, tc.b, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("cosineSimilarity(%v, %v) failed: %v", tc.a, tc.b, err)
			}
			if !almostEqual(got, tc.want) {
				t.Errorf("cosineSimilarity(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

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

import "math"

// MetricKind identifies a specific evaluation metric.
type MetricKind string

const (
	// MetricFactualCorrectness compares the principal numeric value of the
	// answer against the reference within a relative tolerance band.
	// Score: 1.0 on match, 0.0 otherwise, absent when neither side carries
	// a number and the strings differ.
	MetricFactualCorrectness MetricKind = "factual_correctness"

	// MetricSemanticSimilarity is the cosine similarity of answer and
	// reference embeddings projected into [0,1]. Requires an embedding
	// provider; absent when none is available.
	MetricSemanticSimilarity MetricKind = "semantic_similarity"

	// MetricContextRecall is the LLM-graded fraction of reference context
	// statements attributable to the retrieved contexts.
	MetricContextRecall MetricKind = "context_recall"

	// MetricFaithfulness is the LLM-graded fraction of claims in the answer
	// supported by the retrieved contexts.
	MetricFaithfulness MetricKind = "faithfulness"

	// MetricBLEU is token n-gram precision with brevity penalty.
	// Deterministic, no LLM required.
	MetricBLEU MetricKind = "bleu_score"

	// MetricStringSimilarity is edit-distance-normalized similarity of the
	// two strings. Deterministic.
	MetricStringSimilarity MetricKind = "non_llm_string_similarity"

	// MetricRouge is longest-common-subsequence based recall against the
	// reference. Deterministic.
	MetricRouge MetricKind = "rouge_score"

	// MetricStringPresent is 1.0 when the reference (or its principal
	// numeric token) appears verbatim in the answer. Deterministic.
	MetricStringPresent MetricKind = "string_present"
)

// AllMetrics returns the fixed set of metric kinds in persistence order.
func AllMetrics() []MetricKind {
	return []MetricKind{
		MetricFactualCorrectness,
		MetricSemanticSimilarity,
		MetricContextRecall,
		MetricFaithfulness,
		MetricBLEU,
		MetricStringSimilarity,
		MetricRouge,
		MetricStringPresent,
	}
}

// String returns the string representation of the metric kind.
func (m MetricKind) String() string {
	return string(m)
}

// RequiresLLM returns true if the metric needs a grading model.
func (m MetricKind) RequiresLLM() bool {
	switch m {
	case MetricContextRecall, MetricFaithfulness:
		return true
	default:
		return false
	}
}

// RequiresEmbeddings returns true if the metric needs an embedding provider.
func (m MetricKind) RequiresEmbeddings() bool {
	return m == MetricSemanticSimilarity
}

// Deterministic returns true if the metric is a pure function of its string
// inputs and can never fail.
func (m MetricKind) Deterministic() bool {
	switch m {
	case MetricBLEU, MetricStringSimilarity, MetricRouge, MetricStringPresent:
		return true
	default:
		return false
	}
}

// Metrics is the scored result set for one agent answer. Each field is
// either a finite score in [0,1] or nil for "not computed". NaN and
// infinities are never stored.
type Metrics struct {
	FactualCorrectness     *float64 `json:"factual_correctness,omitempty"`
	SemanticSimilarity     *float64 `json:"semantic_similarity,omitempty"`
	ContextRecall          *float64 `json:"context_recall,omitempty"`
	Faithfulness           *float64 `json:"faithfulness,omitempty"`
	BLEUScore              *float64 `json:"bleu_score,omitempty"`
	NonLLMStringSimilarity *float64 `json:"non_llm_string_similarity,omitempty"`
	RougeScore             *float64 `json:"rouge_score,omitempty"`
	StringPresent          *float64 `json:"string_present,omitempty"`
}

// Get returns the score for kind, or nil when it was not computed.
func (m *Metrics) Get(kind MetricKind) *float64 {
	switch kind {
	case MetricFactualCorrectness:
		return m.FactualCorrectness
	case MetricSemanticSimilarity:
		return m.SemanticSimilarity
	case MetricContextRecall:
		return m.ContextRecall
	case MetricFaithfulness:
		return m.Faithfulness
	case MetricBLEU:
		return m.BLEUScore
	case MetricStringSimilarity:
		return m.NonLLMStringSimilarity
	case MetricRouge:
		return m.RougeScore
	case MetricStringPresent:
		return m.StringPresent
	default:
		return nil
	}
}

// Set records a score for kind, clamping into [0,1]. Non-finite values are
// dropped so the "finite or absent" invariant holds no matter what a scorer
// produced.
func (m *Metrics) Set(kind MetricKind, score float64) {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return
	}
	score = math.Max(0, math.Min(1, score))
	v := &score
	switch kind {
	case MetricFactualCorrectness:
		m.FactualCorrectness = v
	case MetricSemanticSimilarity:
		m.SemanticSimilarity = v
	case MetricContextRecall:
		m.ContextRecall = v
	case MetricFaithfulness:
		m.Faithfulness = v
	case MetricBLEU:
		m.BLEUScore = v
	case MetricStringSimilarity:
		m.NonLLMStringSimilarity = v
	case MetricRouge:
		m.RougeScore = v
	case MetricStringPresent:
		m.StringPresent = v
	}
}

// Computed returns the number of non-nil scores.
func (m *Metrics) Computed() int {
	n := 0
	for _, kind := range AllMetrics() {
		if m.Get(kind) != nil {
			n++
		}
	}
	return n
}

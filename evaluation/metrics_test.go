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
	"math"
	"testing"
)

func TestMetricsSetAndGet(t *testing.T) {
	var m Metrics
	for i, kind := range AllMetrics() {
		score := float64(i) / 10
		m.Set(kind, score)
		got := m.Get(kind)
		if got == nil || *got != score {
			t.Errorf("Get(%s) = %v, want %v", kind, got, score)
		}
	}
	if got, want := m.Computed(), len(AllMetrics()); got != want {
		t.Errorf("Computed() = %d, want %d", got, want)
	}
}

func TestMetricsSetRejectsNonFinite(t *testing.T) {
	var m Metrics
	m.Set(MetricBLEU, math.NaN())
	m.Set(MetricRouge, math.Inf(1))
	if m.Computed() != 0 {
		t.Errorf("Computed() = %d after NaN/Inf sets, want 0", m.Computed())
	}
}

func TestMetricsSetClamps(t *testing.T) {
	var m Metrics
	m.Set(MetricBLEU, 1.5)
	m.Set(MetricRouge, -0.25)
	if got := m.Get(MetricBLEU); got == nil || *got != 1 {
		t.Errorf("Get(bleu) = %v, want clamped to 1", got)
	}
	if got := m.Get(MetricRouge); got == nil || *got != 0 {
		t.Errorf("Get(rouge) = %v, want clamped to 0", got)
	}
}

func TestMetricKindClassification(t *testing.T) {
	// No metric needs both a grading model and embeddings, and deterministic
	// metrics need neither.
	for _, kind := range AllMetrics() {
		if kind.RequiresLLM() && kind.RequiresEmbeddings() {
			t.Errorf("%s requires both an LLM and embeddings", kind)
		}
		if kind.Deterministic() && (kind.RequiresLLM() || kind.RequiresEmbeddings()) {
			t.Errorf("%s is deterministic but requires a provider", kind)
		}
	}
	if !MetricFaithfulness.RequiresLLM() {
		t.Error("faithfulness does not require an LLM")
	}
	if !MetricSemanticSimilarity.RequiresEmbeddings() {
		t.Error("semantic similarity does not require embeddings")
	}
	if !MetricBLEU.Deterministic() {
		t.Error("bleu is not deterministic")
	}
}

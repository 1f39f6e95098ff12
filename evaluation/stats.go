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
	"sort"
)

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStdDev returns the sample standard deviation (n-1 denominator).
// Fewer than two values yield 0.
func SampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// AggregateRecords computes per-model per-metric statistics from a record
// set. Nil metric values are excluded from both the mean and the count; a
// metric with no computed values for a model is omitted from that model's
// stats. Results are sorted by model ID. Stores whose backing format does
// not aggregate natively (memory, file) delegate to this.
func AggregateRecords(records []*Record, modelID string) []ModelStats {
	byModel := make(map[string]map[MetricKind][]float64)
	counts := make(map[string]int)

	for _, rec := range records {
		if modelID != "" && rec.ModelID != modelID {
			continue
		}
		counts[rec.ModelID]++
		values, ok := byModel[rec.ModelID]
		if !ok {
			values = make(map[MetricKind][]float64)
			byModel[rec.ModelID] = values
		}
		for _, kind := range AllMetrics() {
			if score := rec.Metrics.Get(kind); score != nil {
				values[kind] = append(values[kind], *score)
			}
		}
	}

	stats := make([]ModelStats, 0, len(byModel))
	for model, values := range byModel {
		ms := ModelStats{
			ModelID: model,
			Records: counts[model],
			Metrics: make(map[MetricKind]MetricStats),
		}
		for kind, vals := range values {
			ms.Metrics[kind] = MetricStats{
				Mean:   Mean(vals),
				StdDev: SampleStdDev(vals),
				Count:  len(vals),
			}
		}
		stats = append(stats, ms)
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].ModelID < stats[j].ModelID })
	return stats
}

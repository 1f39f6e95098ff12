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
	"math"
	"strings"
)

// bleuMaxOrder is the highest n-gram order used by the BLEU score.
const bleuMaxOrder = 4

// bleuScore computes sentence-level BLEU of candidate against reference:
// the geometric mean of 1..4-gram precisions with a brevity penalty and no
// smoothing, so any empty n-gram overlap yields 0.
func bleuScore(candidate, reference string) float64 {
	candTokens := strings.Fields(candidate)
	refTokens := strings.Fields(reference)
	if len(candTokens) == 0 || len(refTokens) == 0 {
		return 0
	}

	logSum := 0.0
	for n := 1; n <= bleuMaxOrder; n++ {
		precision := ngramPrecision(candTokens, refTokens, n)
		if precision == 0 {
			return 0
		}
		logSum += math.Log(precision)
	}
	geoMean := math.Exp(logSum / bleuMaxOrder)

	brevity := 1.0
	if len(candTokens) < len(refTokens) {
		brevity = math.Exp(1 - float64(len(refTokens))/float64(len(candTokens)))
	}
	return brevity * geoMean
}

func ngramPrecision(candidate, reference []string, n int) float64 {
	candCounts := ngramCounts(candidate, n)
	if len(candCounts) == 0 {
		return 0
	}
	refCounts := ngramCounts(reference, n)

	matched := 0
	total := 0
	for gram, count := range candCounts {
		total += count
		if refCount, ok := refCounts[gram]; ok {
			matched += min(count, refCount)
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}

// rougeL computes the ROUGE-L F-measure: precision and recall of the
// longest common token subsequence between candidate and reference.
func rougeL(candidate, reference string) float64 {
	candTokens := strings.Fields(strings.ToLower(candidate))
	refTokens := strings.Fields(strings.ToLower(reference))
	if len(candTokens) == 0 || len(refTokens) == 0 {
		return 0
	}

	lcs := lcsLength(candTokens, refTokens)
	if lcs == 0 {
		return 0
	}
	precision := float64(lcs) / float64(len(candTokens))
	recall := float64(lcs) / float64(len(refTokens))
	return 2 * precision * recall / (precision + recall)
}

func lcsLength(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// stringSimilarity is edit-distance-normalized similarity:
// 1 - levenshtein(a, b) / max(len(a), len(b)), on runes.
func stringSimilarity(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(min(prev[j]+1, curr[j-1]+1), prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// stringPresent reports whether the reference, or failing that its
// principal numeric token, appears verbatim in the candidate.
func stringPresent(candidate, reference string) float64 {
	cand := strings.ToLower(candidate)
	ref := strings.ToLower(strings.TrimSpace(reference))
	if ref == "" {
		return 0
	}
	if strings.Contains(cand, ref) {
		return 1
	}
	if token := principalNumericToken(reference); token != "" && strings.Contains(cand, token) {
		return 1
	}
	return 0
}

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
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBleuScore(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		reference string
		want      float64
	}{
		{
			name:      "identical sentences",
			candidate: "the ferry departed from the north terminal",
			reference: "the ferry departed from the north terminal",
			want:      1,
		},
		{
			name:      "no overlap",
			candidate: "completely unrelated words here today",
			reference: "the ferry departed from the north terminal",
			want:      0,
		},
		{
			name:      "empty candidate",
			candidate: "",
			reference: "the ferry departed",
			want:      0,
		},
		{
			name:      "empty reference",
			candidate: "the ferry departed",
			reference: "",
			want:      0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := bleuScore(tc.candidate, tc.reference); !almostEqual(got, tc.want) {
				t.Errorf("bleuScore(%q, %q) = %v, want %v", tc.candidate, tc.reference, got, tc.want)
			}
		})
	}

	t.Run("partial overlap is between 0 and 1", func(t *testing.T) {
		got := bleuScore(
			"the ferry departed from the north terminal at dawn today",
			"the ferry departed from the north terminal at noon yesterday",
		)
		if got <= 0 || got >= 1 {
			t.Errorf("bleuScore = %v, want in (0, 1)", got)
		}
	})

	t.Run("short candidate gets a brevity penalty", func(t *testing.T) {
		full := bleuScore("the ferry departed from the north", "the ferry departed from the north")
		short := bleuScore("the ferry departed", "the ferry departed from the north")
		if short >= full {
			t.Errorf("bleuScore(short) = %v, want less than %v", short, full)
		}
	})
}

func TestRougeL(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		reference string
		want      float64
	}{
		{
			name:      "identical ignoring case",
			candidate: "The Ferry Departed",
			reference: "the ferry departed",
			want:      1,
		},
		{
			name:      "no common tokens",
			candidate: "alpha beta gamma",
			reference: "delta epsilon",
			want:      0,
		},
		{
			name:      "empty candidate",
			candidate: "",
			reference: "the ferry",
			want:      0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := rougeL(tc.candidate, tc.reference); !almostEqual(got, tc.want) {
				t.Errorf("rougeL(%q, %q) = %v, want %v", tc.candidate, tc.reference, got, tc.want)
			}
		})
	}

	t.Run("subsequence order matters", func(t *testing.T) {
		// "a b c d" vs "a c b d": LCS is 3 of 4 tokens.
		got := rougeL("a b c d", "a c b d")
		if !almostEqual(got, 0.75) {
			t.Errorf("rougeL = %v, want 0.75", got)
		}
	})
}

func TestStringSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "ferry", b: "ferry", want: 1},
		{name: "both empty", a: "", b: "", want: 1},
		{name: "one empty", a: "ferry", b: "", want: 0},
		{name: "one edit of five runes", a: "ferry", b: "fervy", want: 0.8},
		{name: "unicode runes not bytes", a: "Styrsö", b: "Styrso", want: 1 - 1.0/6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := stringSimilarity(tc.a, tc.b); !almostEqual(got, tc.want) {
				t.Errorf("stringSimilarity(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestStringPresent(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		reference string
		want      float64
	}{
		{
			name:      "verbatim case-insensitive",
			candidate: "The busiest terminal was HAMNHOLMEN by far.",
			reference: "Hamnholmen",
			want:      1,
		},
		{
			name:      "absent",
			candidate: "The busiest terminal was Styrsö.",
			reference: "Hamnholmen",
			want:      0,
		},
		{
			name:      "numeric token fallback",
			candidate: "The fleet made 1432 crossings last month.",
			reference: "1432 crossings were recorded",
			want:      1,
		},
		{
			name:      "empty reference",
			candidate: "anything",
			reference: "   ",
			want:      0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := stringPresent(tc.candidate, tc.reference); got != tc.want {
				t.Errorf("stringPresent(%q, %q) = %v, want %v", tc.candidate, tc.reference, got, tc.want)
			}
		})
	}
}

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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractNumbers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []float64
	}{
		{
			name: "plain integer",
			text: "there were 42 departures",
			want: []float64{42},
		},
		{
			name: "decimal with unit",
			text: "the average speed was 6.17 knots",
			want: []float64{6.17},
		},
		{
			name: "comma thousands separator",
			text: "a total of 254,186.70 passengers",
			want: []float64{254186.70},
		},
		{
			name: "space thousands separator",
			text: "a total of 254 186 passengers",
			want: []float64{254186},
		},
		{
			name: "nested separators",
			text: "revenue of 1,234,567 SEK",
			want: []float64{1234567},
		},
		{
			name: "scale word",
			text: "roughly 3.2 million trips",
			want: []float64{3.2e6},
		},
		{
			name: "negative",
			text: "a delta of -4.5 minutes",
			want: []float64{-4.5},
		},
		{
			name: "multiple numbers in order",
			text: "route 12 carried 300 vehicles",
			want: []float64{12, 300},
		},
		{
			name: "no numbers",
			text: "the busiest terminal",
			want: nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := extractNumbers(tc.text)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("extractNumbers(%q) mismatch (-want +got):\n%s", tc.text, diff)
			}
		})
	}
}

func TestFactualCorrectness(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		reference string
		want      *float64 // nil means "no score"
	}{
		{
			name:      "exact numeric match",
			candidate: "The average speed was 6.17 knots.",
			reference: "6.17",
			want:      scorePtr(1),
		},
		{
			name:      "numeric mismatch",
			candidate: "The average speed was 12.3 knots.",
			reference: "6.17",
			want:      scorePtr(0),
		},
		{
			name:      "within tolerance",
			candidate: "about 102",
			reference: "100",
			want:      scorePtr(1),
		},
		{
			name:      "just outside tolerance",
			candidate: "about 106",
			reference: "100",
			want:      scorePtr(0),
		},
		{
			name:      "closest of several candidate numbers wins",
			candidate: "route 7 averaged 6.2 knots over 30 days",
			reference: "6.17 knots",
			want:      scorePtr(1),
		},
		{
			name:      "separator style differs",
			candidate: "254,186.70",
			reference: "254 186.70",
			want:      scorePtr(1),
		},
		{
			name:      "reference numeric but candidate is prose",
			candidate: "I could not determine the exact count.",
			reference: "1432",
			want:      scorePtr(0),
		},
		{
			name:      "candidate numeric but reference is prose",
			candidate: "There were 17 cancellations.",
			reference: "the Hamnholmen terminal",
			want:      scorePtr(0),
		},
		{
			name:      "no numbers and text matches",
			candidate: "  Hamnholmen  ",
			reference: "hamnholmen",
			want:      scorePtr(1),
		},
		{
			name:      "no numbers and text differs",
			candidate: "Hamnholmen",
			reference: "Styrsö",
			want:      nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := factualCorrectness(tc.candidate, tc.reference, DefaultRelativeTolerance)
			switch {
			case tc.want == nil && got != nil:
				t.Errorf("factualCorrectness(%q, %q) = %v, want no score", tc.candidate, tc.reference, *got)
			case tc.want != nil && got == nil:
				t.Errorf("factualCorrectness(%q, %q) = no score, want %v", tc.candidate, tc.reference, *tc.want)
			case tc.want != nil && *got != *tc.want:
				t.Errorf("factualCorrectness(%q, %q) = %v, want %v", tc.candidate, tc.reference, *got, *tc.want)
			}
		})
	}
}

func TestRelativeErrorNearZeroTruth(t *testing.T) {
	// A zero reference must not divide by zero.
	if got := relativeError(0, 0); got != 0 {
		t.Errorf("relativeError(0, 0) = %v, want 0", got)
	}
	if got := relativeError(1, 0); got < 1e9 {
		t.Errorf("relativeError(1, 0) = %v, want a very large value", got)
	}
}

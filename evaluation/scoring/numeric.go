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
	"regexp"
	"strconv"
	"strings"
)

var (
	// thousandsPattern collapses digit-group separators: "254,186.70" and
	// "254 186.70" both normalize to "254186.70".
	thousandsPattern = regexp.MustCompile(`(\d)[ ,](\d{3})\b`)

	// numberPattern matches a signed decimal number. Currency and unit
	// symbols around it ($, SEK, kr, %, knots) are simply not consumed.
	numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

	// multiplierPattern matches a number followed by a scale word.
	multiplierPattern = regexp.MustCompile(`(?i)(-?\d+(?:\.\d+)?)\s*(thousand|million|billion)`)
)

var scaleWords = map[string]float64{
	"thousand": 1e3,
	"million":  1e6,
	"billion":  1e9,
}

// extractNumbers returns all numeric values in text, in order, after
// normalizing thousands separators and applying scale words. Percent and
// currency suffixes are stripped without changing the value.
func extractNumbers(text string) []float64 {
	text = normalizeSeparators(text)

	// Scale-word numbers first, removing them so the bare mantissa is not
	// extracted a second time.
	var numbers []float64
	text = multiplierPattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := multiplierPattern.FindStringSubmatch(m)
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return m
		}
		numbers = append(numbers, v*scaleWords[strings.ToLower(parts[2])])
		return ""
	})

	for _, tok := range numberPattern.FindAllString(text, -1) {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		numbers = append(numbers, v)
	}
	return numbers
}

// principalNumericToken returns the first numeric token of text as written
// (after separator normalization), or "" when text has no number.
func principalNumericToken(text string) string {
	return numberPattern.FindString(normalizeSeparators(text))
}

func normalizeSeparators(text string) string {
	// Run twice so "1,234,567" fully collapses.
	text = thousandsPattern.ReplaceAllString(text, "$1$2")
	return thousandsPattern.ReplaceAllString(text, "$1$2")
}

// factualCorrectness compares the principal numeric value of the candidate
// against the reference within a relative tolerance. It returns:
//
//   - 1.0 when the closest candidate number is within tolerance of the
//     reference's principal number,
//   - 0.0 when numbers are present but disagree, or when exactly one side
//     has a number,
//   - 1.0 when neither side has a number and the strings match exactly,
//   - nil when neither side has a number and the strings differ ("no
//     score", never an error).
func factualCorrectness(candidate, reference string, tolerance float64) *float64 {
	candNums := extractNumbers(candidate)
	refNums := extractNumbers(reference)

	if len(refNums) == 0 && len(candNums) == 0 {
		if strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(reference)) {
			return scorePtr(1)
		}
		return nil
	}
	if len(refNums) == 0 || len(candNums) == 0 {
		return scorePtr(0)
	}

	principal := refNums[0]
	closest := candNums[0]
	for _, v := range candNums[1:] {
		if math.Abs(v-principal) < math.Abs(closest-principal) {
			closest = v
		}
	}

	if relativeError(closest, principal) <= tolerance {
		return scorePtr(1)
	}
	return scorePtr(0)
}

func relativeError(value, truth float64) float64 {
	if value == truth {
		return 0
	}
	return math.Abs(value-truth) / math.Max(math.Abs(truth), 1e-10)
}

func scorePtr(v float64) *float64 {
	return &v
}

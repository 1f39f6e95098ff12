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
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TestCase is one question/reference pair of the evaluation set. Test cases
// are loaded once at startup and never mutated.
type TestCase struct {
	// ID is the stable test number. Test case files may carry it as either
	// a JSON string or number.
	ID string `json:"test_no"`

	// Query is the natural-language question put to the agent.
	Query string `json:"query"`

	// GroundTruth is the reference answer, often numeric with units.
	GroundTruth string `json:"ground_truth"`

	// ReferenceContexts are the supporting facts a correct answer rests on.
	ReferenceContexts []string `json:"reference_contexts"`

	// Classification tags, informational only.
	Complexity      string `json:"complexity,omitempty"`
	DomainCategory  string `json:"domain_category,omitempty"`
	InteractionType string `json:"interaction_type,omitempty"`
}

// UnmarshalJSON accepts test_no as either a string or a number.
func (tc *TestCase) UnmarshalJSON(data []byte) error {
	type alias TestCase
	aux := struct {
		ID json.RawMessage `json:"test_no"`
		*alias
	}{alias: (*alias)(tc)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.ID) > 0 {
		var s string
		if err := json.Unmarshal(aux.ID, &s); err == nil {
			tc.ID = s
		} else {
			var n json.Number
			if err := json.Unmarshal(aux.ID, &n); err != nil {
				return fmt.Errorf("test_no: %w", err)
			}
			tc.ID = n.String()
		}
	}
	return nil
}

// LoadTestCases reads a JSON test-case file.
func LoadTestCases(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test cases: %w", err)
	}
	var cases []TestCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse test cases: %w", err)
	}
	for i := range cases {
		if cases[i].ID == "" {
			cases[i].ID = strconv.Itoa(i + 1)
		}
	}
	return cases, nil
}

// SelectTestCases filters cases by a selection expression: "all" or empty
// keeps everything, "2:5" is a half-open 1-based slice, "1,4,7" picks
// individual test numbers, and a bare number picks one. Out-of-range
// numbers are skipped.
func SelectTestCases(cases []TestCase, selection string) ([]TestCase, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" || strings.EqualFold(selection, "all") {
		return cases, nil
	}

	indices, err := parseSelection(selection)
	if err != nil {
		return nil, err
	}

	selected := make([]TestCase, 0, len(indices))
	for _, idx := range indices {
		if idx >= 1 && idx <= len(cases) {
			selected = append(selected, cases[idx-1])
		}
	}
	return selected, nil
}

func parseSelection(selection string) ([]int, error) {
	if strings.Contains(selection, ":") {
		parts := strings.Split(selection, ":")
		if len(parts) != 2 && len(parts) != 3 {
			return nil, fmt.Errorf("%w: invalid slice notation %q", ErrInvalidInput, selection)
		}
		start, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid slice start %q", ErrInvalidInput, parts[0])
		}
		end, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid slice end %q", ErrInvalidInput, parts[1])
		}
		step := 1
		if len(parts) == 3 {
			step, err = strconv.Atoi(parts[2])
			if err != nil || step <= 0 {
				return nil, fmt.Errorf("%w: invalid slice step %q", ErrInvalidInput, parts[2])
			}
		}
		var indices []int
		for i := start; i < end; i += step {
			indices = append(indices, i)
		}
		return indices, nil
	}

	var indices []int
	for _, field := range strings.Split(selection, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid test number %q", ErrInvalidInput, field)
		}
		indices = append(indices, n)
	}
	return indices, nil
}

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

package judge

import "testing"

func TestParseVerdicts(t *testing.T) {
	tests := []struct {
		name          string
		response      string
		wantSupported int
		wantTotal     int
		wantErr       bool
	}{
		{
			name:          "pipe format",
			response:      "the speed was 6.17 knots | yes\nthe route was 272 | no",
			wantSupported: 1,
			wantTotal:     2,
		},
		{
			name:          "all supported",
			response:      "claim one | yes\nclaim two | YES\nclaim three | Yes",
			wantSupported: 3,
			wantTotal:     3,
		},
		{
			name:          "bare trailing verdict without pipe",
			response:      "the ferry was on time: yes\nthe crossing was canceled no",
			wantSupported: 1,
			wantTotal:     2,
		},
		{
			name:          "blank lines and chatter are skipped",
			response:      "Here are my verdicts:\n\nclaim one | yes\n\nHope that helps!",
			wantSupported: 1,
			wantTotal:     1,
		},
		{
			name:     "no verdicts",
			response: "I cannot assess these claims.",
			wantErr:  true,
		},
		{
			name:     "empty response",
			response: "",
			wantErr:  true,
		},
		{
			name:          "yes inside a word does not count",
			response:      "yesterday's crossing | no",
			wantSupported: 0,
			wantTotal:     1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			supported, total, err := parseVerdicts(tc.response)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseVerdicts(%q) = (%d, %d), want error", tc.response, supported, total)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseVerdicts(%q) failed: %v", tc.response, err)
			}
			if supported != tc.wantSupported || total != tc.wantTotal {
				t.Errorf("parseVerdicts(%q) = (%d, %d), want (%d, %d)",
					tc.response, supported, total, tc.wantSupported, tc.wantTotal)
			}
		})
	}
}

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

import (
	"fmt"
	"regexp"
	"strings"
)

// verdictPattern matches the "<text> | yes" line format the grading prompts
// request. A trailing (yes|no) without the pipe is accepted as a fallback
// since judge models drift from the requested format.
var verdictPattern = regexp.MustCompile(`(?i)(?:\|\s*|\b)(yes|no)\s*$`)

// parseVerdicts extracts per-line yes/no verdicts from a judge response and
// returns the supported count and the total verdict count.
func parseVerdicts(response string) (supported, total int, err error) {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := verdictPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		total++
		if strings.EqualFold(m[1], "yes") {
			supported++
		}
	}
	if total == 0 {
		return 0, 0, fmt.Errorf("no verdicts found in judge response")
	}
	return supported, total, nil
}

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

// Package agent contains helpers shared by AgentInvoker implementations.
package agent

import "strings"

const (
	answerHeading   = "## Answer"
	analysisHeading = "## Analysis"
	reasoningPrefix = "Agent Reasoning and Response:"
)

// ExtractAnswer pulls the direct answer out of a full agent response. Agents
// are prompted to close their reasoning with a "## Answer" section; the text
// after the last such heading is the answer. Without the heading, a wrapping
// "Agent Reasoning and Response:" prefix is stripped and whatever follows
// the last "## Analysis" section stands in; failing all of that, the whole
// trimmed response does.
func ExtractAnswer(fullResponse string) string {
	if idx := strings.LastIndex(fullResponse, answerHeading); idx >= 0 {
		answer := fullResponse[idx+len(answerHeading):]
		// A further heading ends the answer section.
		if next := strings.Index(answer, "\n## "); next >= 0 {
			answer = answer[:next]
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			return answer
		}
	}

	response := fullResponse
	if _, rest, found := strings.Cut(response, reasoningPrefix); found {
		response = rest
	}
	if idx := strings.LastIndex(response, analysisHeading); idx >= 0 {
		if tail := strings.TrimSpace(response[idx+len(analysisHeading):]); tail != "" {
			return tail
		}
	}
	return strings.TrimSpace(response)
}

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
	"strings"
)

const faithfulnessPromptTemplate = `You are grading whether an answer is faithful to its supporting context.

Break the answer into its individual factual claims. For each claim, decide
whether it is supported by the context below. A claim is supported when the
context states it or it follows directly from the context.

Respond with one line per claim, in exactly this format:
<claim text> | yes
<claim text> | no

Do not output anything else.

Context:
%s

Answer:
%s`

const contextRecallPromptTemplate = `You are grading whether retrieved context covers a set of reference facts.

For each reference fact, decide whether it can be attributed to the
retrieved context below. A fact is attributable when the retrieved context
contains or directly implies it.

Respond with one line per reference fact, in exactly this format:
<fact text> | yes
<fact text> | no

Do not output anything else.

Retrieved context:
%s

Reference facts:
%s`

func faithfulnessPrompt(answer string, contexts []string) string {
	return fmt.Sprintf(faithfulnessPromptTemplate, joinBlocks(contexts), answer)
}

func contextRecallPrompt(referenceContexts, retrievedContexts []string) string {
	return fmt.Sprintf(contextRecallPromptTemplate, joinBlocks(retrievedContexts), joinBlocks(referenceContexts))
}

func joinBlocks(blocks []string) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		b = strings.TrimSpace(b)
		if b != "" {
			parts = append(parts, "- "+b)
		}
	}
	if len(parts) == 0 {
		return "- (none)"
	}
	return strings.Join(parts, "\n")
}

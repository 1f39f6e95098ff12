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

// Package judge implements LLM-as-judge grading for the metrics that cannot
// be computed lexically: faithfulness and context recall.
package judge

import (
	"context"
	"fmt"
)

// Generator is the text-generation capability the judge needs. The gemini
// package provides a genai-backed implementation.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Judge grades answers with a grading model. A failed or timed out grading
// call is returned as an error; callers degrade the metric to "not
// computed" rather than defaulting to 0 or 1.
type Judge struct {
	gen Generator
}

// New creates a judge backed by gen.
func New(gen Generator) *Judge {
	return &Judge{gen: gen}
}

// GradeFaithfulness returns the fraction of claims in answer that are
// supported by the retrieved contexts.
func (j *Judge) GradeFaithfulness(ctx context.Context, answer string, contexts []string) (float64, error) {
	response, err := j.gen.GenerateText(ctx, faithfulnessPrompt(answer, contexts))
	if err != nil {
		return 0, fmt.Errorf("faithfulness grading failed: %w", err)
	}
	supported, total, err := parseVerdicts(response)
	if err != nil {
		return 0, fmt.Errorf("faithfulness grading failed: %w", err)
	}
	return float64(supported) / float64(total), nil
}

// GradeContextRecall returns the fraction of reference facts attributable
// to the retrieved contexts.
func (j *Judge) GradeContextRecall(ctx context.Context, referenceContexts, retrievedContexts []string) (float64, error) {
	if len(referenceContexts) == 0 {
		return 0, fmt.Errorf("no reference contexts to grade")
	}
	response, err := j.gen.GenerateText(ctx, contextRecallPrompt(referenceContexts, retrievedContexts))
	if err != nil {
		return 0, fmt.Errorf("context recall grading failed: %w", err)
	}
	supported, total, err := parseVerdicts(response)
	if err != nil {
		return 0, fmt.Errorf("context recall grading failed: %w", err)
	}
	return float64(supported) / float64(total), nil
}

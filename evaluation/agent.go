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
	"context"
	"fmt"
)

// TokenUsage records the token accounting of one agent invocation.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// AgentResponse is the output of one agent invocation. It is owned by the
// invocation that created it: scored once, persisted once, never shared.
type AgentResponse struct {
	// DirectAnswer is the short extracted answer text.
	DirectAnswer string `json:"direct_answer"`

	// FullResponse is the complete reasoning/markdown trace.
	FullResponse string `json:"full_response"`

	// SQLQueries are the statements the agent actually executed, in order.
	SQLQueries []string `json:"sql_queries"`

	TokenUsage TokenUsage `json:"token_usage"`
}

// RetrievedContexts formats the executed SQL and the full trace into the
// context list the scorer grades faithfulness against.
func (r *AgentResponse) RetrievedContexts() []string {
	contexts := make([]string, 0, len(r.SQLQueries)+1)
	for _, q := range r.SQLQueries {
		contexts = append(contexts, "SQL Query: "+q)
	}
	contexts = append(contexts, "Agent Reasoning and Response: "+r.FullResponse)
	return contexts
}

// AgentInvoker is the boundary to the agent under test. Implementations
// must honor ctx cancellation and deadlines, and report failures as
// *AgentError so the retry policy can classify them.
type AgentInvoker interface {
	Invoke(ctx context.Context, question, modelID string) (*AgentResponse, error)
}

// AgentErrorKind classifies an agent invocation failure.
type AgentErrorKind string

const (
	AgentErrTimeout         AgentErrorKind = "timeout"
	AgentErrToolFailure     AgentErrorKind = "tool_failure"
	AgentErrMalformedOutput AgentErrorKind = "malformed_output"
	AgentErrRateLimited     AgentErrorKind = "rate_limited"
)

// Retryable reports whether a single occurrence of this kind warrants a
// retry. malformed_output is retryable in isolation; the Tracker fails the
// attempt once it repeats past the malformed-output threshold.
func (k AgentErrorKind) Retryable() bool {
	switch k {
	case AgentErrTimeout, AgentErrToolFailure, AgentErrRateLimited, AgentErrMalformedOutput:
		return true
	default:
		return false
	}
}

// AgentError is a typed agent invocation failure.
type AgentError struct {
	Kind AgentErrorKind
	Err  error
}

func (e *AgentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("agent error: %s", e.Kind)
	}
	return fmt.Sprintf("agent error (%s): %v", e.Kind, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

// NewAgentError wraps err with a classification.
func NewAgentError(kind AgentErrorKind, err error) *AgentError {
	return &AgentError{Kind: kind, Err: err}
}

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

// Package httpagent invokes an agent exposed over an HTTP query endpoint.
package httpagent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidewater-ai/seabench/agent"
	"github.com/tidewater-ai/seabench/evaluation"
)

const queryPath = "/api/query"

// maxResponseBytes bounds the decoded response body.
const maxResponseBytes = 4 << 20

type queryRequest struct {
	Question   string `json:"question"`
	LLMModelID string `json:"llm_model_id"`
	SourceFile string `json:"source_file,omitempty"`
}

type tokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type queryResponse struct {
	Response   string     `json:"response"`
	SQLQueries []string   `json:"sql_queries"`
	TokenUsage tokenUsage `json:"token_usage"`
}

// Invoker is an evaluation.AgentInvoker that POSTs questions to an agent
// server's query endpoint.
type Invoker struct {
	baseURL    string
	sourceFile string
	client     *http.Client
}

var _ evaluation.AgentInvoker = (*Invoker)(nil)

// Option configures an Invoker.
type Option func(*Invoker)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(inv *Invoker) { inv.client = c }
}

// WithSourceFile sets the dataset file the agent should query against.
func WithSourceFile(path string) Option {
	return func(inv *Invoker) { inv.sourceFile = path }
}

// New returns an Invoker for the agent server at baseURL. Request deadlines
// come from the caller's context, not from the client.
func New(baseURL string, opts ...Option) *Invoker {
	inv := &Invoker{
		baseURL: baseURL,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke asks the agent one question on behalf of modelID. Transport and
// server failures come back as *evaluation.AgentError so the caller's retry
// policy can classify them.
func (inv *Invoker) Invoke(ctx context.Context, question, modelID string) (*evaluation.AgentResponse, error) {
	body, err := json.Marshal(queryRequest{
		Question:   question,
		LLMModelID: modelID,
		SourceFile: inv.sourceFile,
	})
	if err != nil {
		return nil, evaluation.NewAgentError(evaluation.AgentErrMalformedOutput, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, inv.baseURL+queryPath, bytes.NewReader(body))
	if err != nil {
		return nil, evaluation.NewAgentError(evaluation.AgentErrToolFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := inv.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, evaluation.NewAgentError(evaluation.AgentErrTimeout, err)
		}
		return nil, evaluation.NewAgentError(evaluation.AgentErrToolFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, evaluation.NewAgentError(evaluation.AgentErrRateLimited,
			fmt.Errorf("agent returned %s", resp.Status))
	case resp.StatusCode != http.StatusOK:
		return nil, evaluation.NewAgentError(evaluation.AgentErrToolFailure,
			fmt.Errorf("agent returned %s", resp.Status))
	}

	var qr queryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&qr); err != nil {
		return nil, evaluation.NewAgentError(evaluation.AgentErrMalformedOutput, err)
	}
	if qr.Response == "" {
		return nil, evaluation.NewAgentError(evaluation.AgentErrMalformedOutput,
			errors.New("agent response has no text"))
	}

	return &evaluation.AgentResponse{
		DirectAnswer: agent.ExtractAnswer(qr.Response),
		FullResponse: qr.Response,
		SQLQueries:   qr.SQLQueries,
		TokenUsage: evaluation.TokenUsage{
			PromptTokens:     qr.TokenUsage.PromptTokens,
			CompletionTokens: qr.TokenUsage.CompletionTokens,
			TotalTokens:      qr.TokenUsage.TotalTokens,
		},
	}, nil
}

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

package httpagent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tidewater-ai/seabench/evaluation"
)

func TestInvokeSuccess(t *testing.T) {
	var gotReq queryRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != queryPath {
			t.Errorf("path = %s, want %s", r.URL.Path, queryPath)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request failed: %v", err)
		}
		json.NewEncoder(w).Encode(queryResponse{
			Response:   "I checked the trips table.\n\n## Answer\n6.17 knots",
			SQLQueries: []string{"SELECT avg(speed) FROM trips"},
			TokenUsage: tokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
		})
	}))
	defer server.Close()

	inv := New(server.URL, WithSourceFile("ferry_trips.csv"))
	resp, err := inv.Invoke(t.Context(), "what was the average speed?", "gemini-2.0-flash")
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if gotReq.Question != "what was the average speed?" || gotReq.LLMModelID != "gemini-2.0-flash" {
		t.Errorf("request = %+v, want question and model forwarded", gotReq)
	}
	if gotReq.SourceFile != "ferry_trips.csv" {
		t.Errorf("SourceFile = %q, want ferry_trips.csv", gotReq.SourceFile)
	}
	if resp.DirectAnswer != "6.17 knots" {
		t.Errorf("DirectAnswer = %q, want the extracted answer section", resp.DirectAnswer)
	}
	if len(resp.SQLQueries) != 1 {
		t.Errorf("SQLQueries = %v, want one query", resp.SQLQueries)
	}
	if resp.TokenUsage.TotalTokens != 150 {
		t.Errorf("TotalTokens = %d, want 150", resp.TokenUsage.TotalTokens)
	}
}

func TestInvokeErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind evaluation.AgentErrorKind
	}{
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantKind: evaluation.AgentErrRateLimited,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantKind: evaluation.AgentErrToolFailure,
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
			wantKind: evaluation.AgentErrMalformedOutput,
		},
		{
			name: "empty response text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(queryResponse{})
			},
			wantKind: evaluation.AgentErrMalformedOutput,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			_, err := New(server.URL).Invoke(t.Context(), "q", "m")
			var agentErr *evaluation.AgentError
			if !errors.As(err, &agentErr) {
				t.Fatalf("Invoke error = %v, want *AgentError", err)
			}
			if agentErr.Kind != tc.wantKind {
				t.Errorf("error kind = %s, want %s", agentErr.Kind, tc.wantKind)
			}
		})
	}
}

func TestInvokeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server watches for client disconnect;
		// otherwise the request context is never cancelled and Close hangs.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	_, err := New(server.URL).Invoke(ctx, "q", "m")
	var agentErr *evaluation.AgentError
	if !errors.As(err, &agentErr) {
		t.Fatalf("Invoke error = %v, want *AgentError", err)
	}
	if agentErr.Kind != evaluation.AgentErrTimeout {
		t.Errorf("error kind = %s, want %s", agentErr.Kind, evaluation.AgentErrTimeout)
	}
}

func TestInvokeConnectionRefused(t *testing.T) {
	// A closed server gives a transport error, not a timeout.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := New(server.URL).Invoke(t.Context(), "q", "m")
	var agentErr *evaluation.AgentError
	if !errors.As(err, &agentErr) {
		t.Fatalf("Invoke error = %v, want *AgentError", err)
	}
	if agentErr.Kind != evaluation.AgentErrToolFailure {
		t.Errorf("error kind = %s, want %s", agentErr.Kind, evaluation.AgentErrToolFailure)
	}
}

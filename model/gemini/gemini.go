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

// Package gemini backs the scoring judge and embedder interfaces with the
// Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const (
	// DefaultJudgeModel grades faithfulness and context recall verdicts.
	DefaultJudgeModel = "gemini-2.0-flash"
	// DefaultEmbeddingModel produces vectors for semantic similarity.
	DefaultEmbeddingModel = "text-embedding-004"
)

var errEmptyResponse = errors.New("gemini: empty model response")

// Client owns one genai connection shared by the generator and embedder.
type Client struct {
	client *genai.Client
}

// NewClient connects to the Gemini API. A nil cfg uses ambient credentials
// from the environment.
func NewClient(ctx context.Context, cfg *genai.ClientConfig) (*Client, error) {
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{client: c}, nil
}

// Generator produces judge verdict text from a fixed model.
type Generator struct {
	client *genai.Client
	model  string
}

// Generator returns a text generator bound to model, falling back to
// DefaultJudgeModel when model is empty.
func (c *Client) Generator(model string) *Generator {
	if model == "" {
		model = DefaultJudgeModel
	}
	return &Generator{client: c.client, model: model}
}

// GenerateText sends prompt and returns the concatenated text parts of the
// first candidate.
func (g *Generator) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errEmptyResponse
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		out += part.Text
	}
	if out == "" {
		return "", errEmptyResponse
	}
	return out, nil
}

// Embedder produces embedding vectors from a fixed model.
type Embedder struct {
	client *genai.Client
	model  string
}

// Embedder returns an embedder bound to model, falling back to
// DefaultEmbeddingModel when model is empty.
func (c *Client) Embedder(model string) *Embedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &Embedder{client: c.client, model: model}
}

// Embed returns the embedding vector for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errEmptyResponse
	}
	vec := make([]float64, len(resp.Embeddings[0].Values))
	for i, v := range resp.Embeddings[0].Values {
		vec[i] = float64(v)
	}
	return vec, nil
}

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

// Package model provides shared wrappers around the concrete model clients.
package model

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tidewater-ai/seabench/evaluation/scoring"
)

// DefaultEmbeddingCacheSize bounds the cached vectors. Ground truths repeat
// across runs of the same test set, so a small cache removes most calls.
const DefaultEmbeddingCacheSize = 512

// CachedEmbedder memoizes embedding vectors by input text.
type CachedEmbedder struct {
	inner scoring.Embedder
	cache *lru.Cache[string, []float64]
}

var _ scoring.Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps inner with an LRU cache of the given size. A size
// of zero or less uses DefaultEmbeddingCacheSize.
func NewCachedEmbedder(inner scoring.Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		size = DefaultEmbeddingCacheSize
	}
	cache, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, calling the inner embedder on a
// miss. Errors are not cached.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if vec, ok := e.cache.Get(text); ok {
		return vec, nil
	}
	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(text, vec)
	return vec, nil
}

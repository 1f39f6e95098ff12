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

// Package config loads evaluation run configuration from YAML.
package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
	StorageMemory = "memory"
)

// Duration is a time.Duration that unmarshals from YAML strings such as
// "45s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Storage selects and locates the result store backend.
type Storage struct {
	// Backend is one of sqlite, file or memory.
	Backend string `yaml:"backend"`
	// Path is the database file for sqlite or the root directory for
	// file.
	Path string `yaml:"path"`
}

// Scoring holds the scorer knobs.
type Scoring struct {
	// RelativeTolerance is the numeric tolerance band for factual
	// correctness.
	RelativeTolerance float64 `yaml:"relative_tolerance"`
	// LLMTimeout bounds each judge or embedding call.
	LLMTimeout Duration `yaml:"llm_timeout"`
	// JudgeModel grades faithfulness and context recall.
	JudgeModel string `yaml:"judge_model"`
	// EmbeddingModel produces semantic similarity vectors.
	EmbeddingModel string `yaml:"embedding_model"`
	// EmbeddingCacheSize bounds the embedding memo cache.
	EmbeddingCacheSize int `yaml:"embedding_cache_size"`
}

// Agent locates the agent server under evaluation.
type Agent struct {
	BaseURL    string `yaml:"base_url"`
	SourceFile string `yaml:"source_file"`
	// InvokeTimeout bounds one agent call.
	InvokeTimeout Duration `yaml:"invoke_timeout"`
}

// Config is the full evaluation configuration.
type Config struct {
	// Models lists the model IDs available for evaluation; the first one
	// is the default.
	Models []string `yaml:"models"`

	// TestCases is the path to the test case JSON file.
	TestCases string `yaml:"test_cases"`

	// NumberOfRuns repeats every test case this many times.
	NumberOfRuns int `yaml:"number_of_runs"`

	// MaxRetries bounds retries per test case and run.
	MaxRetries int `yaml:"max_retries"`

	Agent   Agent   `yaml:"agent"`
	Scoring Scoring `yaml:"scoring"`
	Storage Storage `yaml:"storage"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		TestCases:    "testdata/test_cases.json",
		NumberOfRuns: 1,
		MaxRetries:   2,
		Agent: Agent{
			BaseURL:       "http://localhost:8000",
			InvokeTimeout: Duration(2 * time.Minute),
		},
		Scoring: Scoring{
			RelativeTolerance:  0.05,
			LLMTimeout:         Duration(45 * time.Second),
			EmbeddingCacheSize: 512,
		},
		Storage: Storage{
			Backend: StorageSQLite,
			Path:    "evaluation.db",
		},
	}
}

// Load reads path on top of the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case StorageSQLite, StorageFile, StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.NumberOfRuns < 0 {
		return fmt.Errorf("number_of_runs must not be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.Scoring.RelativeTolerance < 0 {
		return fmt.Errorf("relative_tolerance must not be negative")
	}
	return nil
}

// DefaultModel returns the first configured model, or empty when none are
// configured.
func (c *Config) DefaultModel() string {
	if len(c.Models) == 0 {
		return ""
	}
	return c.Models[0]
}

// SupportsModel reports whether id is in the configured model registry. An
// empty registry places no restriction.
func (c *Config) SupportsModel(id string) bool {
	return len(c.Models) == 0 || slices.Contains(c.Models, id)
}

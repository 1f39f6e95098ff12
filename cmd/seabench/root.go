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

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tidewater-ai/seabench/config"
	"github.com/tidewater-ai/seabench/evaluation"
	"github.com/tidewater-ai/seabench/evaluation/storage"
	"github.com/tidewater-ai/seabench/evaluation/storage/database"
)

type rootFlags struct {
	configPath string
	verbose    bool
}

var rootFlagValues rootFlags

var rootCmd = &cobra.Command{
	Use:   "seabench",
	Short: "Evaluates LLM agents against the ferry traffic test suite.",
	Long: `seabench runs a set of natural-language test questions against an
agent server, scores the answers with deterministic and LLM-judged metrics,
and stores the per-question records for aggregation.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlagValues.configPath, "config", "c", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&rootFlagValues.verbose, "verbose", "v", false, "Enable debug logging")
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if rootFlagValues.verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	return config.Load(rootFlagValues.configPath)
}

// openStore builds the configured result store. The returned close function
// is never nil.
func openStore(cfg *config.Config) (evaluation.ResultStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Storage.Backend {
	case config.StorageSQLite:
		store, err := database.Open(cfg.Storage.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, noop, nil
	case config.StorageFile:
		store, err := storage.NewFileStore(cfg.Storage.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open file store: %w", err)
		}
		return store, noop, nil
	case config.StorageMemory:
		return storage.NewMemoryStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

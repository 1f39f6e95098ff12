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
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tidewater-ai/seabench/agent/httpagent"
	"github.com/tidewater-ai/seabench/config"
	"github.com/tidewater-ai/seabench/evaluation"
	"github.com/tidewater-ai/seabench/evaluation/scoring"
	"github.com/tidewater-ai/seabench/evaluation/scoring/judge"
	"github.com/tidewater-ai/seabench/model"
	"github.com/tidewater-ai/seabench/model/gemini"
	"github.com/tidewater-ai/seabench/runner"
	"github.com/tidewater-ai/seabench/telemetry"
)

type runFlags struct {
	modelID  string
	runs     int
	retries  int
	tests    string
	agentURL string
}

var runFlagValues runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the evaluation suite against an agent server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlagValues.run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlagValues.modelID, "model", "m", "", "Model ID to evaluate (default: first configured model)")
	runCmd.Flags().IntVarP(&runFlagValues.runs, "runs", "n", 0, "Number of repetitions per test case")
	runCmd.Flags().IntVarP(&runFlagValues.retries, "retries", "r", -1, "Maximum retries per test case")
	runCmd.Flags().StringVarP(&runFlagValues.tests, "tests", "t", "all", `Test selection: "all", a range like "0:5", or a list like "1,2,3"`)
	runCmd.Flags().StringVar(&runFlagValues.agentURL, "agent-url", "", "Agent server base URL (overrides config)")
}

func (f *runFlags) run(ctx context.Context) error {
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if f.agentURL != "" {
		cfg.Agent.BaseURL = f.agentURL
	}
	if f.runs > 0 {
		cfg.NumberOfRuns = f.runs
	}
	if f.retries >= 0 {
		cfg.MaxRetries = f.retries
	}
	modelID := f.modelID
	if modelID == "" {
		modelID = cfg.DefaultModel()
	}
	if modelID == "" {
		return fmt.Errorf("no model given: set --model or add one to the config")
	}
	if !cfg.SupportsModel(modelID) {
		return fmt.Errorf("model %q is not in the configured model registry %v", modelID, cfg.Models)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, "seabench")
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to flush spans")
		}
	}()

	cases, err := evaluation.LoadTestCases(cfg.TestCases)
	if err != nil {
		return err
	}
	cases, err = evaluation.SelectTestCases(cases, f.tests)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("selection %q matches no test cases", f.tests)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	scorer, err := buildScorer(ctx, cfg, log)
	if err != nil {
		return err
	}

	invoker := httpagent.New(cfg.Agent.BaseURL, httpagent.WithSourceFile(cfg.Agent.SourceFile))

	reporter := evaluation.NewChannelReporter(len(cases) * max(cfg.NumberOfRuns, 1) * 2)
	r, err := runner.New(runner.Config{
		Invoker:       invoker,
		Scorer:        scorer,
		Store:         store,
		Reporter:      reporter,
		Logger:        log,
		InvokeTimeout: cfg.Agent.InvokeTimeout.Std(),
	})
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.Go(func() error {
		for event := range reporter.Events() {
			fmt.Printf("[%3d%%] %d/%d %s\n", event.Percent, event.Progress, event.Total, event.Message)
		}
		return nil
	})

	summary, runErr := r.Run(ctx, runner.Spec{
		TestCases:    cases,
		ModelID:      modelID,
		NumberOfRuns: cfg.NumberOfRuns,
		MaxRetries:   cfg.MaxRetries,
	})
	reporter.Close()
	if err := g.Wait(); err != nil {
		return err
	}
	if summary != nil {
		fmt.Printf("\nmodel %s: %d succeeded, %d failed, %d retries\n",
			summary.ModelID, summary.Succeeded, summary.Failed, summary.Retried)
		for _, perr := range summary.PersistenceErrors {
			log.Error().Err(perr).Msg("record lost")
		}
		printStats(ctx, store, modelID)
	}
	return runErr
}

// buildScorer assembles the scorer. Without Gemini credentials the LLM-judged
// and embedding metrics stay nil and only the deterministic metrics run.
func buildScorer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*scoring.Scorer, error) {
	scoringCfg := scoring.Config{
		RelativeTolerance: cfg.Scoring.RelativeTolerance,
		LLMTimeout:        cfg.Scoring.LLMTimeout.Std(),
	}

	client, err := gemini.NewClient(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("gemini unavailable, running deterministic metrics only")
		return scoring.New(scoringCfg), nil
	}

	embedder, err := model.NewCachedEmbedder(client.Embedder(cfg.Scoring.EmbeddingModel), cfg.Scoring.EmbeddingCacheSize)
	if err != nil {
		return nil, err
	}
	scoringCfg.Embedder = embedder
	scoringCfg.Judge = judge.New(client.Generator(cfg.Scoring.JudgeModel))
	return scoring.New(scoringCfg), nil
}

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
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tidewater-ai/seabench/evaluation"
)

type resultsFlags struct {
	modelID string
}

var resultsFlagValues resultsFlags

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Prints aggregated metric statistics from the result store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		printStats(cmd.Context(), store, resultsFlagValues.modelID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.Flags().StringVarP(&resultsFlagValues.modelID, "model", "m", "", "Restrict to one model ID")
}

func printStats(ctx context.Context, store evaluation.ResultStore, modelID string) {
	stats, err := store.Aggregate(ctx, modelID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to aggregate results: %v\n", err)
		return
	}
	if len(stats) == 0 {
		fmt.Println("no results stored")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tMETRIC\tMEAN\tSTDDEV\tN")
	for _, ms := range stats {
		for _, kind := range evaluation.AllMetrics() {
			s, ok := ms.Metrics[kind]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%d\n", ms.ModelID, kind, s.Mean, s.StdDev, s.Count)
		}
	}
	w.Flush()
}

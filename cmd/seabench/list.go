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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tidewater-ai/seabench/evaluation"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the test cases in the configured suite.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cases, err := evaluation.LoadTestCases(cfg.TestCases)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCOMPLEXITY\tCATEGORY\tQUERY")
		for i := range cases {
			tc := &cases[i]
			query := tc.Query
			if len(query) > 72 {
				query = query[:69] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", tc.ID, tc.Complexity, tc.DomainCategory, query)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

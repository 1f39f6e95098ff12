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

// Package evaluation contains the core types for scoring LLM agent answers
// against a fixed set of maritime-analytics test cases.
//
// # Core Concepts
//
// TestCase: a natural-language question with a reference answer and the
// supporting facts the answer should rest on.
//
// AgentInvoker: the boundary to the agent under test. It returns the agent's
// final answer together with the SQL it executed and its token usage, or a
// typed AgentError.
//
// Metrics: a fixed tagged set of quality scores in [0,1]. Every score is
// either a finite number or absent; a metric whose computation failed is
// absent, never silently zero.
//
// RunAttempt: one execution of one test case against one model, identified
// by (model, test case, run number). Attempts move through a small state
// machine (pending, in_progress, succeeded, failed) managed by a Tracker;
// terminal states are never left.
//
// Record: the append-only persisted join of a successful attempt, the agent
// response, and the computed metrics. ResultStore implementations live in
// the storage subpackage.
//
// The runner package drives test cases through an AgentInvoker, scores
// responses with evaluation/scoring, and persists Records.
package evaluation

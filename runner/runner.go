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

// Package runner drives full evaluation runs: it invokes the agent for each
// test case, scores the answers, and persists the records.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tidewater-ai/seabench/evaluation"
	"github.com/tidewater-ai/seabench/evaluation/scoring"
)

const (
	// DefaultInvokeTimeout bounds one agent call, not the whole attempt
	// chain.
	DefaultInvokeTimeout = 2 * time.Minute

	// DefaultStoreRetries is how many extra times a failed Append is
	// retried before the record is declared lost.
	DefaultStoreRetries = 2

	tracerName = "github.com/tidewater-ai/seabench/runner"
)

// Config assembles the collaborators of a Runner. Invoker, Scorer and Store
// are required.
type Config struct {
	Invoker  evaluation.AgentInvoker
	Scorer   *scoring.Scorer
	Store    evaluation.ResultStore
	Reporter evaluation.ProgressReporter

	Logger zerolog.Logger

	// InvokeTimeout bounds each agent call. Zero means
	// DefaultInvokeTimeout.
	InvokeTimeout time.Duration

	// StoreRetries is the number of extra Append attempts. A negative
	// value disables store retries; zero means DefaultStoreRetries.
	StoreRetries int

	// Backoff overrides the retry delay schedule, mainly for tests. Nil
	// uses exponential backoff starting at one second.
	Backoff func() backoff.BackOff
}

// Spec describes one evaluation run.
type Spec struct {
	TestCases []evaluation.TestCase
	ModelID   string

	// NumberOfRuns repeats every test case this many times. Zero means 1.
	NumberOfRuns int

	// MaxRetries bounds retries per (test case, run); an attempt chain is
	// at most MaxRetries+1 invocations.
	MaxRetries int
}

// Outcome is the terminal state of one (test case, run) pair.
type Outcome struct {
	Key        evaluation.AttemptKey
	Status     evaluation.AttemptStatus
	RetryCount int
	Error      string
}

// Summary totals one finished run.
type Summary struct {
	ModelID   string
	Succeeded int
	Failed    int
	Retried   int
	Outcomes  []Outcome

	// PersistenceErrors holds store failures that survived retry. Scores
	// for these attempts were computed but could not be saved.
	PersistenceErrors []error
}

// Runner orchestrates evaluation runs sequentially. Methods must not be
// called concurrently.
type Runner struct {
	cfg     Config
	tracer  trace.Tracer
	log     zerolog.Logger
	backoff func() backoff.BackOff
}

// New validates cfg and returns a Runner.
func New(cfg Config) (*Runner, error) {
	if cfg.Invoker == nil || cfg.Scorer == nil || cfg.Store == nil {
		return nil, fmt.Errorf("runner: invoker, scorer and store are required: %w", evaluation.ErrInvalidInput)
	}
	if cfg.Reporter == nil {
		cfg.Reporter = evaluation.NopReporter{}
	}
	if cfg.InvokeTimeout <= 0 {
		cfg.InvokeTimeout = DefaultInvokeTimeout
	}
	if cfg.StoreRetries == 0 {
		cfg.StoreRetries = DefaultStoreRetries
	}
	newBackoff := cfg.Backoff
	if newBackoff == nil {
		newBackoff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 30 * time.Second
			return b
		}
	}
	return &Runner{
		cfg:     cfg,
		tracer:  otel.Tracer(tracerName),
		log:     cfg.Logger,
		backoff: newBackoff,
	}, nil
}

// Run evaluates every test case in spec NumberOfRuns times. It returns early
// only on context cancellation; per-test failures are tallied in the summary
// and do not stop the run.
func (r *Runner) Run(ctx context.Context, spec Spec) (*Summary, error) {
	if spec.ModelID == "" || len(spec.TestCases) == 0 {
		return nil, fmt.Errorf("runner: model ID and test cases are required: %w", evaluation.ErrInvalidInput)
	}
	runs := spec.NumberOfRuns
	if runs <= 0 {
		runs = 1
	}

	ctx, span := r.tracer.Start(ctx, "evaluation_run",
		trace.WithAttributes(
			attribute.String("model_id", spec.ModelID),
			attribute.Int("test_cases", len(spec.TestCases)),
			attribute.Int("runs", runs),
		))
	defer span.End()

	runLog, hasRunLog := r.cfg.Store.(evaluation.RunLog)
	var runID string
	if hasRunLog {
		id, err := runLog.BeginRun(ctx, spec.ModelID, len(spec.TestCases)*runs)
		if err != nil {
			r.log.Warn().Err(err).Msg("run bookkeeping unavailable")
			hasRunLog = false
		} else {
			runID = id
		}
	}

	tracker := evaluation.NewTracker()
	summary := &Summary{ModelID: spec.ModelID}
	total := len(spec.TestCases) * runs
	done := 0

	for i := range spec.TestCases {
		for run := 1; run <= runs; run++ {
			if err := ctx.Err(); err != nil {
				span.SetStatus(codes.Error, "canceled")
				return summary, err
			}

			tc := &spec.TestCases[i]
			outcome := r.evaluateCase(ctx, tracker, tc, spec, run, summary)
			summary.Outcomes = append(summary.Outcomes, outcome)
			switch outcome.Status {
			case evaluation.StatusSucceeded:
				summary.Succeeded++
			default:
				summary.Failed++
			}
			summary.Retried += outcome.RetryCount

			done++
			r.report(evaluation.ProgressEvent{
				TestNo:          i + 1,
				TotalTests:      len(spec.TestCases),
				Iteration:       run,
				TotalIterations: runs,
				Progress:        done,
				Total:           total,
				Percent:         done * 100 / total,
				Message:         fmt.Sprintf("evaluated %s (%s)", tc.ID, outcome.Status),
			})
		}
	}

	if hasRunLog {
		if err := runLog.CompleteRun(ctx, runID, summary.Succeeded, summary.Failed); err != nil {
			r.log.Warn().Err(err).Str("run_id", runID).Msg("failed to close run bookkeeping")
		}
	}
	return summary, nil
}

// evaluateCase drives one (test case, run) attempt chain to a terminal
// state.
func (r *Runner) evaluateCase(ctx context.Context, tracker *evaluation.Tracker, tc *evaluation.TestCase, spec Spec, run int, summary *Summary) Outcome {
	key := evaluation.AttemptKey{ModelID: spec.ModelID, TestCaseID: tc.ID, RunNumber: run}
	log := r.log.With().Str("attempt", key.String()).Logger()

	ctx, span := r.tracer.Start(ctx, "evaluate_test_case",
		trace.WithAttributes(
			attribute.String("test_case_id", tc.ID),
			attribute.Int("run_number", run),
		))
	defer span.End()

	delay := r.backoff()
	for {
		attempt, err := tracker.Begin(key)
		if err != nil {
			// Terminal already; nothing further to do for this key.
			log.Error().Err(err).Msg("attempt already finished")
			return r.outcomeOf(tracker, key)
		}

		resp, invokeErr := r.invoke(ctx, tc.Query, spec.ModelID)
		if invokeErr == nil {
			metrics, scoreErrs := r.score(ctx, tc, resp)
			for _, serr := range scoreErrs {
				log.Warn().Err(serr).Msg("metric not computed")
			}
			if metrics.Computed() == 0 {
				invokeErr = evaluation.NewAgentError(evaluation.AgentErrMalformedOutput,
					errors.New("no metric could be computed"))
			} else {
				if err := r.persist(ctx, key, tc, resp, metrics); err != nil {
					summary.PersistenceErrors = append(summary.PersistenceErrors, err)
					log.Error().Err(err).Msg("record lost after store retries")
				}
				if err := tracker.Succeed(key); err != nil {
					log.Error().Err(err).Msg("tracker out of sync")
				}
				r.recordAttempt(ctx, tracker, key)
				span.SetStatus(codes.Ok, "")
				return r.outcomeOf(tracker, key)
			}
		}

		kind := classify(invokeErr)
		decision := evaluation.Decide(attempt, kind, spec.MaxRetries)
		if decision == evaluation.DecisionFail {
			if err := tracker.Fail(key, invokeErr); err != nil {
				log.Error().Err(err).Msg("tracker out of sync")
			}
			r.recordAttempt(ctx, tracker, key)
			r.recordFailure(ctx, key, tc, invokeErr)
			span.SetStatus(codes.Error, string(kind))
			log.Error().Err(invokeErr).Str("kind", string(kind)).Msg("test case failed")
			return r.outcomeOf(tracker, key)
		}

		if err := tracker.ScheduleRetry(key, kind, invokeErr); err != nil {
			log.Error().Err(err).Msg("tracker out of sync")
		}
		r.recordAttempt(ctx, tracker, key)
		log.Warn().Err(invokeErr).Str("kind", string(kind)).Msg("retrying test case")
		if err := sleep(ctx, delay.NextBackOff()); err != nil {
			return r.outcomeOf(tracker, key)
		}
	}
}

// invoke runs one agent call under the per-call timeout.
func (r *Runner) invoke(ctx context.Context, question, modelID string) (*evaluation.AgentResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.InvokeTimeout)
	defer cancel()
	resp, err := r.cfg.Invoker.Invoke(callCtx, question, modelID)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, evaluation.NewAgentError(evaluation.AgentErrMalformedOutput,
			errors.New("agent returned no response"))
	}
	return resp, nil
}

func (r *Runner) score(ctx context.Context, tc *evaluation.TestCase, resp *evaluation.AgentResponse) (*evaluation.Metrics, []error) {
	return r.cfg.Scorer.Score(ctx, scoring.Input{
		Candidate:         resp.DirectAnswer,
		Reference:         tc.GroundTruth,
		RetrievedContexts: resp.RetrievedContexts(),
		ReferenceContexts: tc.ReferenceContexts,
	})
}

// persist appends the record, retrying transient store failures.
func (r *Runner) persist(ctx context.Context, key evaluation.AttemptKey, tc *evaluation.TestCase, resp *evaluation.AgentResponse, metrics *evaluation.Metrics) error {
	rec := &evaluation.Record{
		ModelID:           key.ModelID,
		TestCaseID:        key.TestCaseID,
		RunNumber:         key.RunNumber,
		Query:             tc.Query,
		GroundTruth:       tc.GroundTruth,
		RetrievedContexts: resp.RetrievedContexts(),
		DirectAnswer:      resp.DirectAnswer,
		FullResponse:      resp.FullResponse,
		SQLQueries:        resp.SQLQueries,
		TokenUsage:        resp.TokenUsage,
		Metrics:           *metrics,
		CreatedAt:         time.Now().UTC(),
	}

	delay := r.backoff()
	var err error
	for attempt := 0; attempt <= r.cfg.StoreRetries; attempt++ {
		if err = r.cfg.Store.Append(ctx, rec); err == nil {
			return nil
		}
		if attempt < r.cfg.StoreRetries {
			if serr := sleep(ctx, delay.NextBackOff()); serr != nil {
				break
			}
		}
	}
	return err
}

func (r *Runner) recordAttempt(ctx context.Context, tracker *evaluation.Tracker, key evaluation.AttemptKey) {
	history, ok := r.cfg.Store.(evaluation.AttemptHistoryStore)
	if !ok {
		return
	}
	attempt, found := tracker.Get(key)
	if !found {
		return
	}
	if err := history.RecordAttempt(ctx, attempt); err != nil {
		r.log.Warn().Err(err).Str("attempt", key.String()).Msg("attempt history write failed")
	}
}

func (r *Runner) recordFailure(ctx context.Context, key evaluation.AttemptKey, tc *evaluation.TestCase, cause error) {
	sink, ok := r.cfg.Store.(evaluation.FailureSink)
	if !ok {
		return
	}
	artifact := &evaluation.FailureArtifact{
		Key:       key,
		Query:     tc.Query,
		Error:     cause.Error(),
		Timestamp: time.Now().UTC(),
	}
	if err := sink.RecordFailure(ctx, artifact); err != nil {
		r.log.Warn().Err(err).Str("attempt", key.String()).Msg("failure artifact write failed")
	}
}

func (r *Runner) outcomeOf(tracker *evaluation.Tracker, key evaluation.AttemptKey) Outcome {
	attempt, ok := tracker.Get(key)
	if !ok {
		return Outcome{Key: key, Status: evaluation.StatusFailed, Error: "attempt not tracked"}
	}
	return Outcome{
		Key:        key,
		Status:     attempt.Status,
		RetryCount: attempt.RetryCount,
		Error:      attempt.LastError,
	}
}

func (r *Runner) report(event evaluation.ProgressEvent) {
	r.cfg.Reporter.Report(event)
}

// classify maps an invocation error to its retry classification. Deadline
// errors from the per-call timeout count as agent timeouts.
func classify(err error) evaluation.AgentErrorKind {
	var agentErr *evaluation.AgentError
	if errors.As(err, &agentErr) {
		return agentErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return evaluation.AgentErrTimeout
	}
	return evaluation.AgentErrToolFailure
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

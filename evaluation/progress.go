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

package evaluation

import "github.com/rs/zerolog"

// ProgressEvent is one fine-grained progress notification, emitted after
// every attempt so a UI can render a live percentage.
type ProgressEvent struct {
	TestNo          int    `json:"test_no"`
	TotalTests      int    `json:"total_tests"`
	Iteration       int    `json:"iteration"`
	TotalIterations int    `json:"total_iterations"`
	Progress        int    `json:"progress"`
	Total           int    `json:"total"`
	Percent         int    `json:"percent"`
	Message         string `json:"message"`
}

// ProgressReporter receives progress events. Implementations must not
// block: events are fire-and-forget and the orchestrator never waits for a
// consumer to acknowledge.
type ProgressReporter interface {
	Report(event ProgressEvent)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) Report(ProgressEvent) {}

// ChannelReporter pushes events onto a buffered channel, dropping events
// when the consumer falls behind rather than blocking the evaluation loop.
type ChannelReporter struct {
	ch chan ProgressEvent
}

// NewChannelReporter creates a reporter with the given buffer size.
func NewChannelReporter(buffer int) *ChannelReporter {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelReporter{ch: make(chan ProgressEvent, buffer)}
}

// Events returns the consumer side of the channel. It is closed by Close.
func (r *ChannelReporter) Events() <-chan ProgressEvent {
	return r.ch
}

// Report delivers the event without blocking; events are dropped when the
// buffer is full.
func (r *ChannelReporter) Report(event ProgressEvent) {
	select {
	case r.ch <- event:
	default:
	}
}

// Close closes the event channel. Report must not be called after Close.
func (r *ChannelReporter) Close() {
	close(r.ch)
}

// LogReporter writes progress events to a zerolog logger.
type LogReporter struct {
	Logger zerolog.Logger
}

func (r LogReporter) Report(event ProgressEvent) {
	r.Logger.Info().
		Int("test_no", event.TestNo).
		Int("total_tests", event.TotalTests).
		Int("iteration", event.Iteration).
		Int("percent", event.Percent).
		Msg(event.Message)
}

// MultiReporter fans one event out to several reporters.
type MultiReporter []ProgressReporter

func (m MultiReporter) Report(event ProgressEvent) {
	for _, r := range m {
		r.Report(event)
	}
}

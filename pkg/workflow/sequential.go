// Copyright 2026 Foreman Authors
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

package workflow

import (
	"context"
	"log/slog"
	"time"
)

// SequentialRunner executes workers as a pipeline. Each step sees the
// results of every earlier step through an extended snapshot. Any
// non-Success step stops the pipeline; a PartialFailure from a nested
// step is a hard stop, not a degraded continue.
type SequentialRunner struct {
	config  *Config
	workers WorkerRegistry
	logger  *slog.Logger
}

// NewSequentialRunner creates a sequential runner for a validated config.
func NewSequentialRunner(cfg *Config, workers WorkerRegistry) *SequentialRunner {
	return &SequentialRunner{
		config:  cfg,
		workers: workers,
		logger:  slog.Default().With("workflow", cfg.Name, "discipline", string(DisciplineSequential)),
	}
}

// Name returns the workflow name.
func (r *SequentialRunner) Name() string { return r.config.Name }

// Run executes the pipeline.
func (r *SequentialRunner) Run(ctx context.Context, task Task, snapshot Snapshot) Outcome {
	working := snapshot
	meta := Metadata{Workflow: r.config.Name}

	var last Outcome
	for i, name := range r.config.Workers {
		if err := ctx.Err(); err != nil {
			out := cancelOutcome(ctx, "workflow "+r.config.Name)
			out.Metadata = meta
			out.Metadata.FailedStep = name
			out.Metadata.FailedStepIndex = i
			return out
		}

		worker, _ := r.workers.Get(name)
		r.logger.DebugContext(ctx, "running pipeline step",
			"worker", name,
			"step", i,
			"session_id", task.SessionID,
		)

		start := time.Now()
		out := worker.Run(ctx, task, working)
		elapsed := time.Since(start)

		meta.Steps = append(meta.Steps, StepRecord{
			Worker:   name,
			Index:    i,
			Status:   out.Status,
			Duration: elapsed,
		})

		if out.Status != StatusSuccess {
			r.logger.WarnContext(ctx, "pipeline stopped at failing step",
				"worker", name,
				"step", i,
				"status", string(out.Status),
				"error", out.Err,
			)
			out.Metadata = meta
			out.Metadata.FailedStep = name
			out.Metadata.FailedStepIndex = i
			return out
		}

		// Later steps read earlier results from the extended snapshot.
		working = working.Extend(workerTurn(name, out))
		last = out
	}

	last.Metadata = meta
	return last
}

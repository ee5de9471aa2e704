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
	"sort"
	"time"

	"github.com/foreman-dev/foreman/pkg/errors"
)

// ParallelRunner fans a task out to every worker concurrently and joins
// all branches before aggregating. Every branch runs against the same
// dispatch-time snapshot; no branch observes a sibling's output. The join
// waits for every branch, so a failure never abandons in-flight work.
type ParallelRunner struct {
	config  *Config
	workers WorkerRegistry
	logger  *slog.Logger
}

// NewParallelRunner creates a parallel runner for a validated config.
func NewParallelRunner(cfg *Config, workers WorkerRegistry) *ParallelRunner {
	return &ParallelRunner{
		config:  cfg,
		workers: workers,
		logger:  slog.Default().With("workflow", cfg.Name, "discipline", string(DisciplineParallel)),
	}
}

// Name returns the workflow name.
func (r *ParallelRunner) Name() string { return r.config.Name }

type branchResult struct {
	worker   string
	index    int
	outcome  Outcome
	duration time.Duration
}

// Run fans out, joins all branches, and aggregates:
//
//   - all branches succeed: Success carrying every branch value
//   - some succeed: PartialFailure partitioning succeeded and failed
//   - none succeed: Failure, with every branch error in Failed
func (r *ParallelRunner) Run(ctx context.Context, task Task, snapshot Snapshot) Outcome {
	if err := ctx.Err(); err != nil {
		return cancelOutcome(ctx, "workflow "+r.config.Name)
	}

	timeout := r.config.BranchTimeout
	if timeout == 0 {
		timeout = DefaultBranchTimeout
	}

	results := make(chan branchResult, len(r.config.Workers))
	for i, name := range r.config.Workers {
		worker, _ := r.workers.Get(name)
		go func(index int, name string, w Worker) {
			branchCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			out := r.runBranch(branchCtx, name, w, task, snapshot)
			results <- branchResult{
				worker:   name,
				index:    index,
				outcome:  out,
				duration: time.Since(start),
			}
		}(i, name, worker)
	}

	// Join all branches. The results channel is buffered to the branch
	// count, so collection never blocks a finished goroutine.
	collected := make([]branchResult, 0, len(r.config.Workers))
	for range r.config.Workers {
		collected = append(collected, <-results)
	}
	sort.Slice(collected, func(a, b int) bool { return collected[a].index < collected[b].index })

	meta := Metadata{Workflow: r.config.Name}
	var succeeded []BranchValue
	var failed []BranchFailure
	for _, br := range collected {
		meta.Steps = append(meta.Steps, StepRecord{
			Worker:   br.worker,
			Index:    br.index,
			Status:   br.outcome.Status,
			Duration: br.duration,
		})
		if br.outcome.Status == StatusSuccess {
			succeeded = append(succeeded, BranchValue{Worker: br.worker, Value: br.outcome.Value})
		} else {
			err := br.outcome.Err
			if err == nil {
				err = &errors.ToolError{Tool: br.worker, Message: "branch returned no result"}
			}
			r.logger.WarnContext(ctx, "branch failed",
				"worker", br.worker,
				"error", err,
			)
			failed = append(failed, BranchFailure{Worker: br.worker, Err: err})
		}
	}

	var out Outcome
	switch {
	case len(failed) == 0:
		out = Success(branchValueMap(succeeded))
		out.Succeeded = succeeded
	case len(succeeded) > 0:
		out = PartialFailure(succeeded, failed)
	default:
		// The aggregate wraps the first branch error; per-branch causes
		// stay addressable through Failed.
		out = Failure(errors.Wrapf(failed[0].Err, "workflow %s: all branches failed", r.config.Name))
		out.Failed = failed
	}
	out.Metadata = meta
	return out
}

// runBranch executes one branch and normalizes timeout and cancellation
// into the error taxonomy so the aggregate never loses the cause.
func (r *ParallelRunner) runBranch(ctx context.Context, name string, w Worker, task Task, snapshot Snapshot) Outcome {
	done := make(chan Outcome, 1)
	go func() {
		done <- w.Run(ctx, task, snapshot)
	}()

	select {
	case out := <-done:
		if out.Status != StatusSuccess && ctx.Err() == context.DeadlineExceeded && !errors.Is(out.Err, context.DeadlineExceeded) {
			return Failure(&errors.TimeoutError{
				Operation: "branch " + name,
				Duration:  r.branchTimeout(),
				Cause:     out.Err,
			})
		}
		return out
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return Failure(&errors.TimeoutError{
				Operation: "branch " + name,
				Duration:  r.branchTimeout(),
				Cause:     ctx.Err(),
			})
		}
		return Failure(&errors.CancelledError{Operation: "branch " + name, Cause: ctx.Err()})
	}
}

func (r *ParallelRunner) branchTimeout() time.Duration {
	if r.config.BranchTimeout > 0 {
		return r.config.BranchTimeout
	}
	return DefaultBranchTimeout
}

// branchValueMap flattens succeeded branch values into a map keyed by
// worker name, the natural shape for downstream consumers.
func branchValueMap(values []BranchValue) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for _, v := range values {
		out[v.Worker] = v.Value
	}
	return out
}

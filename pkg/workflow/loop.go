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

	"github.com/foreman-dev/foreman/pkg/workflow/expression"
)

// LoopRunner executes the producer/critic/refiner refinement pattern.
//
// The producer drafts once. Then each iteration has the critic judge the
// current draft; if the convergence predicate holds over the critique the
// loop stops with that draft. Otherwise the refiner revises and the next
// iteration begins. The iteration bound is a hard ceiling: a loop that
// reaches it without converging still returns Success, flagged
// MaxIterationsExceeded, carrying the best draft seen so far.
type LoopRunner struct {
	config    *Config
	workers   WorkerRegistry
	evaluator *expression.Evaluator
	logger    *slog.Logger
}

// NewLoopRunner creates a loop runner for a validated config.
func NewLoopRunner(cfg *Config, workers WorkerRegistry, evaluator *expression.Evaluator) *LoopRunner {
	return &LoopRunner{
		config:    cfg,
		workers:   workers,
		evaluator: evaluator,
		logger:    slog.Default().With("workflow", cfg.Name, "discipline", string(DisciplineLoop)),
	}
}

// Name returns the workflow name.
func (r *LoopRunner) Name() string { return r.config.Name }

// Run executes the refinement loop. An approval at iteration k means the
// critic ran k times and the refiner k-1 times.
func (r *LoopRunner) Run(ctx context.Context, task Task, snapshot Snapshot) Outcome {
	loop := r.config.Loop
	producer, _ := r.workers.Get(loop.Producer)
	critic, _ := r.workers.Get(loop.Critic)
	refiner, _ := r.workers.Get(loop.Refiner)

	meta := Metadata{Workflow: r.config.Name}
	working := snapshot

	draft, out, ok := r.runStep(ctx, producer, task, working, &meta, 0)
	if !ok {
		return out
	}
	working = working.Extend(workerTurn(loop.Producer, out))

	for iteration := 1; iteration <= loop.MaxIterations; iteration++ {
		meta.Iterations = iteration

		critiqueValue, critOut, cok := r.runStep(ctx, critic, task, working, &meta, iteration)
		if !cok {
			critOut.Metadata.Drafts = meta.Drafts
			return critOut
		}
		working = working.Extend(workerTurn(loop.Critic, critOut))

		env := critiqueEnv(critiqueValue, iteration)
		record := draftRecord(draft, env, iteration)
		meta.Drafts = append(meta.Drafts, record)

		converged, err := r.evaluator.Evaluate(loop.Convergence, env)
		if err != nil {
			// The predicate compiled at startup, so only a runtime type
			// mismatch lands here. Treat it as a workflow failure.
			fail := Failure(err)
			fail.Metadata = meta
			fail.Metadata.FailedStep = loop.Critic
			return fail
		}
		if converged {
			r.logger.InfoContext(ctx, "loop converged",
				"iteration", iteration,
				"session_id", task.SessionID,
			)
			result := Success(draft)
			result.Metadata = meta
			return result
		}

		// The final iteration gets no refinement pass; there would be
		// no critique left to judge its output.
		if iteration == loop.MaxIterations {
			break
		}

		refined, refOut, rok := r.runStep(ctx, refiner, task, working, &meta, iteration)
		if !rok {
			refOut.Metadata.Drafts = meta.Drafts
			return refOut
		}
		working = working.Extend(workerTurn(loop.Refiner, refOut))
		draft = refined
	}

	r.logger.WarnContext(ctx, "loop reached iteration bound without converging",
		"max_iterations", loop.MaxIterations,
		"session_id", task.SessionID,
	)
	result := Success(bestDraft(draft, meta.Drafts))
	result.Metadata = meta
	result.Metadata.MaxIterationsExceeded = true
	return result
}

// runStep runs one worker and records its step. ok is false when the loop
// must stop; the returned outcome then already carries metadata.
func (r *LoopRunner) runStep(ctx context.Context, w Worker, task Task, working Snapshot, meta *Metadata, iteration int) (interface{}, Outcome, bool) {
	if err := ctx.Err(); err != nil {
		out := cancelOutcome(ctx, "workflow "+r.config.Name)
		out.Metadata = *meta
		out.Metadata.FailedStep = w.Name()
		return nil, out, false
	}

	start := time.Now()
	out := w.Run(ctx, task, working)
	meta.Steps = append(meta.Steps, StepRecord{
		Worker:   w.Name(),
		Index:    iteration,
		Status:   out.Status,
		Duration: time.Since(start),
	})

	if out.Status != StatusSuccess {
		r.logger.WarnContext(ctx, "loop stopped at failing step",
			"worker", w.Name(),
			"iteration", iteration,
			"status", string(out.Status),
			"error", out.Err,
		)
		out.Metadata = *meta
		out.Metadata.FailedStep = w.Name()
		return nil, out, false
	}
	return out.Value, out, true
}

// critiqueEnv builds the predicate environment from the critic's output.
// Structured output fields become variables; plain text is exposed as
// "text". The iteration counter is always present.
func critiqueEnv(value interface{}, iteration int) map[string]interface{} {
	env := make(map[string]interface{})
	if m, ok := value.(map[string]interface{}); ok {
		for k, v := range m {
			env[k] = v
		}
	} else if s, ok := value.(string); ok {
		env["text"] = s
	}
	env["iteration"] = iteration
	return env
}

func draftRecord(draft interface{}, env map[string]interface{}, iteration int) DraftRecord {
	record := DraftRecord{Iteration: iteration, Draft: draft}
	if v, ok := env["verdict"].(string); ok {
		record.Verdict = v
	}
	if f, ok := env["feedback"].(string); ok {
		record.Feedback = f
	}
	switch s := env["score"].(type) {
	case float64:
		record.Score = s
		record.Scored = true
	case int:
		record.Score = float64(s)
		record.Scored = true
	}
	return record
}

// bestDraft picks the draft to return when the loop hits its bound. When
// the critic scored drafts the highest score wins, even if every score is
// zero or negative, with the most recent draft breaking ties; without
// scores the most recent draft wins.
func bestDraft(current interface{}, drafts []DraftRecord) interface{} {
	best := current
	var bestScore float64
	scored := false
	for _, d := range drafts {
		if !d.Scored {
			continue
		}
		if !scored || d.Score >= bestScore {
			best = d.Draft
			bestScore = d.Score
			scored = true
		}
	}
	return best
}

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
	"time"

	"github.com/google/uuid"

	"github.com/foreman-dev/foreman/pkg/errors"
)

// Runner executes a workflow pattern over a fixed worker roster. Runners
// are stateless between runs; all per-run state lives on the stack.
type Runner interface {
	// Name returns the workflow name the runner executes.
	Name() string

	// Run executes the pattern against the task and snapshot. The
	// snapshot is the session context at dispatch time; runners extend
	// working copies but never touch the session store.
	Run(ctx context.Context, task Task, snapshot Snapshot) Outcome
}

// workerTurn builds the provenance-tagged turn recording one worker's
// result, used to extend working snapshots between pipeline steps.
func workerTurn(worker string, out Outcome) Turn {
	turn := Turn{
		ID:        uuid.New().String(),
		Role:      RoleWorker,
		Worker:    worker,
		Content:   out.Summary(),
		Timestamp: time.Now().UTC(),
	}
	if structured, ok := out.Value.(map[string]interface{}); ok {
		turn.Data = structured
	}
	return turn
}

// cancelOutcome converts a context error into a Failure wrapping the
// matching taxonomy error.
func cancelOutcome(ctx context.Context, operation string) Outcome {
	if ctx.Err() == context.DeadlineExceeded {
		return Failure(&errors.TimeoutError{Operation: operation, Cause: ctx.Err()})
	}
	return Failure(&errors.CancelledError{Operation: operation, Cause: ctx.Err()})
}

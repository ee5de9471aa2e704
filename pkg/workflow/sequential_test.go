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
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foreman-dev/foreman/pkg/errors"
)

// recordingWorker returns a fixed outcome and remembers every snapshot it
// was handed.
type recordingWorker struct {
	name    string
	outcome Outcome
	fn      func(ctx context.Context, task Task, snapshot Snapshot) Outcome

	mu        sync.Mutex
	calls     int
	snapshots []Snapshot
}

func (w *recordingWorker) Name() string { return w.name }

func (w *recordingWorker) Run(ctx context.Context, task Task, snapshot Snapshot) Outcome {
	w.mu.Lock()
	w.calls++
	w.snapshots = append(w.snapshots, snapshot)
	w.mu.Unlock()
	if w.fn != nil {
		return w.fn(ctx, task, snapshot)
	}
	return w.outcome
}

func (w *recordingWorker) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

func succeeding(name, value string) *recordingWorker {
	return &recordingWorker{name: name, outcome: Success(value)}
}

func failing(name string, err error) *recordingWorker {
	return &recordingWorker{name: name, outcome: Failure(err)}
}

func registryOf(workers ...*recordingWorker) WorkerRegistry {
	reg := make(WorkerRegistry, len(workers))
	for _, w := range workers {
		reg[w.name] = w
	}
	return reg
}

func seqConfig(workers ...string) *Config {
	return &Config{
		Name:       "review-pr",
		Kind:       KindReviewPR,
		Discipline: DisciplineSequential,
		Workers:    workers,
	}
}

func TestSequentialRunner_AllStepsSucceed(t *testing.T) {
	analysis := succeeding("code-analysis", "analysis done")
	security := succeeding("security-check", "no issues")
	review := succeeding("review-generator", "LGTM with comments")

	runner := NewSequentialRunner(
		seqConfig("code-analysis", "security-check", "review-generator"),
		registryOf(analysis, security, review),
	)

	out := runner.Run(context.Background(), Task{Kind: KindReviewPR, SessionID: "s1"}, nil)

	require.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, "LGTM with comments", out.Value)
	require.Len(t, out.Metadata.Steps, 3)
	assert.Equal(t, "review-pr", out.Metadata.Workflow)
	for i, name := range []string{"code-analysis", "security-check", "review-generator"} {
		assert.Equal(t, name, out.Metadata.Steps[i].Worker)
		assert.Equal(t, StatusSuccess, out.Metadata.Steps[i].Status)
	}
}

func TestSequentialRunner_LaterStepsSeeEarlierResults(t *testing.T) {
	first := succeeding("code-analysis", "found two hotspots")
	second := succeeding("security-check", "clean")

	runner := NewSequentialRunner(
		seqConfig("code-analysis", "security-check"),
		registryOf(first, second),
	)

	base := Snapshot{{Role: RoleUser, Content: "review PR 42"}}
	out := runner.Run(context.Background(), Task{Kind: KindReviewPR}, base)
	require.Equal(t, StatusSuccess, out.Status)

	// The second step's snapshot is the base plus the first step's turn.
	require.Len(t, second.snapshots, 1)
	snap := second.snapshots[0]
	require.Len(t, snap, 2)
	assert.Equal(t, RoleUser, snap[0].Role)
	assert.Equal(t, RoleWorker, snap[1].Role)
	assert.Equal(t, "code-analysis", snap[1].Worker)
	assert.Equal(t, "found two hotspots", snap[1].Content)

	// The first step's snapshot was not mutated.
	require.Len(t, first.snapshots, 1)
	assert.Len(t, first.snapshots[0], 1)
}

func TestSequentialRunner_ShortCircuitOnFailure(t *testing.T) {
	bad := failing("security-check", &errors.ToolError{Tool: "github.get_pr_diff", Message: "rate limited"})
	never := succeeding("review-generator", "unreachable")

	runner := NewSequentialRunner(
		seqConfig("code-analysis", "security-check", "review-generator"),
		registryOf(succeeding("code-analysis", "ok"), bad, never),
	)

	out := runner.Run(context.Background(), Task{Kind: KindReviewPR}, nil)

	require.Equal(t, StatusFailure, out.Status)
	assert.Equal(t, 0, never.callCount(), "steps after a failure must not run")
	assert.Equal(t, "security-check", out.Metadata.FailedStep)
	assert.Equal(t, 1, out.Metadata.FailedStepIndex)
	require.Len(t, out.Metadata.Steps, 2)

	var toolErr *errors.ToolError
	require.True(t, errors.As(out.Err, &toolErr))
	assert.Equal(t, "github.get_pr_diff", toolErr.Tool)
}

func TestSequentialRunner_PartialFailureIsHardStop(t *testing.T) {
	partial := &recordingWorker{name: "triage", outcome: PartialFailure(
		[]BranchValue{{Worker: "category", Value: "bug"}},
		[]BranchFailure{{Worker: "priority", Err: fmt.Errorf("timed out")}},
	)}
	never := succeeding("labeler", "unreachable")

	cfg := seqConfig("triage", "labeler")
	runner := NewSequentialRunner(cfg, registryOf(partial, never))

	out := runner.Run(context.Background(), Task{Kind: KindReviewPR}, nil)

	require.Equal(t, StatusPartialFailure, out.Status)
	assert.Equal(t, 0, never.callCount(), "partial failure stops the pipeline")
	assert.Equal(t, "triage", out.Metadata.FailedStep)
	assert.Len(t, out.Succeeded, 1)
	assert.Len(t, out.Failed, 1)
}

func TestSequentialRunner_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := &recordingWorker{name: "code-analysis", fn: func(ctx context.Context, task Task, snapshot Snapshot) Outcome {
		cancel()
		return Success("done")
	}}
	second := succeeding("security-check", "unreachable")

	runner := NewSequentialRunner(
		seqConfig("code-analysis", "security-check"),
		registryOf(first, second),
	)

	out := runner.Run(ctx, Task{Kind: KindReviewPR}, nil)

	require.Equal(t, StatusFailure, out.Status)
	assert.Equal(t, 0, second.callCount())
	assert.True(t, errors.IsCancelled(out.Err))
}

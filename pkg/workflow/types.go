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

// Package workflow provides the orchestration engine for delegating
// natural-language tasks to specialized workers under three execution
// disciplines: sequential pipeline, parallel fan-out/fan-in, and bounded
// iterative refinement loop.
package workflow

import (
	"fmt"
	"time"
)

// TaskKind identifies the category of work a task requests. The enum is
// closed: every kind maps to a workflow configuration validated at startup.
type TaskKind string

// Task kinds
const (
	KindReviewPR    TaskKind = "review-pr"
	KindTriageIssue TaskKind = "triage-issue"
	KindImproveDocs TaskKind = "improve-docs"
	KindFreeForm    TaskKind = "free-form-query"
)

// validKinds enumerates every routable task kind.
var validKinds = map[TaskKind]bool{
	KindReviewPR:    true,
	KindTriageIssue: true,
	KindImproveDocs: true,
	KindFreeForm:    true,
}

// IsValid checks if a task kind is part of the closed enum.
func (k TaskKind) IsValid() bool {
	return validKinds[k]
}

// Kinds returns every valid task kind. The order is stable.
func Kinds() []TaskKind {
	return []TaskKind{KindReviewPR, KindTriageIssue, KindImproveDocs, KindFreeForm}
}

// Task is the unit of work routed through a workflow. Immutable once created.
type Task struct {
	// Kind selects the workflow configuration.
	Kind TaskKind

	// Payload is the structured input specific to the kind (repo, PR
	// number, issue number, raw query text).
	Payload map[string]interface{}

	// SessionID identifies the conversation this task belongs to.
	SessionID string

	// RequestID correlates logs and traces for one Handle call.
	RequestID string
}

// Role identifies who produced a context turn.
type Role string

// Turn roles
const (
	RoleUser        Role = "user"
	RoleCoordinator Role = "coordinator"
	RoleWorker      Role = "worker"
)

// Turn is one entry in a session's context. Turns are append-only; a turn
// is never mutated or removed once recorded.
type Turn struct {
	// ID uniquely identifies the turn.
	ID string `json:"id"`

	// Role records who produced the turn.
	Role Role `json:"role"`

	// Content is the text content of the turn.
	Content string `json:"content"`

	// Data carries structured content, when the turn has any.
	Data map[string]interface{} `json:"data,omitempty"`

	// Worker records provenance for worker-produced turns.
	Worker string `json:"worker,omitempty"`

	// Timestamp records when the turn was appended.
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is a read-only copy of a session's turns, safe to hand to a
// worker without risk of observing later mutations.
type Snapshot []Turn

// Extend returns a new snapshot with the given turns appended. The
// receiver is never modified, so sibling readers stay isolated.
func (s Snapshot) Extend(turns ...Turn) Snapshot {
	out := make(Snapshot, 0, len(s)+len(turns))
	out = append(out, s...)
	out = append(out, turns...)
	return out
}

// Status tags an Outcome variant.
type Status string

// Outcome statuses
const (
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
	StatusFailure        Status = "failure"
)

// BranchValue records a succeeded branch's value in a fan-out.
type BranchValue struct {
	Worker string      `json:"worker"`
	Value  interface{} `json:"value"`
}

// BranchFailure records a failed branch or step with its error.
type BranchFailure struct {
	Worker string `json:"worker"`
	Err    error  `json:"-"`
}

// StepRecord captures per-step provenance for outcome metadata.
type StepRecord struct {
	// Worker is the name of the worker that ran.
	Worker string `json:"worker"`

	// Index is the step's position (sequential) or launch slot (parallel).
	Index int `json:"index"`

	// Status is the step's terminal status.
	Status Status `json:"status"`

	// Duration is how long the step ran.
	Duration time.Duration `json:"duration"`
}

// DraftRecord captures one loop iteration for diagnostics.
type DraftRecord struct {
	// Iteration is the 1-based critique number this draft was judged in.
	Iteration int `json:"iteration"`

	// Draft is the draft value produced before this critique.
	Draft interface{} `json:"draft"`

	// Verdict is the critic's verdict ("approved", "needs_revision").
	Verdict string `json:"verdict"`

	// Score is the critic's numeric score, when provided.
	Score float64 `json:"score,omitempty"`

	// Scored reports whether the critic provided a numeric score, so a
	// zero Score is distinguishable from no score at all.
	Scored bool `json:"-"`

	// Feedback is the critic's revision guidance.
	Feedback string `json:"feedback,omitempty"`
}

// Metadata carries diagnostics attached to an Outcome. Failures always
// surface here even when the overall result is not a Failure.
type Metadata struct {
	// Workflow is the name of the workflow that produced the outcome.
	Workflow string `json:"workflow,omitempty"`

	// Steps lists every step that ran, in launch order for parallel
	// runs and execution order otherwise.
	Steps []StepRecord `json:"steps,omitempty"`

	// FailedStep names the step a sequential/loop run stopped at.
	FailedStep string `json:"failed_step,omitempty"`

	// FailedStepIndex is the index of FailedStep.
	FailedStepIndex int `json:"failed_step_index,omitempty"`

	// Iterations counts critique rounds in a loop run.
	Iterations int `json:"iterations,omitempty"`

	// MaxIterationsExceeded flags a loop that terminated at its bound
	// without converging. The outcome is still a Success.
	MaxIterationsExceeded bool `json:"max_iterations_exceeded,omitempty"`

	// Drafts retains loop iteration history for diagnostics.
	Drafts []DraftRecord `json:"drafts,omitempty"`
}

// Outcome is the tagged result of running a worker or a pattern runner.
// Exactly one variant applies, selected by Status:
//
//   - StatusSuccess: Value holds the result.
//   - StatusPartialFailure: Succeeded and Failed partition the branches.
//   - StatusFailure: Err holds the error.
//
// A runner never silently drops a failed branch; every failure appears in
// Failed or in Metadata.
type Outcome struct {
	Status    Status          `json:"status"`
	Value     interface{}     `json:"value,omitempty"`
	Succeeded []BranchValue   `json:"succeeded,omitempty"`
	Failed    []BranchFailure `json:"failed,omitempty"`
	Err       error           `json:"-"`
	Metadata  Metadata        `json:"metadata"`
}

// Success creates a Success outcome.
func Success(value interface{}) Outcome {
	return Outcome{Status: StatusSuccess, Value: value}
}

// PartialFailure creates a PartialFailure outcome listing succeeded and
// failed branches.
func PartialFailure(succeeded []BranchValue, failed []BranchFailure) Outcome {
	return Outcome{Status: StatusPartialFailure, Succeeded: succeeded, Failed: failed}
}

// Failure creates a Failure outcome.
func Failure(err error) Outcome {
	return Outcome{Status: StatusFailure, Err: err}
}

// IsSuccess reports whether the outcome is a Success.
func (o Outcome) IsSuccess() bool { return o.Status == StatusSuccess }

// IsFailure reports whether the outcome is a Failure.
func (o Outcome) IsFailure() bool { return o.Status == StatusFailure }

// Summary renders a short human-readable description of the outcome,
// used for the coordinator's context turn.
func (o Outcome) Summary() string {
	switch o.Status {
	case StatusSuccess:
		if s, ok := o.Value.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", o.Value)
	case StatusPartialFailure:
		return fmt.Sprintf("partial result: %d succeeded, %d failed", len(o.Succeeded), len(o.Failed))
	default:
		if o.Err != nil {
			return o.Err.Error()
		}
		return "failed"
	}
}

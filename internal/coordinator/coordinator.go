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

// Package coordinator routes incoming utterances to workflows and owns
// the session context. It is the only component that writes to the
// session store.
package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/foreman-dev/foreman/internal/metrics"
	"github.com/foreman-dev/foreman/internal/session"
	"github.com/foreman-dev/foreman/pkg/workflow"
)

// Coordinator dispatches user requests to pattern runners. Requests for
// the same session are serialized; different sessions run concurrently.
type Coordinator struct {
	registry   *workflow.Registry
	store      session.Store
	classifier *Classifier
	logger     *slog.Logger
	tracer     trace.Tracer

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

// New creates a coordinator over a validated workflow registry.
func New(registry *workflow.Registry, store session.Store, classifier *Classifier) *Coordinator {
	return &Coordinator{
		registry:   registry,
		store:      store,
		classifier: classifier,
		logger:     slog.Default().With("component", "coordinator"),
		tracer:     otel.Tracer("foreman/coordinator"),
		sessions:   make(map[string]*sync.Mutex),
	}
}

// Handle processes one utterance for a session: classify, dispatch to
// the matching workflow, and record the exchange in the session context.
// Every handle appends exactly two turns: the user's and one coordinator
// summary, regardless of the outcome.
func (c *Coordinator) Handle(ctx context.Context, sessionID, input string) (workflow.Outcome, error) {
	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	requestID := uuid.New().String()
	logger := c.logger.With("session_id", sessionID, "request_id", requestID)

	ctx, span := c.tracer.Start(ctx, "coordinator.handle",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("request.id", requestID),
		))
	defer span.End()

	decision, err := c.classifier.Classify(ctx, input)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return workflow.Outcome{}, err
	}
	span.SetAttributes(
		attribute.String("task.kind", string(decision.Kind)),
		attribute.Float64("classifier.confidence", decision.Confidence),
		attribute.Bool("classifier.fallback", decision.FellBack),
	)
	logger.InfoContext(ctx, "routing task",
		"kind", string(decision.Kind),
		"confidence", decision.Confidence,
		"fallback", decision.FellBack,
	)

	if err := c.store.Append(ctx, sessionID, workflow.Turn{
		ID:        uuid.New().String(),
		Role:      workflow.RoleUser,
		Content:   input,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return workflow.Outcome{}, err
	}

	snapshot, err := c.store.Snapshot(ctx, sessionID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return workflow.Outcome{}, err
	}

	runner, err := c.registry.Runner(decision.Kind)
	if err != nil {
		// Unreachable for valid kinds; the registry is validated at startup.
		span.SetStatus(codes.Error, err.Error())
		return workflow.Outcome{}, err
	}

	task := workflow.Task{
		Kind:      decision.Kind,
		Payload:   decision.Payload,
		SessionID: sessionID,
		RequestID: requestID,
	}

	start := time.Now()
	outcome := runner.Run(ctx, task, snapshot)
	elapsed := time.Since(start)

	metrics.RecordWorkflowRun(string(decision.Kind), string(outcome.Status), elapsed)
	for _, step := range outcome.Metadata.Steps {
		metrics.RecordWorkerStep(step.Worker, string(step.Status))
	}
	if outcome.Metadata.Iterations > 0 {
		metrics.RecordLoopIterations(outcome.Metadata.Workflow, outcome.Metadata.Iterations)
	}

	logger.InfoContext(ctx, "workflow finished",
		"workflow", outcome.Metadata.Workflow,
		"status", string(outcome.Status),
		"duration_ms", elapsed.Milliseconds(),
	)
	if outcome.Status == workflow.StatusFailure {
		span.SetStatus(codes.Error, outcome.Summary())
	}

	// Exactly one coordinator turn per handle, failures included, so
	// the session context always reflects what happened.
	summary := workflow.Turn{
		ID:        uuid.New().String(),
		Role:      workflow.RoleCoordinator,
		Content:   outcome.Summary(),
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"kind":     string(decision.Kind),
			"workflow": outcome.Metadata.Workflow,
			"status":   string(outcome.Status),
		},
	}
	if err := c.store.Append(ctx, sessionID, summary); err != nil {
		return outcome, err
	}

	return outcome, nil
}

// Snapshot exposes the session context for display.
func (c *Coordinator) Snapshot(ctx context.Context, sessionID string) (workflow.Snapshot, error) {
	return c.store.Snapshot(ctx, sessionID)
}

// sessionLock returns the mutex serializing one session's handles.
func (c *Coordinator) sessionLock(sessionID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.sessions[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		c.sessions[sessionID] = lock
	}
	return lock
}

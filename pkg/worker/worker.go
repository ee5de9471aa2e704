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

// Package worker provides the standard worker implementation backed by a
// reasoning provider and the tool registry.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foreman-dev/foreman/pkg/errors"
	"github.com/foreman-dev/foreman/pkg/llm"
	"github.com/foreman-dev/foreman/pkg/tools"
	"github.com/foreman-dev/foreman/pkg/workflow"
)

// Config describes one LLM-backed worker.
type Config struct {
	// Name is the worker's unique name within the roster.
	Name string `yaml:"name"`

	// System is the instruction framing every inference this worker makes.
	System string `yaml:"system"`

	// Tools lists registry tools invoked with the task payload before
	// inference. Their results are folded into the prompt.
	Tools []string `yaml:"tools,omitempty"`

	// Schema is an optional JSON Schema constraining the provider output.
	Schema map[string]interface{} `yaml:"schema,omitempty"`

	// Extract is an optional jq expression applied to the structured
	// output to produce the worker's result value.
	Extract string `yaml:"extract,omitempty"`

	// MaxTokens limits response length. Zero means provider default.
	MaxTokens int `yaml:"maxTokens,omitempty"`
}

// LLMWorker runs one task by invoking its configured tools, asking the
// reasoning provider, and shaping the response. Transient provider
// failures are retried with backoff inside the wrapped provider; the
// worker itself never retries tools.
type LLMWorker struct {
	config    Config
	provider  llm.Provider
	registry  *tools.Registry
	extractor *extractor
	logger    *slog.Logger
}

// Option configures an LLMWorker.
type Option func(*options)

type options struct {
	retry   llm.RetryConfig
	onRetry func(attempt int, err error)
}

// WithRetryConfig overrides the default retry budget.
func WithRetryConfig(cfg llm.RetryConfig) Option {
	return func(o *options) { o.retry = cfg }
}

// WithRetryCallback registers a callback for retry telemetry.
func WithRetryCallback(fn func(attempt int, err error)) Option {
	return func(o *options) { o.onRetry = fn }
}

// New creates an LLM-backed worker. The provider is wrapped with bounded
// retry so callers see either a result or a final error, never a
// retryable one.
func New(cfg Config, provider llm.Provider, registry *tools.Registry, opts ...Option) (*LLMWorker, error) {
	if cfg.Name == "" {
		return nil, &errors.ConfigError{Key: "name", Reason: "worker name is required"}
	}
	if provider == nil {
		return nil, &errors.ConfigError{Key: cfg.Name, Reason: "worker requires a provider"}
	}
	for _, tool := range cfg.Tools {
		if registry == nil || !registry.Has(tool) {
			return nil, &errors.ConfigError{
				Key:    cfg.Name,
				Reason: fmt.Sprintf("references unknown tool %q", tool),
			}
		}
	}

	ext, err := newExtractor(cfg.Extract)
	if err != nil {
		return nil, err
	}

	o := options{retry: llm.DefaultRetryConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	retryable := llm.NewRetryableProvider(provider, o.retry)
	if o.onRetry != nil {
		retryable.OnRetry(o.onRetry)
	}

	return &LLMWorker{
		config:    cfg,
		provider:  retryable,
		registry:  registry,
		extractor: ext,
		logger:    slog.Default().With("worker", cfg.Name),
	}, nil
}

// Name returns the worker's name.
func (w *LLMWorker) Name() string { return w.config.Name }

// Run executes the task against the snapshot.
func (w *LLMWorker) Run(ctx context.Context, task workflow.Task, snapshot workflow.Snapshot) workflow.Outcome {
	if err := ctx.Err(); err != nil {
		return workflow.Failure(&errors.CancelledError{Operation: "worker " + w.config.Name, Cause: err})
	}

	toolResults, err := w.invokeTools(ctx, task)
	if err != nil {
		w.logger.WarnContext(ctx, "tool invocation failed", "error", err, "session_id", task.SessionID)
		return workflow.Failure(err)
	}

	req := llm.Request{
		System:    w.config.System,
		Prompt:    w.buildPrompt(task, snapshot, toolResults),
		Schema:    w.config.Schema,
		MaxTokens: w.config.MaxTokens,
		Metadata: map[string]string{
			"worker":     w.config.Name,
			"session_id": task.SessionID,
			"request_id": task.RequestID,
		},
	}

	resp, err := w.provider.Infer(ctx, req)
	if err != nil {
		if errors.IsCancelled(err) || ctx.Err() != nil {
			return workflow.Failure(&errors.CancelledError{Operation: "worker " + w.config.Name, Cause: err})
		}
		w.logger.WarnContext(ctx, "inference failed", "error", err, "session_id", task.SessionID)
		return workflow.Failure(err)
	}

	value, err := w.shapeResult(resp)
	if err != nil {
		return workflow.Failure(&errors.ToolError{Tool: w.config.Name, Message: err.Error(), Cause: err})
	}
	return workflow.Success(value)
}

// invokeTools runs each configured tool with the task payload. A tool
// failure fails the worker; the returned error names the tool.
func (w *LLMWorker) invokeTools(ctx context.Context, task workflow.Task) (map[string]interface{}, error) {
	if len(w.config.Tools) == 0 {
		return nil, nil
	}

	results := make(map[string]interface{}, len(w.config.Tools))
	for _, name := range w.config.Tools {
		result, err := w.registry.Invoke(ctx, name, task.Payload)
		if err != nil {
			return nil, err
		}
		results[name] = result
	}
	return results, nil
}

// buildPrompt renders the task, prior context, and tool results into the
// provider prompt.
func (w *LLMWorker) buildPrompt(task workflow.Task, snapshot workflow.Snapshot, toolResults map[string]interface{}) string {
	var b strings.Builder

	if len(snapshot) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range snapshot {
			who := string(turn.Role)
			if turn.Worker != "" {
				who = turn.Worker
			}
			fmt.Fprintf(&b, "[%s] %s\n", who, turn.Content)
		}
		b.WriteString("\n")
	}

	if len(task.Payload) > 0 {
		b.WriteString("Task input:\n")
		b.WriteString(compactJSON(task.Payload))
		b.WriteString("\n\n")
	}

	if len(toolResults) > 0 {
		b.WriteString("Tool results:\n")
		for _, name := range w.config.Tools {
			fmt.Fprintf(&b, "%s: %s\n", name, compactJSON(toolResults[name]))
		}
	}

	return b.String()
}

// shapeResult turns the provider response into the worker's value:
// extracted field, full structured output, or plain text, in that order
// of preference.
func (w *LLMWorker) shapeResult(resp *llm.Response) (interface{}, error) {
	if w.extractor != nil {
		if resp.Structured == nil {
			return nil, fmt.Errorf("extract %q configured but provider returned no structured output", w.config.Extract)
		}
		return w.extractor.apply(resp.Structured)
	}
	if resp.Structured != nil {
		return resp.Structured, nil
	}
	return resp.Text, nil
}

func compactJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

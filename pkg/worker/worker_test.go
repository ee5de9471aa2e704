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

package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foreman-dev/foreman/pkg/errors"
	"github.com/foreman-dev/foreman/pkg/llm"
	"github.com/foreman-dev/foreman/pkg/llm/providers"
	"github.com/foreman-dev/foreman/pkg/tools"
	"github.com/foreman-dev/foreman/pkg/tools/builtin"
	"github.com/foreman-dev/foreman/pkg/workflow"
)

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	require.NoError(t, builtin.RegisterGitHubTools(r))
	return r
}

func fastRetry() Option {
	return WithRetryConfig(llm.RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	})
}

func TestNew_Validation(t *testing.T) {
	provider := providers.NewScriptedProvider()
	registry := testRegistry(t)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing name", Config{System: "x"}},
		{"unknown tool", Config{Name: "analyzer", Tools: []string{"github.nonexistent"}}},
		{"bad extract expression", Config{Name: "analyzer", Extract: ".foo | ???"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, provider, registry)
			assert.Error(t, err)
		})
	}
}

func TestLLMWorker_TextResult(t *testing.T) {
	provider := providers.NewScriptedProvider(
		providers.ScriptedResponse{Text: "The change looks correct."},
	)

	w, err := New(Config{Name: "review-generator", System: "You review pull requests."}, provider, nil, fastRetry())
	require.NoError(t, err)

	out := w.Run(context.Background(), workflow.Task{
		Kind:      workflow.KindReviewPR,
		SessionID: "s1",
		Payload:   map[string]interface{}{"repo": "acme/widgets", "pr_number": 42},
	}, nil)

	require.Equal(t, workflow.StatusSuccess, out.Status)
	assert.Equal(t, "The change looks correct.", out.Value)

	reqs := provider.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "You review pull requests.", reqs[0].System)
	assert.Contains(t, reqs[0].Prompt, "acme/widgets")
	assert.Equal(t, "review-generator", reqs[0].Metadata["worker"])
}

func TestLLMWorker_ToolResultsInPrompt(t *testing.T) {
	provider := providers.NewScriptedProvider(
		providers.ScriptedResponse{Text: "found a fixed injection"},
	)

	w, err := New(Config{
		Name:   "code-analysis",
		System: "You analyze diffs.",
		Tools:  []string{"github.get_pr_diff"},
	}, provider, testRegistry(t), fastRetry())
	require.NoError(t, err)

	out := w.Run(context.Background(), workflow.Task{
		Kind:    workflow.KindReviewPR,
		Payload: map[string]interface{}{"repo": "acme/widgets", "pr_number": 42},
	}, nil)

	require.Equal(t, workflow.StatusSuccess, out.Status)

	reqs := provider.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt, "github.get_pr_diff")
	assert.Contains(t, reqs[0].Prompt, "cursor.execute")
}

func TestLLMWorker_StructuredExtract(t *testing.T) {
	provider := providers.NewScriptedProvider(
		providers.ScriptedResponse{Structured: map[string]interface{}{
			"category":   "bug",
			"confidence": 0.91,
		}},
	)

	w, err := New(Config{
		Name:    "category-classifier",
		Schema:  map[string]interface{}{"type": "object"},
		Extract: ".category",
	}, provider, nil, fastRetry())
	require.NoError(t, err)

	out := w.Run(context.Background(), workflow.Task{Kind: workflow.KindTriageIssue}, nil)

	require.Equal(t, workflow.StatusSuccess, out.Status)
	assert.Equal(t, "bug", out.Value)
}

func TestLLMWorker_ExtractWithoutStructuredOutput(t *testing.T) {
	provider := providers.NewScriptedProvider(
		providers.ScriptedResponse{Text: "just text"},
	)

	w, err := New(Config{Name: "category-classifier", Extract: ".category"}, provider, nil, fastRetry())
	require.NoError(t, err)

	out := w.Run(context.Background(), workflow.Task{Kind: workflow.KindTriageIssue}, nil)
	require.Equal(t, workflow.StatusFailure, out.Status)
}

func TestLLMWorker_ToolFailureNamesTool(t *testing.T) {
	registry := tools.NewRegistry()
	flaky := tools.NewFuncTool("github.get_pr_diff", "fails", nil,
		func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			return nil, assert.AnError
		})
	require.NoError(t, registry.Register(flaky))

	provider := providers.NewScriptedProvider(providers.ScriptedResponse{Text: "never"})
	w, err := New(Config{Name: "code-analysis", Tools: []string{"github.get_pr_diff"}}, provider, registry, fastRetry())
	require.NoError(t, err)

	out := w.Run(context.Background(), workflow.Task{Kind: workflow.KindReviewPR}, nil)

	require.Equal(t, workflow.StatusFailure, out.Status)
	var toolErr *errors.ToolError
	require.True(t, errors.As(out.Err, &toolErr))
	assert.Equal(t, "github.get_pr_diff", toolErr.Tool)

	// The provider is never consulted when a tool fails.
	assert.Empty(t, provider.Requests())
}

func TestLLMWorker_RetriesTransientProviderErrors(t *testing.T) {
	transient := &errors.ProviderError{Provider: "scripted", Message: "overloaded", Transient: true}
	provider := providers.NewScriptedProvider(
		providers.ScriptedResponse{Err: transient},
		providers.ScriptedResponse{Err: transient},
		providers.ScriptedResponse{Text: "recovered"},
	)

	w, err := New(Config{Name: "responder"}, provider, nil, fastRetry())
	require.NoError(t, err)

	out := w.Run(context.Background(), workflow.Task{Kind: workflow.KindFreeForm}, nil)

	require.Equal(t, workflow.StatusSuccess, out.Status)
	assert.Equal(t, "recovered", out.Value)
	assert.Len(t, provider.Requests(), 3)
}

func TestLLMWorker_ExhaustedRetryBudget(t *testing.T) {
	transient := &errors.ProviderError{Provider: "scripted", Message: "overloaded", Transient: true}
	provider := providers.NewScriptedProvider(
		providers.ScriptedResponse{Err: transient},
		providers.ScriptedResponse{Err: transient},
		providers.ScriptedResponse{Err: transient},
	)

	retries := 0
	w, err := New(Config{Name: "responder"}, provider, nil, fastRetry(),
		WithRetryCallback(func(attempt int, err error) { retries++ }))
	require.NoError(t, err)

	out := w.Run(context.Background(), workflow.Task{Kind: workflow.KindFreeForm}, nil)

	require.Equal(t, workflow.StatusFailure, out.Status)
	assert.Equal(t, 2, retries)

	var provErr *errors.ProviderError
	require.True(t, errors.As(out.Err, &provErr))
	assert.Equal(t, 3, provErr.Attempts)
	assert.False(t, provErr.Transient, "final error must not invite another retry")
}

func TestLLMWorker_PermanentProviderError(t *testing.T) {
	permanent := &errors.ProviderError{Provider: "scripted", StatusCode: 400, Message: "bad request"}
	provider := providers.NewScriptedProvider(providers.ScriptedResponse{Err: permanent})

	w, err := New(Config{Name: "responder"}, provider, nil, fastRetry())
	require.NoError(t, err)

	out := w.Run(context.Background(), workflow.Task{Kind: workflow.KindFreeForm}, nil)

	require.Equal(t, workflow.StatusFailure, out.Status)
	assert.Len(t, provider.Requests(), 1, "permanent errors are not retried")
}

func TestLLMWorker_SnapshotRenderedInPrompt(t *testing.T) {
	provider := providers.NewScriptedProvider(providers.ScriptedResponse{Text: "ok"})

	w, err := New(Config{Name: "security-check"}, provider, nil, fastRetry())
	require.NoError(t, err)

	snapshot := workflow.Snapshot{
		{Role: workflow.RoleUser, Content: "review PR 42 in acme/widgets"},
		{Role: workflow.RoleWorker, Worker: "code-analysis", Content: "two files changed in the auth path"},
	}
	out := w.Run(context.Background(), workflow.Task{Kind: workflow.KindReviewPR}, snapshot)
	require.Equal(t, workflow.StatusSuccess, out.Status)

	reqs := provider.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt, "review PR 42 in acme/widgets")
	assert.Contains(t, reqs[0].Prompt, "[code-analysis]")
}

func TestLLMWorker_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := providers.NewScriptedProvider(providers.ScriptedResponse{Text: "never"})
	w, err := New(Config{Name: "responder"}, provider, nil, fastRetry())
	require.NoError(t, err)

	out := w.Run(ctx, workflow.Task{Kind: workflow.KindFreeForm}, nil)

	require.Equal(t, workflow.StatusFailure, out.Status)
	assert.True(t, errors.IsCancelled(out.Err))
}

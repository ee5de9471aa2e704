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

package errors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ProviderError
		want string
	}{
		{
			name: "message only",
			err:  &ProviderError{Provider: "httpapi", Message: "connection refused"},
			want: "provider httpapi error: connection refused",
		},
		{
			name: "with status code",
			err:  &ProviderError{Provider: "httpapi", StatusCode: 503, Message: "unavailable"},
			want: "provider httpapi error [HTTP 503]: unavailable",
		},
		{
			name: "with attempts",
			err:  &ProviderError{Provider: "httpapi", Message: "rate limited", Attempts: 4},
			want: "provider httpapi error: rate limited (after 4 attempts)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := New("boom")
	err := &ProviderError{Provider: "httpapi", Message: "failed", Cause: cause}
	assert.True(t, Is(err, cause))
}

func TestToolError_Error(t *testing.T) {
	err := &ToolError{Tool: "github.get_pr_diff", Message: "timeout"}
	assert.Equal(t, "tool github.get_pr_diff failed: timeout", err.Error())

	bare := &ToolError{Tool: "github.get_pr_diff"}
	assert.Equal(t, "tool github.get_pr_diff failed", bare.Error())
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Key: "workflows.review-pr", Reason: "unknown worker"}
	assert.Equal(t, "config error at workflows.review-pr: unknown worker", err.Error())

	noKey := &ConfigError{Reason: "file unreadable"}
	assert.Equal(t, "config error: file unreadable", noKey.Error())
}

func TestCancelledError(t *testing.T) {
	err := &CancelledError{Operation: "workflow review-pr", Cause: context.Canceled}
	assert.Equal(t, "workflow review-pr cancelled", err.Error())
	assert.True(t, Is(err, context.Canceled))
	assert.True(t, IsCancelled(err))
	assert.False(t, IsCancelled(New("plain")))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transient provider", &ProviderError{Provider: "httpapi", Transient: true}, true},
		{"permanent provider", &ProviderError{Provider: "httpapi", Transient: false}, false},
		{"timeout", &TimeoutError{Operation: "provider request"}, true},
		{"wrapped transient", Wrap(&ProviderError{Transient: true}, "worker code-analysis"), true},
		{"plain error", New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestNotFoundError_Error(t *testing.T) {
	err := &NotFoundError{Resource: "tool", ID: "github.unknown"}
	assert.Equal(t, "tool not found: github.unknown", err.Error())
}

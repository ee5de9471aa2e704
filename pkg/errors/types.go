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
	"fmt"
	"time"
)

// ValidationError represents user input validation failures.
// Use this for invalid user input, malformed data, or constraint violations.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a resource not found error.
// Use this when a requested resource (tool, workflow, session) does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "tool", "workflow", "worker")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ProviderError represents reasoning provider failures.
// Use this for errors originating from the external reasoning backend.
type ProviderError struct {
	// Provider is the name of the reasoning provider (e.g., "httpapi", "scripted")
	Provider string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Message is the human-readable error message
	Message string

	// Transient indicates the failure is safe to retry (timeouts, rate
	// limits, 5xx responses). Workers retry transient failures up to a
	// bounded attempt count before surfacing the error.
	Transient bool

	// Attempts records how many attempts were made before surfacing,
	// when the error has passed through the retry wrapper.
	Attempts int

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s error", e.Provider)

	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}

	msg = fmt.Sprintf("%s: %s", msg, e.Message)

	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s (after %d attempts)", msg, e.Attempts)
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ToolError represents a failed tool invocation.
// The tool name is always attached so the failure can be diagnosed
// without re-running the workflow.
type ToolError struct {
	// Tool is the name of the tool that failed
	Tool string

	// Message is the human-readable error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Message)
	}
	return fmt.Sprintf("tool %s failed", e.Tool)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ToolError) Unwrap() error {
	return e.Cause
}

// ConfigError represents configuration problems.
// Configuration errors are fatal at startup validation; the process
// refuses to serve requests rather than failing at request time.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "workflows.review-pr")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents operation timeouts.
// Use this when an operation exceeds its configured timeout, such as a
// parallel branch exceeding its per-branch budget.
type TimeoutError struct {
	// Operation describes what timed out (e.g., "provider request", "branch duplicate-checker")
	Operation string

	// Duration is how long the operation ran before timing out
	Duration time.Duration

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Operation, e.Duration)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// CancelledError represents caller-initiated cancellation.
// A cancelled pattern runner wraps the context error in this type so
// callers can distinguish cancellation from genuine failures.
type CancelledError struct {
	// Operation describes what was cancelled (e.g., "workflow review-pr")
	Operation string

	// Cause is the underlying context error
	Cause error
}

// Error implements the error interface.
func (e *CancelledError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s cancelled", e.Operation)
	}
	return "operation cancelled"
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancelledError) Unwrap() error {
	return e.Cause
}

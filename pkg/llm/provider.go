// Package llm provides abstractions for reasoning providers.
// This package is designed to be embeddable in other Go applications and
// provides a provider-agnostic interface for natural-language inference.
package llm

import (
	"context"
	"time"
)

// Provider defines the interface that all reasoning providers must implement.
// Providers are stateless request/response functions; they may be slow
// (seconds) and must be treated as fallible. Requests are idempotent-safe
// to retry.
type Provider interface {
	// Name returns the unique identifier for this provider (e.g., "httpapi", "scripted").
	Name() string

	// Infer sends a synchronous inference request and returns the full response.
	// When the request carries an output schema, the provider returns a
	// structured value conforming to it in Response.Structured.
	Infer(ctx context.Context, req Request) (*Response, error)
}

// Request contains all parameters for an inference request.
type Request struct {
	// System is the system instruction framing the request.
	System string

	// Prompt is the user-visible input to reason about.
	Prompt string

	// Schema is an optional JSON Schema for structured output. When set,
	// the provider is expected to return a value conforming to it.
	Schema map[string]interface{}

	// MaxTokens limits the response length. Zero means provider default.
	MaxTokens int

	// Metadata contains request tracking information (correlation IDs, worker name).
	Metadata map[string]string
}

// Response contains the full response from an inference request.
type Response struct {
	// Text is the generated text response.
	Text string

	// Structured is the structured output value, set only when the
	// request carried a Schema.
	Structured map[string]interface{}

	// Model is the model identifier that handled this request, if known.
	Model string

	// RequestID is the unique identifier for this request (for tracing).
	RequestID string

	// Created is the timestamp when this response was generated.
	Created time.Time
}

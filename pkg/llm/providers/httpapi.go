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

// Package providers contains concrete reasoning provider implementations.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/foreman-dev/foreman/pkg/errors"
	"github.com/foreman-dev/foreman/pkg/llm"
)

const (
	// defaultHTTPTimeout bounds a single inference request. Providers can
	// be slow; anything beyond this is treated as a transient failure.
	defaultHTTPTimeout = 2 * time.Minute
)

// HTTPProvider talks to a reasoning backend over a narrow JSON-over-HTTP
// interface: POST {system, prompt, schema} to baseURL/v1/infer, receive
// {text, structured, model}.
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// HTTPOption configures an HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithHTTPClient overrides the HTTP client, mainly for testing.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(p *HTTPProvider) {
		p.httpClient = client
	}
}

// WithAPIKey sets a bearer token sent with every request.
func WithAPIKey(key string) HTTPOption {
	return func(p *HTTPProvider) {
		p.apiKey = key
	}
}

// NewHTTPProvider creates a provider backed by a JSON-over-HTTP reasoning API.
func NewHTTPProvider(baseURL string, opts ...HTTPOption) (*HTTPProvider, error) {
	if baseURL == "" {
		return nil, &errors.ConfigError{
			Key:    "provider.base_url",
			Reason: "base URL is required for the httpapi provider",
		}
	}

	p := &HTTPProvider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the provider identifier.
func (p *HTTPProvider) Name() string {
	return "httpapi"
}

// inferRequest is the wire format sent to the backend.
type inferRequest struct {
	System    string                 `json:"system,omitempty"`
	Prompt    string                 `json:"prompt"`
	Schema    map[string]interface{} `json:"schema,omitempty"`
	MaxTokens int                    `json:"max_tokens,omitempty"`
}

// inferResponse is the wire format received from the backend.
type inferResponse struct {
	Text       string                 `json:"text"`
	Structured map[string]interface{} `json:"structured,omitempty"`
	Model      string                 `json:"model,omitempty"`
}

// Infer sends an inference request to the backend.
func (p *HTTPProvider) Infer(ctx context.Context, req llm.Request) (*llm.Response, error) {
	body, err := json.Marshal(inferRequest{
		System:    req.System,
		Prompt:    req.Prompt,
		Schema:    req.Schema,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.baseURL + "/v1/infer"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	requestID := uuid.New().String()
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &errors.ProviderError{
			Provider:  p.Name(),
			Message:   "request failed: " + err.Error(),
			Transient: isNetworkTransient(err),
			Cause:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &errors.ProviderError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("backend returned status %d: %s", resp.StatusCode, string(respBody)),
			Transient:  resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	var apiResp inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, &errors.ProviderError{
			Provider: p.Name(),
			Message:  "failed to parse response: " + err.Error(),
			Cause:    err,
		}
	}

	return &llm.Response{
		Text:       apiResp.Text,
		Structured: apiResp.Structured,
		Model:      apiResp.Model,
		RequestID:  requestID,
		Created:    time.Now(),
	}, nil
}

// isNetworkTransient reports whether a transport error is worth retrying.
func isNetworkTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

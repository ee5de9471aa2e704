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

package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foreman-dev/foreman/pkg/llm"
)

// ScriptedProvider implements llm.Provider with pre-configured responses.
// Responses are returned in order for each Infer call, and every request
// is recorded for assertions. It backs offline mode and deterministic tests.
type ScriptedProvider struct {
	mu        sync.Mutex
	responses []ScriptedResponse
	index     int
	requests  []llm.Request

	// fallback, when set, is returned after the scripted responses run out
	// instead of an error. Offline mode uses this to stay usable.
	fallback *ScriptedResponse
}

// ScriptedResponse defines a pre-configured response.
type ScriptedResponse struct {
	// Text is the text response to return.
	Text string

	// Structured is the structured output to return for schema requests.
	Structured map[string]interface{}

	// Err is returned instead of a successful response.
	Err error
}

// NewScriptedProvider creates a provider that replays the given responses in order.
// If more requests are made than responses configured, Infer returns an error.
func NewScriptedProvider(responses ...ScriptedResponse) *ScriptedProvider {
	return &ScriptedProvider{
		responses: responses,
		requests:  make([]llm.Request, 0),
	}
}

// WithFallback sets a response returned once the scripted list is exhausted.
func (p *ScriptedProvider) WithFallback(resp ScriptedResponse) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fallback = &resp
	return p
}

// Name returns the provider identifier.
func (p *ScriptedProvider) Name() string {
	return "scripted"
}

// Infer returns the next scripted response.
func (p *ScriptedProvider) Infer(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)

	var scripted ScriptedResponse
	switch {
	case p.index < len(p.responses):
		scripted = p.responses[p.index]
		p.index++
	case p.fallback != nil:
		scripted = *p.fallback
	default:
		return nil, fmt.Errorf("scripted provider: no more responses configured (requested %d, configured %d)",
			p.index+1, len(p.responses))
	}

	if scripted.Err != nil {
		return nil, scripted.Err
	}

	return &llm.Response{
		Text:       scripted.Text,
		Structured: scripted.Structured,
		Model:      "scripted",
		RequestID:  uuid.New().String(),
		Created:    time.Now(),
	}, nil
}

// Requests returns a copy of all requests seen so far.
func (p *ScriptedProvider) Requests() []llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.Request, len(p.requests))
	copy(out, p.requests)
	return out
}

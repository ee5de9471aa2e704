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

package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foreman-dev/foreman/internal/metrics"
	"github.com/foreman-dev/foreman/pkg/llm"
	"github.com/foreman-dev/foreman/pkg/workflow"
)

// classifierSystem instructs the provider to emit a routing decision.
const classifierSystem = "You route requests for a code-hosting assistant. " +
	"Classify the request as one of: review-pr, triage-issue, improve-docs, free-form-query. " +
	"Extract any repository name, pull request number, or issue number into the payload. " +
	"Report your confidence between 0 and 1."

// classifierSchema constrains the classification output.
var classifierSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"intent":     map[string]interface{}{"type": "string"},
		"confidence": map[string]interface{}{"type": "number"},
		"payload":    map[string]interface{}{"type": "object"},
	},
	"required": []interface{}{"intent", "confidence"},
}

// Classification is the routing decision for one utterance.
type Classification struct {
	// Kind is the routed task kind.
	Kind workflow.TaskKind

	// Confidence is the classifier's self-reported confidence in [0, 1].
	Confidence float64

	// Payload is the structured input extracted from the utterance.
	Payload map[string]interface{}

	// FellBack is true when the utterance was routed to free-form
	// handling because classification was unusable or low-confidence.
	FellBack bool
}

// Classifier maps free text to a task kind using the reasoning provider.
// Any unusable classification degrades to the free-form kind instead of
// failing the request.
type Classifier struct {
	provider  llm.Provider
	threshold float64
	logger    *slog.Logger
}

// NewClassifier creates a classifier with the given confidence threshold.
func NewClassifier(provider llm.Provider, threshold float64) *Classifier {
	return &Classifier{
		provider:  provider,
		threshold: threshold,
		logger:    slog.Default().With("component", "classifier"),
	}
}

// Classify routes one utterance. The returned classification is always
// usable; errors from the provider degrade to free-form rather than
// propagate, except for context cancellation.
func (c *Classifier) Classify(ctx context.Context, input string) (Classification, error) {
	resp, err := c.provider.Infer(ctx, llm.Request{
		System: classifierSystem,
		Prompt: input,
		Schema: classifierSchema,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Classification{}, ctx.Err()
		}
		c.logger.WarnContext(ctx, "classification failed, falling back to free-form", "error", err)
		return c.fallback(input), nil
	}

	decision, err := parseClassification(resp)
	if err != nil {
		c.logger.WarnContext(ctx, "unusable classification, falling back to free-form", "error", err)
		return c.fallback(input), nil
	}

	if decision.Confidence < c.threshold {
		c.logger.InfoContext(ctx, "low-confidence classification, falling back to free-form",
			"intent", string(decision.Kind),
			"confidence", decision.Confidence,
			"threshold", c.threshold,
		)
		fb := c.fallback(input)
		fb.Confidence = decision.Confidence
		return fb, nil
	}

	if decision.Payload == nil {
		decision.Payload = map[string]interface{}{}
	}
	decision.Payload["query"] = input
	return decision, nil
}

func (c *Classifier) fallback(input string) Classification {
	metrics.RecordClassifierFallback()
	return Classification{
		Kind:     workflow.KindFreeForm,
		Payload:  map[string]interface{}{"query": input},
		FellBack: true,
	}
}

func parseClassification(resp *llm.Response) (Classification, error) {
	if resp.Structured == nil {
		return Classification{}, fmt.Errorf("classifier returned no structured output")
	}

	intent, ok := resp.Structured["intent"].(string)
	if !ok {
		return Classification{}, fmt.Errorf("classifier output missing intent")
	}
	kind := workflow.TaskKind(intent)
	if !kind.IsValid() {
		return Classification{}, fmt.Errorf("classifier returned unknown intent %q", intent)
	}

	confidence, ok := toFloat(resp.Structured["confidence"])
	if !ok {
		return Classification{}, fmt.Errorf("classifier output missing confidence")
	}

	payload, _ := resp.Structured["payload"].(map[string]interface{})
	return Classification{Kind: kind, Confidence: confidence, Payload: payload}, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

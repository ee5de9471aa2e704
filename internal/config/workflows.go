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

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/foreman-dev/foreman/pkg/errors"
	"github.com/foreman-dev/foreman/pkg/worker"
	"github.com/foreman-dev/foreman/pkg/workflow"
)

// Definitions is the workflow table and worker roster, either built-in
// or loaded from a YAML file.
type Definitions struct {
	Workflows []*workflow.Config `yaml:"workflows"`
	Workers   []worker.Config    `yaml:"workers"`
}

// LoadDefinitions reads definitions from the given YAML file, or returns
// the built-in defaults when path is empty.
func LoadDefinitions(path string) (*Definitions, error) {
	if path == "" {
		return DefaultDefinitions(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.ConfigError{
			Key:    "workflows_file",
			Reason: fmt.Sprintf("failed to read %s", path),
			Cause:  err,
		}
	}

	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, &errors.ConfigError{
			Key:    "workflows_file",
			Reason: fmt.Sprintf("failed to parse %s", path),
			Cause:  err,
		}
	}
	if len(defs.Workflows) == 0 {
		return nil, &errors.ConfigError{
			Key:    "workflows_file",
			Reason: fmt.Sprintf("%s defines no workflows", path),
		}
	}
	return &defs, nil
}

// DefaultDefinitions returns the built-in workflow table and worker
// roster covering pull request review, issue triage, documentation
// refinement, and free-form queries.
func DefaultDefinitions() *Definitions {
	return &Definitions{
		Workflows: []*workflow.Config{
			{
				Name:       "review-pr",
				Kind:       workflow.KindReviewPR,
				Discipline: workflow.DisciplineSequential,
				Workers:    []string{"code-analysis", "security-check", "review-generator"},
			},
			{
				Name:       "triage-issue",
				Kind:       workflow.KindTriageIssue,
				Discipline: workflow.DisciplineParallel,
				Workers:    []string{"category-classifier", "priority-assessor", "duplicate-checker"},
			},
			{
				Name:       "improve-docs",
				Kind:       workflow.KindImproveDocs,
				Discipline: workflow.DisciplineLoop,
				Loop: &workflow.LoopConfig{
					Producer:      "initial-writer",
					Critic:        "doc-critic",
					Refiner:       "doc-refiner",
					MaxIterations: 3,
					Convergence:   `verdict == "approved"`,
				},
			},
			{
				Name:       "free-form-query",
				Kind:       workflow.KindFreeForm,
				Discipline: workflow.DisciplineSequential,
				Workers:    []string{"responder"},
			},
		},
		Workers: []worker.Config{
			{
				Name: "code-analysis",
				System: "You are a code analyst. Summarize what the pull request changes, " +
					"the affected components, and anything reviewers should look at closely.",
				Tools: []string{"github.get_pr_details", "github.get_pr_diff"},
			},
			{
				Name: "security-check",
				System: "You are a security reviewer. Examine the diff for injection risks, " +
					"credential handling mistakes, and unsafe input handling. Report findings " +
					"with file and line references, or state clearly that none were found.",
				Tools: []string{"github.get_pr_diff"},
			},
			{
				Name: "review-generator",
				System: "You are a senior reviewer. Combine the earlier analysis and security " +
					"findings into one concise review comment with a clear verdict.",
			},
			{
				Name: "category-classifier",
				System: "Classify the issue into exactly one category: bug, feature_request, " +
					"question, or documentation.",
				Tools: []string{"github.get_issue_details"},
				Schema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"category":   map[string]interface{}{"type": "string"},
						"confidence": map[string]interface{}{"type": "number"},
						"reasoning":  map[string]interface{}{"type": "string"},
					},
					"required": []interface{}{"category", "confidence"},
				},
			},
			{
				Name: "priority-assessor",
				System: "Assess the issue's priority as critical, high, medium, or low based " +
					"on user impact and severity.",
				Tools: []string{"github.get_issue_details"},
				Schema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"priority":  map[string]interface{}{"type": "string"},
						"reasoning": map[string]interface{}{"type": "string"},
					},
					"required": []interface{}{"priority"},
				},
			},
			{
				Name: "duplicate-checker",
				System: "Check whether this issue duplicates a known open issue. Answer with " +
					"the duplicate issue number or state that it is new.",
				Tools: []string{"github.get_issue_details"},
			},
			{
				Name: "initial-writer",
				System: "You are a technical writer. Draft clear documentation for the " +
					"requested topic in markdown.",
			},
			{
				Name: "doc-critic",
				System: "You are a documentation reviewer. Judge the latest draft for accuracy, " +
					"completeness, and clarity. Return a verdict of approved or needs_revision " +
					"with concrete feedback.",
				Schema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"verdict":  map[string]interface{}{"type": "string"},
						"score":    map[string]interface{}{"type": "number"},
						"feedback": map[string]interface{}{"type": "string"},
					},
					"required": []interface{}{"verdict"},
				},
			},
			{
				Name: "doc-refiner",
				System: "You are a technical writer. Revise the latest draft according to the " +
					"critique, keeping what already works.",
			},
			{
				Name:   "responder",
				System: "You are a helpful assistant for code-hosting questions. Answer directly and concisely.",
			},
		},
	}
}

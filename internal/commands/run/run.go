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

// Package run implements the one-shot task command.
package run

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/foreman-dev/foreman/internal/commands/shared"
	"github.com/foreman-dev/foreman/pkg/workflow"
)

type runResult struct {
	Session string           `json:"session"`
	Input   string           `json:"input"`
	Outcome workflow.Outcome `json:"outcome"`
	Error   string           `json:"error,omitempty"`
}

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	var issues []int

	cmd := &cobra.Command{
		Use:   "run <request>",
		Short: "Run a single task and print the result",
		Long: `Classify a request, dispatch it to the matching workflow, and print
the outcome. The session context is kept across runs when --session names
an existing session.

Repeated --issue flags triage a batch of issues one after another on the
same session, so the duplicate checker sees earlier results.`,
		Example: `  foreman run "review PR 42 in acme/widgets"
  foreman run --session triage-sweep "triage issue 108"
  foreman run --issue 12 --issue 15 "triage the reported crashes"
  foreman run --json "improve the getting-started guide"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, args, issues)
		},
	}

	cmd.Flags().IntSliceVar(&issues, "issue", nil, "issue number to triage (repeatable)")

	return cmd
}

func runTask(cmd *cobra.Command, args []string, issues []int) error {
	input := strings.Join(args, " ")

	sessionID := shared.GetSession()
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	app, err := shared.Build(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close(cmd.Context()) //nolint:errcheck

	inputs := []string{input}
	if len(issues) > 0 {
		inputs = inputs[:0]
		for _, n := range issues {
			inputs = append(inputs, fmt.Sprintf("triage issue %d: %s", n, input))
		}
	}

	var failed string
	var failure error
	for _, in := range inputs {
		outcome, err := app.Coordinator.Handle(cmd.Context(), sessionID, in)
		if err != nil {
			return err
		}

		if shared.GetJSON() {
			result := runResult{Session: sessionID, Input: in, Outcome: outcome}
			if outcome.Err != nil {
				result.Error = outcome.Err.Error()
			}
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal result: %w", err)
			}
			cmd.Println(string(data))
		} else {
			printOutcome(cmd, outcome)
		}

		if outcome.IsFailure() && failure == nil {
			failed = outcome.Metadata.Workflow
			failure = outcome.Err
		}
	}

	if failure != nil {
		cmd.SilenceUsage = true
		return fmt.Errorf("workflow %s failed: %w", failed, failure)
	}
	return nil
}

func printOutcome(cmd *cobra.Command, outcome workflow.Outcome) {
	cmd.Printf("%s %s\n", shared.RenderOutcome(string(outcome.Status)),
		shared.Muted.Render(outcome.Metadata.Workflow))
	cmd.Println(outcome.Summary())

	for _, branch := range outcome.Succeeded {
		cmd.Printf("  %s\n", shared.RenderOK(branch.Worker))
	}
	for _, branch := range outcome.Failed {
		cmd.Printf("  %s\n", shared.RenderError(branch.Worker+": "+branch.Err.Error()))
	}
	if outcome.Metadata.MaxIterationsExceeded {
		cmd.Printf("  %s\n", shared.RenderWarn(fmt.Sprintf(
			"iteration bound reached after %d rounds; returning best draft", outcome.Metadata.Iterations)))
	}
}

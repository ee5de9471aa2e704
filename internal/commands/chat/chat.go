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

// Package chat implements the interactive session command.
package chat

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/foreman-dev/foreman/internal/commands/shared"
	"github.com/foreman-dev/foreman/pkg/workflow"
)

// NewChatCommand creates the chat command
func NewChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		Long: `Read requests line by line and dispatch each to the matching workflow.
All turns share one session, so later requests see earlier results.

Type /history to print the session context, /quit to exit.`,
		RunE: runChat,
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	sessionID := shared.GetSession()
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	app, err := shared.Build(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close(cmd.Context()) //nolint:errcheck

	interactive := !shared.IsNonInteractive()
	if interactive {
		cmd.Println(shared.Header.Render("foreman") + shared.Muted.Render("  session "+sessionID))
		cmd.Println(shared.Muted.Render("Type a request, /history for context, /quit to exit."))
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if interactive {
			fmt.Fprint(cmd.OutOrStdout(), shared.Bold.Render("you> "))
		}
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch input {
		case "/quit", "/exit":
			return scanner.Err()
		case "/history":
			if err := printHistory(cmd, app, sessionID); err != nil {
				return err
			}
			continue
		}

		outcome, err := app.Coordinator.Handle(cmd.Context(), sessionID, input)
		if err != nil {
			if cmd.Context().Err() != nil {
				return cmd.Context().Err()
			}
			cmd.Println(shared.RenderError(err.Error()))
			continue
		}

		printReply(cmd, outcome)
	}

	return scanner.Err()
}

func printReply(cmd *cobra.Command, outcome workflow.Outcome) {
	cmd.Printf("%s %s\n", shared.RenderOutcome(string(outcome.Status)),
		shared.Muted.Render(outcome.Metadata.Workflow))
	cmd.Println(outcome.Summary())
	for _, branch := range outcome.Failed {
		cmd.Printf("  %s\n", shared.RenderError(branch.Worker+": "+branch.Err.Error()))
	}
	cmd.Println()
}

func printHistory(cmd *cobra.Command, app *shared.App, sessionID string) error {
	snapshot, err := app.Coordinator.Snapshot(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	if len(snapshot) == 0 {
		cmd.Println(shared.Muted.Render("(empty session)"))
		return nil
	}
	for _, turn := range snapshot {
		label := string(turn.Role)
		if turn.Worker != "" {
			label = label + "/" + turn.Worker
		}
		cmd.Printf("%s %s\n", shared.Muted.Render("["+label+"]"), turn.Content)
	}
	return nil
}

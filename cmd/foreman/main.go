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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/foreman-dev/foreman/internal/commands/chat"
	"github.com/foreman-dev/foreman/internal/commands/run"
	"github.com/foreman-dev/foreman/internal/commands/shared"
	versioncmd "github.com/foreman-dev/foreman/internal/commands/version"
	"github.com/foreman-dev/foreman/internal/commands/workflows"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	shared.SetVersion(version, commit, buildDate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	rootCmd.AddCommand(run.NewRunCommand())
	rootCmd.AddCommand(chat.NewChatCommand())
	rootCmd.AddCommand(workflows.NewWorkflowsCommand())
	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, shared.RenderError(err.Error()))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "foreman",
		Short: "Workflow orchestration for code-hosting automation",
		Long: `Foreman routes natural-language requests to multi-worker workflows:
pull request review, issue triage, documentation improvement, and
free-form queries. Configuration comes from FOREMAN_* environment
variables; see 'foreman workflows' for the registered workflows.`,
		Version:       version,
		SilenceErrors: true,
	}

	jsonFlag, sessionFlag := shared.RegisterFlagPointers()
	cmd.PersistentFlags().BoolVar(jsonFlag, "json", false, "emit machine-readable JSON output")
	cmd.PersistentFlags().StringVarP(sessionFlag, "session", "s", "", "session identifier (defaults to a fresh session)")

	return cmd
}

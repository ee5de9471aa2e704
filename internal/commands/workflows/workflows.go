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

// Package workflows implements the command listing registered workflows.
package workflows

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foreman-dev/foreman/internal/commands/shared"
	"github.com/foreman-dev/foreman/internal/config"
	"github.com/foreman-dev/foreman/pkg/workflow"
)

type workflowInfo struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Discipline string   `json:"discipline"`
	Workers    []string `json:"workers"`
}

// NewWorkflowsCommand creates the workflows command
func NewWorkflowsCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "List registered workflows",
		Long:  `Display every registered workflow with its task kind, pattern discipline, and workers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflows(cmd, file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "workflow definitions file (defaults to built-in definitions)")

	return cmd
}

func runWorkflows(cmd *cobra.Command, file string) error {
	defs, err := config.LoadDefinitions(file)
	if err != nil {
		return err
	}

	infos := make([]workflowInfo, 0, len(defs.Workflows))
	for _, cfg := range defs.Workflows {
		infos = append(infos, workflowInfo{
			Name:       cfg.Name,
			Kind:       string(cfg.Kind),
			Discipline: string(cfg.Discipline),
			Workers:    workerNames(cfg),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	if shared.GetJSON() {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal workflows: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(shared.Header.Render("Workflows"))
	for _, info := range infos {
		cmd.Printf("  %s  %s\n", shared.Bold.Render(info.Name),
			shared.Muted.Render("("+info.Discipline+", kind: "+info.Kind+")"))
		cmd.Printf("    workers: %s\n", strings.Join(info.Workers, ", "))
	}

	return nil
}

func workerNames(cfg *workflow.Config) []string {
	if cfg.Discipline == workflow.DisciplineLoop && cfg.Loop != nil {
		return []string{cfg.Loop.Producer, cfg.Loop.Critic, cfg.Loop.Refiner}
	}
	return cfg.Workers
}

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

package workflow

import (
	"fmt"
	"time"

	"github.com/foreman-dev/foreman/pkg/errors"
	"github.com/foreman-dev/foreman/pkg/workflow/expression"
)

// Discipline selects the execution pattern for a workflow.
type Discipline string

// Execution disciplines
const (
	DisciplineSequential Discipline = "sequential"
	DisciplineParallel   Discipline = "parallel"
	DisciplineLoop       Discipline = "loop"
)

// DefaultBranchTimeout bounds a single parallel branch when the workflow
// does not set its own.
const DefaultBranchTimeout = 60 * time.Second

// LoopConfig describes the producer/critic/refiner roles of a loop
// workflow and its termination conditions.
type LoopConfig struct {
	// Producer creates the initial draft.
	Producer string `yaml:"producer"`

	// Critic judges each draft and emits a structured critique.
	Critic string `yaml:"critic"`

	// Refiner revises the draft using the critique.
	Refiner string `yaml:"refiner"`

	// MaxIterations bounds the number of critique rounds. Must be >= 1.
	MaxIterations int `yaml:"maxIterations"`

	// Convergence is a boolean predicate over the critic's structured
	// output. When it holds the loop stops with the current draft.
	Convergence string `yaml:"convergence"`
}

// Config describes one workflow: which discipline runs which workers for
// a given task kind.
type Config struct {
	// Name identifies the workflow in logs, metrics, and outcomes.
	Name string `yaml:"name"`

	// Kind is the task kind this workflow handles.
	Kind TaskKind `yaml:"kind"`

	// Discipline selects the execution pattern.
	Discipline Discipline `yaml:"discipline"`

	// Workers lists the worker names, in pipeline order for sequential
	// workflows and as independent branches for parallel ones. Unused
	// by loop workflows, which name their roles in Loop.
	Workers []string `yaml:"workers,omitempty"`

	// Loop configures a loop workflow. Required when Discipline is loop.
	Loop *LoopConfig `yaml:"loop,omitempty"`

	// BranchTimeout bounds each parallel branch. Zero means
	// DefaultBranchTimeout.
	BranchTimeout time.Duration `yaml:"branchTimeout,omitempty"`
}

// workerNames returns every worker the config references.
func (c *Config) workerNames() []string {
	if c.Discipline == DisciplineLoop && c.Loop != nil {
		return []string{c.Loop.Producer, c.Loop.Critic, c.Loop.Refiner}
	}
	return c.Workers
}

// Registry maps task kinds to validated workflow configurations. The
// table is built once at startup; misconfiguration is a startup error,
// never a per-task surprise.
type Registry struct {
	configs   map[TaskKind]*Config
	workers   WorkerRegistry
	evaluator *expression.Evaluator
}

// NewRegistry validates the configs against the available workers and
// builds the routing table. Every error is a ConfigError naming the
// offending workflow.
func NewRegistry(configs []*Config, workers WorkerRegistry) (*Registry, error) {
	evaluator := expression.New()
	byKind := make(map[TaskKind]*Config, len(configs))

	for _, cfg := range configs {
		if err := validateConfig(cfg, workers, evaluator); err != nil {
			return nil, err
		}
		if _, dup := byKind[cfg.Kind]; dup {
			return nil, &errors.ConfigError{
				Key:    string(cfg.Kind),
				Reason: fmt.Sprintf("duplicate workflow for kind %q", cfg.Kind),
			}
		}
		byKind[cfg.Kind] = cfg
	}

	// Every kind in the closed enum must be routable.
	for _, kind := range Kinds() {
		if _, ok := byKind[kind]; !ok {
			return nil, &errors.ConfigError{
				Key:    string(kind),
				Reason: "no workflow configured for task kind",
			}
		}
	}

	return &Registry{configs: byKind, workers: workers, evaluator: evaluator}, nil
}

func validateConfig(cfg *Config, workers WorkerRegistry, evaluator *expression.Evaluator) error {
	if cfg.Name == "" {
		return &errors.ConfigError{Key: string(cfg.Kind), Reason: "workflow name is required"}
	}
	if !cfg.Kind.IsValid() {
		return &errors.ConfigError{
			Key:    cfg.Name,
			Reason: fmt.Sprintf("unknown task kind %q", cfg.Kind),
		}
	}

	switch cfg.Discipline {
	case DisciplineSequential, DisciplineParallel:
		if len(cfg.Workers) == 0 {
			return &errors.ConfigError{
				Key:    cfg.Name,
				Reason: fmt.Sprintf("%s workflow requires at least one worker", cfg.Discipline),
			}
		}
		if cfg.Loop != nil {
			return &errors.ConfigError{
				Key:    cfg.Name,
				Reason: fmt.Sprintf("loop block is not valid for %s workflow", cfg.Discipline),
			}
		}
	case DisciplineLoop:
		if cfg.Loop == nil {
			return &errors.ConfigError{Key: cfg.Name, Reason: "loop workflow requires a loop block"}
		}
		if cfg.Loop.Producer == "" || cfg.Loop.Critic == "" || cfg.Loop.Refiner == "" {
			return &errors.ConfigError{
				Key:    cfg.Name,
				Reason: "loop workflow requires producer, critic, and refiner",
			}
		}
		if cfg.Loop.MaxIterations < 1 {
			return &errors.ConfigError{
				Key:    cfg.Name,
				Reason: fmt.Sprintf("maxIterations must be at least 1, got %d", cfg.Loop.MaxIterations),
			}
		}
		if err := evaluator.Compile(cfg.Loop.Convergence); err != nil {
			return &errors.ConfigError{
				Key:    cfg.Name,
				Reason: fmt.Sprintf("invalid convergence predicate: %v", err),
				Cause:  err,
			}
		}
	default:
		return &errors.ConfigError{
			Key:    cfg.Name,
			Reason: fmt.Sprintf("unknown discipline %q", cfg.Discipline),
		}
	}

	for _, name := range cfg.workerNames() {
		if _, ok := workers.Get(name); !ok {
			return &errors.ConfigError{
				Key:    cfg.Name,
				Reason: fmt.Sprintf("references unknown worker %q", name),
			}
		}
	}
	if cfg.BranchTimeout < 0 {
		return &errors.ConfigError{Key: cfg.Name, Reason: "branchTimeout must not be negative"}
	}

	return nil
}

// Lookup returns the workflow config for a kind. Kinds outside the enum
// or without a config return a NotFoundError, though NewRegistry
// guarantees the latter cannot happen for valid kinds.
func (r *Registry) Lookup(kind TaskKind) (*Config, error) {
	cfg, ok := r.configs[kind]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "workflow", ID: string(kind)}
	}
	return cfg, nil
}

// Runner builds the pattern runner for a kind.
func (r *Registry) Runner(kind TaskKind) (Runner, error) {
	cfg, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}

	switch cfg.Discipline {
	case DisciplineSequential:
		return NewSequentialRunner(cfg, r.workers), nil
	case DisciplineParallel:
		return NewParallelRunner(cfg, r.workers), nil
	case DisciplineLoop:
		return NewLoopRunner(cfg, r.workers, r.evaluator), nil
	default:
		// Unreachable after NewRegistry validation.
		return nil, &errors.ConfigError{
			Key:    cfg.Name,
			Reason: fmt.Sprintf("unknown discipline %q", cfg.Discipline),
		}
	}
}

// Configs returns every registered workflow, keyed by kind.
func (r *Registry) Configs() map[TaskKind]*Config {
	out := make(map[TaskKind]*Config, len(r.configs))
	for k, v := range r.configs {
		out[k] = v
	}
	return out
}

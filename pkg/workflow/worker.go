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

import "context"

// Worker executes one unit of work against a read-only context snapshot.
//
// A worker never writes to the session store. It reads the snapshot it is
// handed and reports everything it produced through the returned Outcome;
// the caller decides what becomes part of the durable session context.
type Worker interface {
	// Name returns the worker's unique name within a workflow.
	Name() string

	// Run executes the task. Implementations must honor ctx cancellation
	// and return a Failure outcome wrapping a CancelledError when
	// interrupted. Run never panics across this boundary.
	Run(ctx context.Context, task Task, snapshot Snapshot) Outcome
}

// WorkerFunc adapts a function to the Worker interface, primarily for
// tests and small inline workers.
type WorkerFunc struct {
	WorkerName string
	Fn         func(ctx context.Context, task Task, snapshot Snapshot) Outcome
}

// Name returns the worker's name.
func (w WorkerFunc) Name() string { return w.WorkerName }

// Run invokes the wrapped function.
func (w WorkerFunc) Run(ctx context.Context, task Task, snapshot Snapshot) Outcome {
	return w.Fn(ctx, task, snapshot)
}

// WorkerRegistry resolves worker names to implementations. Registries are
// populated at startup and read-only afterwards, so lookups need no lock.
type WorkerRegistry map[string]Worker

// Get returns the named worker, or false when it is not registered.
func (r WorkerRegistry) Get(name string) (Worker, bool) {
	w, ok := r[name]
	return w, ok
}

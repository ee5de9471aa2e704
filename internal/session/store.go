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

// Package session provides session context storage. Sessions are
// append-only turn logs; a snapshot is a point-in-time copy that later
// appends never mutate.
package session

import (
	"context"

	"github.com/foreman-dev/foreman/pkg/workflow"
)

// Store persists session context. Sessions are created lazily: reading or
// appending to an unknown session ID brings an empty session into
// existence rather than erroring.
type Store interface {
	// Append adds turns to the end of a session's log. Turns are never
	// reordered, mutated, or removed.
	Append(ctx context.Context, sessionID string, turns ...workflow.Turn) error

	// Snapshot returns a point-in-time copy of the session's turns.
	// Unknown sessions yield an empty snapshot.
	Snapshot(ctx context.Context, sessionID string) (workflow.Snapshot, error)

	// Sessions lists every known session ID.
	Sessions(ctx context.Context) ([]string, error)

	// Close releases store resources.
	Close() error
}

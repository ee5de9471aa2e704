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

package session

import (
	"context"
	"sort"
	"sync"

	"github.com/foreman-dev/foreman/pkg/workflow"
)

// MemoryStore keeps session context in process memory. It is the default
// for interactive use where sessions end with the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]workflow.Turn
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]workflow.Turn),
	}
}

// Append adds turns to a session, creating it on first touch.
func (s *MemoryStore) Append(ctx context.Context, sessionID string, turns ...workflow.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], turns...)
	return nil
}

// Snapshot returns a copy of the session's turns. An unknown session is
// an empty one, not an error.
func (s *MemoryStore) Snapshot(ctx context.Context, sessionID string) (workflow.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	snapshot := make(workflow.Snapshot, len(turns))
	copy(snapshot, turns)
	return snapshot, nil
}

// Sessions lists known session IDs in stable order.
func (s *MemoryStore) Sessions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

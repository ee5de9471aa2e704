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
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foreman-dev/foreman/pkg/workflow"
)

func turn(role workflow.Role, content string) workflow.Turn {
	return workflow.Turn{
		ID:        fmt.Sprintf("t-%s-%s", role, content),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// storeFactories builds each Store implementation against a temp dir so
// both pass the same contract tests.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(SQLiteConfig{
				Path: filepath.Join(t.TempDir(), "sessions.db"),
				WAL:  true,
			})
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStore_LazyCreation(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			// Reading an unknown session yields empty, not an error.
			snap, err := store.Snapshot(ctx, "never-seen")
			require.NoError(t, err)
			assert.Empty(t, snap)

			// Appending to an unknown session creates it.
			require.NoError(t, store.Append(ctx, "fresh", turn(workflow.RoleUser, "hello")))
			snap, err = store.Snapshot(ctx, "fresh")
			require.NoError(t, err)
			assert.Len(t, snap, 1)
		})
	}
}

func TestStore_AppendPreservesOrder(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			require.NoError(t, store.Append(ctx, "s1",
				turn(workflow.RoleUser, "first"),
				turn(workflow.RoleCoordinator, "second"),
			))
			require.NoError(t, store.Append(ctx, "s1", turn(workflow.RoleUser, "third")))

			snap, err := store.Snapshot(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, snap, 3)
			assert.Equal(t, "first", snap[0].Content)
			assert.Equal(t, "second", snap[1].Content)
			assert.Equal(t, "third", snap[2].Content)
		})
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			require.NoError(t, store.Append(ctx, "s1", turn(workflow.RoleUser, "before")))

			snap, err := store.Snapshot(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, snap, 1)

			// A later append must not leak into the earlier snapshot.
			require.NoError(t, store.Append(ctx, "s1", turn(workflow.RoleWorker, "after")))
			assert.Len(t, snap, 1)

			fresh, err := store.Snapshot(ctx, "s1")
			require.NoError(t, err)
			assert.Len(t, fresh, 2)
		})
	}
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			require.NoError(t, store.Append(ctx, "a", turn(workflow.RoleUser, "for a")))
			require.NoError(t, store.Append(ctx, "b", turn(workflow.RoleUser, "for b")))

			snapA, err := store.Snapshot(ctx, "a")
			require.NoError(t, err)
			require.Len(t, snapA, 1)
			assert.Equal(t, "for a", snapA[0].Content)

			ids, err := store.Sessions(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"a", "b"}, ids)
		})
	}
}

func TestStore_StructuredTurnData(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			rich := turn(workflow.RoleWorker, "classified")
			rich.Worker = "category-classifier"
			rich.Data = map[string]interface{}{"category": "bug", "confidence": 0.9}

			require.NoError(t, store.Append(ctx, "s1", rich))

			snap, err := store.Snapshot(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, snap, 1)
			assert.Equal(t, "category-classifier", snap[0].Worker)
			assert.Equal(t, "bug", snap[0].Data["category"])
		})
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(SQLiteConfig{Path: path, WAL: true})
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "s1", turn(workflow.RoleUser, "persisted")))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(SQLiteConfig{Path: path, WAL: true})
	require.NoError(t, err)
	defer reopened.Close()

	snap, err := reopened.Snapshot(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, "persisted", snap[0].Content)
}

func TestSQLiteStore_CorruptTimestampSurfacesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(SQLiteConfig{Path: path, WAL: true})
	require.NoError(t, err)
	defer store.Close()

	_, err = store.db.ExecContext(ctx,
		`INSERT INTO turns (session_id, seq, id, role, content, data, worker, created_at)
		 VALUES (?, ?, ?, ?, ?, NULL, '', ?)`,
		"s1", 0, "t-1", string(workflow.RoleUser), "hello", "not-a-timestamp")
	require.NoError(t, err)

	_, err = store.Snapshot(ctx, "s1")
	require.Error(t, err, "a malformed timestamp must not be silently dropped")
	assert.Contains(t, err.Error(), "timestamp")
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Append(ctx, "shared", turn(workflow.RoleWorker, fmt.Sprintf("turn %d", i)))
		}(i)
	}
	wg.Wait()

	snap, err := store.Snapshot(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, snap, 20)
}

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

package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foreman-dev/foreman/pkg/tools"
)

func newTestRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	require.NoError(t, RegisterGitHubTools(r))
	require.NoError(t, RegisterMarkdownTools(r))
	return r
}

func TestRegisterGitHubTools(t *testing.T) {
	r := newTestRegistry(t)

	for _, name := range []string{
		"github.get_pr_details",
		"github.get_pr_diff",
		"github.add_review_comment",
		"github.get_issue_details",
		"github.update_issue_labels",
		"github.get_repository_info",
		"markdown.convert_document",
	} {
		assert.True(t, r.Has(name), "missing tool %s", name)
	}
}

func TestGetPRDiff(t *testing.T) {
	r := newTestRegistry(t)

	result, err := r.Invoke(context.Background(), "github.get_pr_diff", map[string]interface{}{
		"repo":      "acme/widgets",
		"pr_number": 42,
	})
	require.NoError(t, err)
	assert.Equal(t, "acme/widgets", result["repo"])

	files, ok := result["files"].([]map[string]interface{})
	require.True(t, ok)
	require.NotEmpty(t, files)
	assert.Contains(t, files[0]["patch"], "cursor.execute")
}

func TestGetPRDiff_FloatPRNumber(t *testing.T) {
	// JSON-decoded arguments arrive as float64.
	r := newTestRegistry(t)

	result, err := r.Invoke(context.Background(), "github.get_pr_diff", map[string]interface{}{
		"repo":      "acme/widgets",
		"pr_number": float64(7),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, result["pr_number"])
}

func TestUpdateIssueLabels(t *testing.T) {
	r := newTestRegistry(t)

	result, err := r.Invoke(context.Background(), "github.update_issue_labels", map[string]interface{}{
		"repo":         "acme/widgets",
		"issue_number": 10,
		"labels":       []interface{}{"bug", "high-priority"},
	})
	require.NoError(t, err)
	assert.Equal(t, true, result["updated"])
	assert.Equal(t, []string{"bug", "high-priority"}, result["labels"])
}

func TestUpdateIssueLabels_BadLabels(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Invoke(context.Background(), "github.update_issue_labels", map[string]interface{}{
		"repo":         "acme/widgets",
		"issue_number": 10,
		"labels":       "bug",
	})
	assert.Error(t, err)
}

func TestConvertDocument(t *testing.T) {
	r := newTestRegistry(t)

	result, err := r.Invoke(context.Background(), "markdown.convert_document", map[string]interface{}{
		"content": "First paragraph.\n\nSecond paragraph.",
		"title":   "Guide",
	})
	require.NoError(t, err)

	md, ok := result["markdown"].(string)
	require.True(t, ok)
	assert.Contains(t, md, "# Guide")
	assert.Contains(t, md, "First paragraph.")
	assert.Equal(t, 2, result["paragraphs"])
}

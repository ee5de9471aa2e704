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

// Package builtin provides built-in tools for code-hosting operations.
//
// The GitHub tools return representative canned data so workflows run
// end to end without network access or credentials. Wiring them to a
// real hosting platform API is an integration concern outside the
// orchestration engine.
package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/foreman-dev/foreman/pkg/tools"
)

// RegisterGitHubTools registers the GitHub operation tools on the registry.
func RegisterGitHubTools(registry *tools.Registry) error {
	all := []tools.Tool{
		newGetPRDetailsTool(),
		newGetPRDiffTool(),
		newAddReviewCommentTool(),
		newGetIssueDetailsTool(),
		newUpdateIssueLabelsTool(),
		newGetRepositoryInfoTool(),
	}

	for _, tool := range all {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

func repoArgSchema(extra map[string]*tools.Property, required ...string) *tools.Schema {
	props := map[string]*tools.Property{
		"repo": {Type: "string", Description: `Repository name in "owner/repo" format`},
	}
	for k, v := range extra {
		props[k] = v
	}
	return &tools.Schema{
		Type:       "object",
		Properties: props,
		Required:   append([]string{"repo"}, required...),
	}
}

func stringArg(args map[string]interface{}, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s must be a non-empty string", name)
	}
	return v, nil
}

func intArg(args map[string]interface{}, name string) (int, error) {
	switch v := args[name].(type) {
	case int:
		return v, nil
	case float64:
		// JSON unmarshaling produces float64 for numbers
		return int(v), nil
	default:
		return 0, fmt.Errorf("%s must be an integer, got %T", name, args[name])
	}
}

func newGetPRDetailsTool() tools.Tool {
	return tools.NewFuncTool(
		"github.get_pr_details",
		"Get metadata for a pull request: title, author, state, branches",
		repoArgSchema(map[string]*tools.Property{
			"pr_number": {Type: "integer", Description: "Pull request number"},
		}, "pr_number"),
		func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			repo, err := stringArg(args, "repo")
			if err != nil {
				return nil, err
			}
			prNumber, err := intArg(args, "pr_number")
			if err != nil {
				return nil, err
			}

			return map[string]interface{}{
				"repo":        repo,
				"pr_number":   prNumber,
				"title":       fmt.Sprintf("Fix authentication query handling (#%d)", prNumber),
				"description": "Replaces string-built SQL with parameterized queries in the auth path.",
				"author":      "sample-dev",
				"state":       "open",
				"base_branch": "main",
				"head_branch": fmt.Sprintf("fix/auth-query-%d", prNumber),
				"created_at":  time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339),
			}, nil
		},
	)
}

func newGetPRDiffTool() tools.Tool {
	return tools.NewFuncTool(
		"github.get_pr_diff",
		"Get the changed files and patches for a pull request",
		repoArgSchema(map[string]*tools.Property{
			"pr_number": {Type: "integer", Description: "Pull request number"},
		}, "pr_number"),
		func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			repo, err := stringArg(args, "repo")
			if err != nil {
				return nil, err
			}
			prNumber, err := intArg(args, "pr_number")
			if err != nil {
				return nil, err
			}

			return map[string]interface{}{
				"repo":      repo,
				"pr_number": prNumber,
				"files": []map[string]interface{}{
					{
						"filename":  "src/auth.py",
						"additions": 2,
						"deletions": 1,
						"patch": "@@ -10,7 +10,8 @@ def authenticate(username, password):\n" +
							"-    query = f\"SELECT * FROM users WHERE name = '{username}'\"\n" +
							"+    query = \"SELECT * FROM users WHERE name = ?\"\n" +
							"+    cursor.execute(query, (username,))",
					},
					{
						"filename":  "src/app.py",
						"additions": 1,
						"deletions": 1,
						"patch":     "@@ -3,7 +3,7 @@\n-from auth import login\n+from auth import authenticate",
					},
				},
			}, nil
		},
	)
}

func newAddReviewCommentTool() tools.Tool {
	return tools.NewFuncTool(
		"github.add_review_comment",
		"Post a review comment on a pull request",
		repoArgSchema(map[string]*tools.Property{
			"pr_number": {Type: "integer", Description: "Pull request number"},
			"body":      {Type: "string", Description: "Comment body in markdown"},
		}, "pr_number", "body"),
		func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			repo, err := stringArg(args, "repo")
			if err != nil {
				return nil, err
			}
			prNumber, err := intArg(args, "pr_number")
			if err != nil {
				return nil, err
			}
			body, err := stringArg(args, "body")
			if err != nil {
				return nil, err
			}

			return map[string]interface{}{
				"repo":      repo,
				"pr_number": prNumber,
				"posted":    true,
				"length":    len(body),
			}, nil
		},
	)
}

func newGetIssueDetailsTool() tools.Tool {
	return tools.NewFuncTool(
		"github.get_issue_details",
		"Get metadata and body for an issue",
		repoArgSchema(map[string]*tools.Property{
			"issue_number": {Type: "integer", Description: "Issue number"},
		}, "issue_number"),
		func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			repo, err := stringArg(args, "repo")
			if err != nil {
				return nil, err
			}
			issueNumber, err := intArg(args, "issue_number")
			if err != nil {
				return nil, err
			}

			return map[string]interface{}{
				"repo":         repo,
				"issue_number": issueNumber,
				"title":        "Application crashes when clicking submit",
				"description":  "The application crashes when clicking the submit button on the settings form.",
				"author":       "sample-user",
				"state":        "open",
				"labels":       []string{},
				"created_at":   time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339),
			}, nil
		},
	)
}

func newUpdateIssueLabelsTool() tools.Tool {
	return tools.NewFuncTool(
		"github.update_issue_labels",
		"Replace the labels on an issue",
		repoArgSchema(map[string]*tools.Property{
			"issue_number": {Type: "integer", Description: "Issue number"},
			"labels":       {Type: "array", Description: "Label names to apply"},
		}, "issue_number", "labels"),
		func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			repo, err := stringArg(args, "repo")
			if err != nil {
				return nil, err
			}
			issueNumber, err := intArg(args, "issue_number")
			if err != nil {
				return nil, err
			}

			labels, ok := args["labels"].([]interface{})
			if !ok {
				if typed, tok := args["labels"].([]string); tok {
					labels = make([]interface{}, len(typed))
					for i, l := range typed {
						labels[i] = l
					}
				} else {
					return nil, fmt.Errorf("labels must be an array of strings, got %T", args["labels"])
				}
			}

			applied := make([]string, 0, len(labels))
			for _, l := range labels {
				s, sok := l.(string)
				if !sok {
					return nil, fmt.Errorf("labels must be an array of strings")
				}
				applied = append(applied, s)
			}

			return map[string]interface{}{
				"repo":         repo,
				"issue_number": issueNumber,
				"labels":       applied,
				"updated":      true,
			}, nil
		},
	)
}

func newGetRepositoryInfoTool() tools.Tool {
	return tools.NewFuncTool(
		"github.get_repository_info",
		"Get repository metadata: description, language, open counts",
		repoArgSchema(nil),
		func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			repo, err := stringArg(args, "repo")
			if err != nil {
				return nil, err
			}

			return map[string]interface{}{
				"repo":        repo,
				"description": "A sample repository for workflow testing",
				"language":    "Go",
				"open_issues": 7,
				"open_prs":    2,
				"default_branch": "main",
			}, nil
		},
	)
}

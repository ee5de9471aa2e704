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
	"fmt"
	"strings"

	"github.com/foreman-dev/foreman/pkg/tools"
)

// RegisterMarkdownTools registers the document conversion tool.
func RegisterMarkdownTools(registry *tools.Registry) error {
	return registry.Register(newConvertDocumentTool())
}

// newConvertDocumentTool converts plain text content into markdown suitable
// for documentation workflows. Paragraph breaks become markdown paragraphs
// and a title argument becomes a top-level heading.
func newConvertDocumentTool() tools.Tool {
	schema := &tools.Schema{
		Type: "object",
		Properties: map[string]*tools.Property{
			"content": {Type: "string", Description: "Plain text content to convert"},
			"title":   {Type: "string", Description: "Optional document title"},
		},
		Required: []string{"content"},
	}

	return tools.NewFuncTool(
		"markdown.convert_document",
		"Convert plain text content into markdown",
		schema,
		func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			content, ok := args["content"].(string)
			if !ok {
				return nil, fmt.Errorf("content must be a string, got %T", args["content"])
			}

			var b strings.Builder
			if title, tok := args["title"].(string); tok && title != "" {
				fmt.Fprintf(&b, "# %s\n\n", title)
			}

			paragraphs := strings.Split(strings.TrimSpace(content), "\n\n")
			for i, para := range paragraphs {
				b.WriteString(strings.TrimSpace(para))
				if i < len(paragraphs)-1 {
					b.WriteString("\n\n")
				}
			}

			return map[string]interface{}{
				"markdown":   b.String(),
				"paragraphs": len(paragraphs),
			}, nil
		},
	)
}

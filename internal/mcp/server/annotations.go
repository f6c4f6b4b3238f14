// Copyright 2025 Tom Barlow
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

package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ciscops/cml-mcp-gateway/internal/gateway"
)

// registerAnnotationTools registers lab-canvas annotation tools (text,
// shapes, and similar non-functional topology decorations).
func (s *Server) registerAnnotationTools() {
	s.registerTool(
		mcp.NewTool("cml_create_annotation",
			mcp.WithDescription("Add a canvas annotation (e.g. a text label or shape) to a lab."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithString("type", mcp.Required(), mcp.Description("Annotation type, e.g. text, rectangle, ellipse.")),
			mcp.WithIdempotentHintAnnotation(false),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				annotationType, err := stringArg(input, "type")
				if err != nil {
					return nil, err
				}
				body := bodyArg(input, "properties")
				if m, ok := body.(map[string]any); ok {
					m["type"] = annotationType
				}
				var annotation any
				if err := client.Post(ctx, fmt.Sprintf("/labs/%s/annotations", labID), body, &annotation); err != nil {
					return nil, err
				}
				return annotation, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_delete_annotation",
			mcp.WithDescription("Remove a canvas annotation from a lab."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithString("annotation_id", mcp.Required(), mcp.Description("The annotation's UUID.")),
			mcp.WithDestructiveHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Destructive:    true,
			ConfirmMessage: "This will permanently remove the annotation from the lab.",
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				annotationID, err := stringArg(input, "annotation_id")
				if err != nil {
					return nil, err
				}
				if err := client.Delete(ctx, fmt.Sprintf("/labs/%s/annotations/%s", labID, annotationID), nil); err != nil {
					return nil, err
				}
				return map[string]string{"annotation_id": annotationID, "state": "deleted"}, nil
			},
		},
	)
}

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

// registerLabTools registers the lab lifecycle tools: list, show, create,
// start, stop, wipe, and delete.
func (s *Server) registerLabTools() {
	s.registerTool(
		mcp.NewTool("cml_list_labs",
			mcp.WithDescription("List labs visible to the authenticated user."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				var labs []string
				if err := client.Get(ctx, "/labs", &labs); err != nil {
					return nil, err
				}
				return labs, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_show_lab",
			mcp.WithDescription("Show details for one lab."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				var lab any
				if err := client.Get(ctx, fmt.Sprintf("/labs/%s", labID), &lab); err != nil {
					return nil, err
				}
				return lab, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_create_lab",
			mcp.WithDescription("Create a new, empty lab."),
			mcp.WithString("title", mcp.Description("Lab title.")),
			mcp.WithString("description", mcp.Description("Lab description.")),
			mcp.WithIdempotentHintAnnotation(false),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				body := map[string]any{
					"title":       optionalStringArg(input, "title"),
					"description": optionalStringArg(input, "description"),
				}
				var lab any
				if err := client.Post(ctx, "/labs", body, &lab); err != nil {
					return nil, err
				}
				return lab, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_start_lab",
			mcp.WithDescription("Start every node and link in a lab."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithIdempotentHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				if err := client.Put(ctx, fmt.Sprintf("/labs/%s/start", labID), nil, nil); err != nil {
					return nil, err
				}
				return map[string]string{"lab_id": labID, "state": "started"}, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_stop_lab",
			mcp.WithDescription("Stop every node and link in a lab."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Destructive:    true,
			ConfirmMessage: "This will stop every running node and link in the lab.",
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				if err := client.Put(ctx, fmt.Sprintf("/labs/%s/stop", labID), nil, nil); err != nil {
					return nil, err
				}
				return map[string]string{"lab_id": labID, "state": "stopped"}, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_wipe_lab",
			mcp.WithDescription("Stop and remove all node configuration/state from a lab, keeping its topology."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithDestructiveHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Destructive:    true,
			ConfirmMessage: "This will wipe all node state in the lab. This cannot be undone.",
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				if err := client.Put(ctx, fmt.Sprintf("/labs/%s/wipe", labID), nil, nil); err != nil {
					return nil, err
				}
				return map[string]string{"lab_id": labID, "state": "wiped"}, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_delete_lab",
			mcp.WithDescription("Permanently delete a lab and everything in it."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithDestructiveHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Destructive:    true,
			ConfirmMessage: "This will permanently delete the lab and all of its nodes, links, and configuration.",
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				if err := client.Delete(ctx, fmt.Sprintf("/labs/%s", labID), nil); err != nil {
					return nil, err
				}
				return map[string]string{"lab_id": labID, "state": "deleted"}, nil
			},
		},
	)
}

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

// registerNodeTools registers per-node operations within a lab.
func (s *Server) registerNodeTools() {
	s.registerTool(
		mcp.NewTool("cml_list_nodes",
			mcp.WithDescription("List the nodes in a lab."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				var nodes []string
				if err := client.Get(ctx, fmt.Sprintf("/labs/%s/nodes", labID), &nodes); err != nil {
					return nil, err
				}
				return nodes, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_show_node",
			mcp.WithDescription("Show details for one node in a lab."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithString("node_id", mcp.Required(), mcp.Description("The node's UUID.")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				nodeID, err := stringArg(input, "node_id")
				if err != nil {
					return nil, err
				}
				var node any
				if err := client.Get(ctx, fmt.Sprintf("/labs/%s/nodes/%s", labID, nodeID), &node); err != nil {
					return nil, err
				}
				return node, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_create_node",
			mcp.WithDescription("Add a node to a lab."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithString("label", mcp.Required(), mcp.Description("Node label.")),
			mcp.WithString("node_definition", mcp.Required(), mcp.Description("Node definition id, e.g. iosv or ubuntu.")),
			mcp.WithIdempotentHintAnnotation(false),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				label, err := stringArg(input, "label")
				if err != nil {
					return nil, err
				}
				nodeDef, err := stringArg(input, "node_definition")
				if err != nil {
					return nil, err
				}
				body := map[string]any{"label": label, "node_definition": nodeDef}
				var node any
				if err := client.Post(ctx, fmt.Sprintf("/labs/%s/nodes", labID), body, &node); err != nil {
					return nil, err
				}
				return node, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_delete_node",
			mcp.WithDescription("Remove a node and its links from a lab."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithString("node_id", mcp.Required(), mcp.Description("The node's UUID.")),
			mcp.WithDestructiveHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Destructive:    true,
			ConfirmMessage: "This will remove the node and every link attached to it.",
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				nodeID, err := stringArg(input, "node_id")
				if err != nil {
					return nil, err
				}
				if err := client.Delete(ctx, fmt.Sprintf("/labs/%s/nodes/%s", labID, nodeID), nil); err != nil {
					return nil, err
				}
				return map[string]string{"node_id": nodeID, "state": "deleted"}, nil
			},
		},
	)
}

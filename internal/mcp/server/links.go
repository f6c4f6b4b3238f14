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

// registerLinkTools registers link and interface listing tools.
func (s *Server) registerLinkTools() {
	s.registerTool(
		mcp.NewTool("cml_list_links",
			mcp.WithDescription("List the links in a lab."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				var links []string
				if err := client.Get(ctx, fmt.Sprintf("/labs/%s/links", labID), &links); err != nil {
					return nil, err
				}
				return links, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_list_interfaces",
			mcp.WithDescription("List the interfaces of a node in a lab."),
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
				var interfaces []string
				if err := client.Get(ctx, fmt.Sprintf("/labs/%s/nodes/%s/interfaces", labID, nodeID), &interfaces); err != nil {
					return nil, err
				}
				return interfaces, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_create_link",
			mcp.WithDescription("Connect two node interfaces with a link."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithString("src_int", mcp.Required(), mcp.Description("Source interface UUID.")),
			mcp.WithString("dst_int", mcp.Required(), mcp.Description("Destination interface UUID.")),
			mcp.WithIdempotentHintAnnotation(false),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				srcInt, err := stringArg(input, "src_int")
				if err != nil {
					return nil, err
				}
				dstInt, err := stringArg(input, "dst_int")
				if err != nil {
					return nil, err
				}
				body := map[string]any{"src_int": srcInt, "dst_int": dstInt}
				var link any
				if err := client.Post(ctx, fmt.Sprintf("/labs/%s/links", labID), body, &link); err != nil {
					return nil, err
				}
				return link, nil
			},
		},
	)
}

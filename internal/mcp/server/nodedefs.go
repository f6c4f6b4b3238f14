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

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ciscops/cml-mcp-gateway/internal/gateway"
)

// registerNodeDefinitionTools registers the node definition catalog tool,
// letting a caller discover which node types the controller can instantiate
// before calling cml_create_node.
func (s *Server) registerNodeDefinitionTools() {
	s.registerTool(
		mcp.NewTool("cml_list_node_definitions",
			mcp.WithDescription("List node definitions (node types) available on the controller."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				var defs []string
				if err := client.Get(ctx, "/node_definitions", &defs); err != nil {
					return nil, err
				}
				return defs, nil
			},
		},
	)
}

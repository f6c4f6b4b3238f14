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

// registerTopologyTools registers the topology import tool, letting a
// caller create a whole lab from a CML YAML topology document in one call.
func (s *Server) registerTopologyTools() {
	s.registerTool(
		mcp.NewTool("cml_import_topology",
			mcp.WithDescription("Create a new lab from a CML topology document."),
			mcp.WithString("topology", mcp.Required(), mcp.Description("The topology, as CML YAML or JSON text.")),
			mcp.WithIdempotentHintAnnotation(false),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				topology, err := stringArg(input, "topology")
				if err != nil {
					return nil, err
				}
				var lab any
				if err := client.Post(ctx, "/import", topology, &lab); err != nil {
					return nil, err
				}
				return lab, nil
			},
		},
	)
}

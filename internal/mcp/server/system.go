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

// registerSystemTools registers read-only controller introspection tools:
// health, resource stats, version info, and licensing.
func (s *Server) registerSystemTools() {
	s.registerTool(
		mcp.NewTool("cml_system_health",
			mcp.WithDescription("Report the controller's overall health."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				var health any
				if err := client.Get(ctx, "/system_health", &health); err != nil {
					return nil, err
				}
				return health, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_system_stats",
			mcp.WithDescription("Report controller CPU, memory, and disk usage."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				var stats any
				if err := client.Get(ctx, "/system_stats", &stats); err != nil {
					return nil, err
				}
				return stats, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_system_info",
			mcp.WithDescription("Report controller version and build information."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				var info any
				if err := client.Get(ctx, "/system_information", &info); err != nil {
					return nil, err
				}
				return info, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_licensing",
			mcp.WithDescription("Report the controller's current licensing status."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				var licensing any
				if err := client.Get(ctx, "/licensing", &licensing); err != nil {
					return nil, err
				}
				return licensing, nil
			},
		},
	)
}

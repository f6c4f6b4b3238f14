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

// registerPcapTools registers packet capture start/stop tools against a
// node interface.
func (s *Server) registerPcapTools() {
	s.registerTool(
		mcp.NewTool("cml_start_pcap",
			mcp.WithDescription("Start a packet capture on a node's interface."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithString("interface_id", mcp.Required(), mcp.Description("The interface's UUID.")),
			mcp.WithIdempotentHintAnnotation(false),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				interfaceID, err := stringArg(input, "interface_id")
				if err != nil {
					return nil, err
				}
				var capture any
				if err := client.Put(ctx, fmt.Sprintf("/labs/%s/interfaces/%s/start_capture", labID, interfaceID), nil, &capture); err != nil {
					return nil, err
				}
				return capture, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_stop_pcap",
			mcp.WithDescription("Stop a packet capture on a node's interface."),
			mcp.WithString("lab_id", mcp.Required(), mcp.Description("The lab's UUID.")),
			mcp.WithString("interface_id", mcp.Required(), mcp.Description("The interface's UUID.")),
			mcp.WithIdempotentHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				labID, err := stringArg(input, "lab_id")
				if err != nil {
					return nil, err
				}
				interfaceID, err := stringArg(input, "interface_id")
				if err != nil {
					return nil, err
				}
				if err := client.Put(ctx, fmt.Sprintf("/labs/%s/interfaces/%s/stop_capture", labID, interfaceID), nil, nil); err != nil {
					return nil, err
				}
				return map[string]string{"interface_id": interfaceID, "state": "stopped"}, nil
			},
		},
	)
}

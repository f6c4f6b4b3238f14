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

// Package server builds the MCP server exposing the CML tool catalog,
// wiring the ACL filter (C6) around every registration and every dispatch.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ciscops/cml-mcp-gateway/internal/acl"
	"github.com/ciscops/cml-mcp-gateway/internal/gateway"
	gwerrors "github.com/ciscops/cml-mcp-gateway/pkg/errors"
	"github.com/ciscops/cml-mcp-gateway/pkg/tools/approval"
)

// Server wraps mcp-go's MCPServer and registers the CML tool catalog.
type Server struct {
	mcpServer       *server.MCPServer
	acl             *acl.List
	fallback        approval.Approver
	contextInjector func(ctx context.Context) (context.Context, error)
	name            string
	version         string
	logger          *slog.Logger
}

// Config configures the MCP server.
type Config struct {
	Name    string
	Version string
	ACL     *acl.List

	// ConfirmFallback is consulted when a destructive tool's elicitation
	// request can't be answered by the connected MCP client. Nil in most
	// deployments (graceful degradation applies).
	ConfirmFallback approval.Approver

	// ContextInjector installs the request-scoped Upstream Client into ctx
	// before every tool call. HTTP transport does this per-request in
	// gateway.Middleware instead and leaves this nil; stdio transport has
	// no per-request headers to drive leasing, so it supplies one here to
	// lease its single fixed client.
	ContextInjector func(ctx context.Context) (context.Context, error)

	Logger *slog.Logger
}

// New constructs a Server with the full CML tool catalog registered, wired
// behind the ACL filter at both list-tools and call-tool.
func New(cfg Config) *Server {
	if cfg.Name == "" {
		cfg.Name = "cml-mcp-gateway"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.ACL == nil {
		cfg.ACL = acl.New(cfg.Logger)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(cfg.Name, cfg.Version,
		server.WithToolCapabilities(true),
		server.WithToolFilter(func(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
			username := gateway.UsernameFromContext(ctx)
			names := make([]string, len(tools))
			for i, t := range tools {
				names[i] = t.Name
			}
			allowed := make(map[string]bool, len(names))
			for _, n := range cfg.ACL.FilterTools(names, username) {
				allowed[n] = true
			}
			out := make([]mcp.Tool, 0, len(tools))
			for _, t := range tools {
				if allowed[t.Name] {
					out = append(out, t)
				}
			}
			return out
		}),
	)

	s := &Server{
		mcpServer:       mcpServer,
		acl:             cfg.ACL,
		fallback:        cfg.ConfirmFallback,
		contextInjector: cfg.ContextInjector,
		name:            cfg.Name,
		version:         cfg.Version,
		logger:          cfg.Logger,
	}

	s.registerCatalog()
	return s
}

// registerTool adds one tool to the MCP server, guarding its handler with
// the ACL decision function (C6) before the Tool Dispatch Shell (C8) ever
// runs.
func (s *Server) registerTool(tool mcp.Tool, opts gateway.DispatchOptions) {
	if opts.ConfirmFallback == nil {
		opts.ConfirmFallback = s.fallback
	}
	name := tool.Name

	s.mcpServer.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if s.contextInjector != nil {
			injected, err := s.contextInjector(ctx)
			if err != nil {
				return mcp.NewToolResultError("failed to establish upstream session: " + err.Error()), nil
			}
			ctx = injected
		}

		username := gateway.UsernameFromContext(ctx)
		if !s.acl.Allowed(name, username) {
			return mcp.NewToolResultError((&gwerrors.ACLError{User: username, Tool: name}).Error()), nil
		}
		return gateway.Dispatch(ctx, name, req, opts)
	})
}

// requireAdmin wraps handler so it only runs for CML admin users, resolved
// via the leased client's IsAdmin (C2), per the admin-gating supplement.
func requireAdmin(handler gateway.HandlerFunc) gateway.HandlerFunc {
	return func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
		isAdmin, err := client.IsAdmin(ctx)
		if err != nil {
			return nil, err
		}
		if !isAdmin {
			return nil, fmt.Errorf("this operation requires CML admin privileges")
		}
		return handler(ctx, client, input)
	}
}

// MCPServer exposes the underlying mcp-go server for transport wiring in
// cmd/cml-mcp-gateway.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// HTTPHandler returns the streamable-HTTP transport handler for s, to be
// wrapped by the ingress middleware (gateway.Middleware) by the caller.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer)
}

// ServeStdio runs s over the stdio transport until mcp-go's stdio server
// returns. ctx is not passed to that server; cancelling it does not stop it.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("starting cml-mcp-gateway", "transport", "stdio", "version", s.version)
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("mcp stdio server: %w", err)
	}
	return nil
}

// healthPayload is the body of the unauthenticated /health endpoint.
type healthPayload struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// HealthHandler serves the gateway's liveness check.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(healthPayload{Status: "healthy", Service: "cml-mcp"})
	})
}

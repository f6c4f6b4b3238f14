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

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ciscops/cml-mcp-gateway/internal/acl"
	"github.com/ciscops/cml-mcp-gateway/internal/config"
	"github.com/ciscops/cml-mcp-gateway/internal/gateway"
	applog "github.com/ciscops/cml-mcp-gateway/internal/log"
	mcpserver "github.com/ciscops/cml-mcp-gateway/internal/mcp/server"
	gwerrors "github.com/ciscops/cml-mcp-gateway/pkg/errors"
	"github.com/ciscops/cml-mcp-gateway/pkg/tools/approval"
)

// NewServeCommand starts the gateway over stdio or HTTP, per the resolved
// configuration's transport.
func NewServeCommand() *cobra.Command {
	var (
		configPath string
		unattended bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the CML MCP gateway",
		Long: `Start the CML MCP gateway.

In stdio transport, the gateway brokers every tool call to a single,
fixed CML server using the credentials in its configuration: suitable for
running as a single user's local MCP server process.

In http transport, the gateway brokers each request to the CML server
named in that request's own X-CML-Server-URL and X-Authorization headers,
pooling upstream clients across concurrent callers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, unattended)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	cmd.Flags().BoolVar(&unattended, "unattended", false, "Disable the interactive CLI approval fallback for destructive tools")

	return cmd
}

func runServe(cmd *cobra.Command, configPath string, unattended bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return gwerrors.Wrap(err, "loading configuration")
	}

	logger := applog.New(&cfg.Log)

	aclList := acl.New(logger)
	if cfg.ACLFile != "" {
		if err := aclList.Load(cfg.ACLFile); err != nil {
			return gwerrors.Wrap(err, "loading acl file")
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	if cfg.ACLFile != "" {
		if err := aclList.Watch(ctx, cfg.ACLFile); err != nil {
			logger.Warn("acl hot-reload disabled", "error", err)
		}
	}

	switch cfg.Transport {
	case config.TransportStdio:
		// The interactive CLI approver reads from os.Stdin on the calling
		// goroutine: only safe for stdio transport, where a single operator
		// owns the terminal. Wiring it into the http path would block (or
		// auto-deny via EOF) inside a request-handling goroutine with no
		// attached terminal, so http never receives a fallback approver.
		var fallback approval.Approver
		if !unattended {
			fallback = approval.NewCLIApprover()
		}
		return serveStdio(ctx, cfg, aclList, fallback, logger)
	case config.TransportHTTP:
		return serveHTTP(ctx, cfg, aclList, logger)
	default:
		return fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
}

func serveStdio(ctx context.Context, cfg *config.Config, aclList *acl.List, fallback approval.Approver, logger *slog.Logger) error {
	client, err := gateway.NewClient(cfg.DefaultURL, cfg.DefaultUsername, cfg.DefaultPassword, cfg.TLSVerification, gateway.TransportStdio, logger)
	if err != nil {
		return fmt.Errorf("building upstream client: %w", err)
	}
	pool := gateway.NewStdioPool(client)
	defer pool.CloseAll()

	srv := mcpserver.New(mcpserver.Config{
		Name:            "cml-mcp-gateway",
		Version:         buildVersion,
		ACL:             aclList,
		ConfirmFallback: fallback,
		Logger:          logger,
		ContextInjector: func(ctx context.Context) (context.Context, error) {
			return gateway.StdioContext(ctx, pool, cfg.DefaultURL, cfg.DefaultUsername, cfg.DefaultPassword, cfg.TLSVerification, logger)
		},
	})

	return srv.ServeStdio(ctx)
}

func serveHTTP(ctx context.Context, cfg *config.Config, aclList *acl.List, logger *slog.Logger) error {
	policy := gateway.Policy{
		AllowList:        cfg.AllowList,
		RequireClientURL: cfg.RequireClientURL,
	}
	if pattern, err := cfg.CompiledAllowPattern(); err != nil {
		// A malformed allow_pattern is a config error, not a fatal one: log
		// it and continue with no pattern rather than abort startup, per
		// the same tolerant-config posture acl.List.Load uses for a
		// malformed ACL file.
		logger.Error("invalid allow_pattern; continuing without a pattern gate", "error", err)
	} else {
		policy.Pattern = pattern
	}

	pool := gateway.NewPool(gateway.PoolConfig{
		MaxSize:   cfg.PoolMaxSize,
		TTL:       cfg.TTL(),
		MaxPerKey: cfg.PoolMaxPerKey,
		Policy:    policy,
	}, logger)
	defer pool.CloseAll()

	registry := prometheus.NewRegistry()
	metrics := gateway.NewPoolMetrics(registry)
	stop := make(chan struct{})
	defer close(stop)
	go metrics.Watch(pool, 15*time.Second, stop)

	srv := mcpserver.New(mcpserver.Config{
		Name:    "cml-mcp-gateway",
		Version: buildVersion,
		ACL:     aclList,
		// No ConfirmFallback here: the http transport serves many concurrent
		// callers with no attached terminal, so a destructive tool's
		// elicitation failure degrades to unconditional proceed rather than
		// consulting an interactive approver.
		Logger: logger,
	})

	mux := http.NewServeMux()
	mux.Handle("/mcp", gateway.Middleware(gateway.MiddlewareConfig{
		Pool:       pool,
		DefaultURL: cfg.DefaultURL,
		Logger:     logger,
	}, srv.HTTPHandler()))
	mux.Handle("/health", mcpserver.HealthHandler())
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error during http shutdown", "error", err)
		}
	}()

	logger.Info("starting cml-mcp-gateway", "transport", "http", "addr", cfg.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

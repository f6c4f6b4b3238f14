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

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	applog "github.com/ciscops/cml-mcp-gateway/internal/log"
	gwerrors "github.com/ciscops/cml-mcp-gateway/pkg/errors"
	"github.com/ciscops/cml-mcp-gateway/pkg/tools/approval"
)

// Verb is an upstream HTTP verb a tool handler calls through the leased
// client. It mirrors Client's Get/Post/Put/Patch/Delete signatures so a
// handler can be written as "call this verb against this path with this
// body" without repeating context retrieval and error translation.
type Verb func(ctx context.Context, client *Client, path string, body any, out any) error

// GetVerb, PostVerb, PutVerb, PatchVerb, and DeleteVerb adapt Client's verb
// methods to the Verb shape for use with Dispatch.
var (
	GetVerb    Verb = func(ctx context.Context, c *Client, path string, _ any, out any) error { return c.Get(ctx, path, out) }
	PostVerb   Verb = func(ctx context.Context, c *Client, path string, body any, out any) error { return c.Post(ctx, path, body, out) }
	PutVerb    Verb = func(ctx context.Context, c *Client, path string, body any, out any) error { return c.Put(ctx, path, body, out) }
	PatchVerb  Verb = func(ctx context.Context, c *Client, path string, body any, out any) error { return c.Patch(ctx, path, body, out) }
	DeleteVerb Verb = func(ctx context.Context, c *Client, path string, _ any, out any) error { return c.Delete(ctx, path, out) }
)

// HandlerFunc is the shape every CML tool's business logic implements: given
// the leased upstream client and the already-schema-validated input, perform
// one or more upstream calls and return the result to be reshaped into the
// tool's output schema.
type HandlerFunc func(ctx context.Context, client *Client, input map[string]any) (any, error)

// DispatchOptions configures one tool's invocation through the shell.
type DispatchOptions struct {
	// Destructive tools run the elicitation interlock before Handler.
	Destructive bool

	// ConfirmMessage is shown to the caller's MCP client when Destructive is
	// set. Required when Destructive is true.
	ConfirmMessage string

	// ConfirmFallback, if set, is consulted when the caller's MCP client
	// cannot be asked to confirm at all (no elicitation support, or
	// disconnected). Typically nil in production; set to a CLI approver for
	// a stdio deployment operated interactively at a terminal.
	ConfirmFallback approval.Approver

	Handler HandlerFunc
}

// Dispatch implements the Tool Dispatch Shell (C8): it retrieves the leased
// client from the request context, runs the elicitation interlock for
// destructive tools, invokes the handler, and translates any error into an
// MCP tool result rather than a transport-level failure.
func Dispatch(ctx context.Context, tool string, req mcp.CallToolRequest, opts DispatchOptions) (*mcp.CallToolResult, error) {
	start := time.Now()
	logger := LoggerFromContext(ctx, applog.New(applog.DefaultConfig()))
	logger = applog.WithTool(logger, tool)

	client, err := ClientFromContext(ctx)
	if err != nil {
		// A missing client here is a programmer error (the middleware did
		// not run, or ran and failed to install one) rather than an
		// expected runtime condition.
		logger.Error("dispatch called with no upstream client in context", "error", err)
		return mcp.NewToolResultError("internal error: no upstream client available"), nil
	}

	input := req.GetArguments()

	if opts.Destructive {
		if err := Confirm(ctx, tool, opts.ConfirmMessage, input, opts.ConfirmFallback); err != nil {
			var cancelErr *gwerrors.CancelError
			if gwerrors.As(err, &cancelErr) {
				logger.Info("destructive tool call cancelled by user")
				return mcp.NewToolResultError(cancelErr.Error()), nil
			}
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	result, err := opts.Handler(ctx, client, input)
	duration := time.Since(start)

	if err != nil {
		logger.Warn("tool call failed", "error", err, "duration_ms", duration.Milliseconds())
		return mcp.NewToolResultError(translateError(err)), nil
	}

	logger.Debug("tool call completed", "duration_ms", duration.Milliseconds())

	payload, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError("failed to encode tool result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// translateError converts an internal error into a caller-facing message.
// Any error implementing gwerrors.UserVisibleError contributes its
// UserMessage and, if present, its Suggestion; everything else collapses to
// its plain Error() string.
func translateError(err error) string {
	var visible gwerrors.UserVisibleError
	if gwerrors.As(err, &visible) && visible.IsUserVisible() {
		if suggestion := visible.Suggestion(); suggestion != "" {
			return fmt.Sprintf("%s (%s)", visible.UserMessage(), suggestion)
		}
		return visible.UserMessage()
	}
	return err.Error()
}

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

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ciscops/cml-mcp-gateway/pkg/tools/approval"
	gwerrors "github.com/ciscops/cml-mcp-gateway/pkg/errors"
)

// Confirm runs the elicitation interlock required before a destructive tool
// acts: it asks the connected MCP client to confirm, and reports whether the
// caller's action should proceed.
//
// Per the interlock contract: an explicit "accept" proceeds; any other
// explicit action (decline, cancel) aborts with a *gwerrors.CancelError.
//
// A client that cannot elicit at all (older client, stateless transport, or
// already disconnected) cannot be reliably asked, so this falls back to
// fallback if one is configured (e.g. a CLI prompt for an operator running
// the stdio transport at a terminal); with no fallback it proceeds without
// confirmation, per spec.
//
// All knowledge of the underlying MCP elicitation wire shape lives in this
// one file so that a library version bump only needs a review here.
func Confirm(ctx context.Context, tool, description string, input map[string]any, fallback approval.Approver) error {
	if ok, err := tryMCPElicit(ctx, tool, description); ok {
		if err != nil {
			return err
		}
		return nil
	}

	if fallback == nil {
		return nil
	}
	approved, err := fallback.Approve(ctx, tool, description, input)
	if err != nil {
		return nil // fallback itself failed; degrade rather than block the call
	}
	if !approved {
		return &gwerrors.CancelError{Tool: tool}
	}
	return nil
}

// tryMCPElicit attempts the MCP elicitation handshake. Its first return
// value reports whether the client actually answered (accept or any other
// explicit action); false means the client does not support elicitation or
// the transport failed, and the caller should fall back.
func tryMCPElicit(ctx context.Context, tool, message string) (bool, error) {
	session := server.ClientSessionFromContext(ctx)
	if session == nil {
		return false, nil
	}

	elicitor, ok := session.(elicitationSession)
	if !ok {
		return false, nil
	}

	result, err := elicitor.RequestElicitation(ctx, mcp.ElicitationParams{
		Message:         message,
		RequestedSchema: mcp.ElicitationRequestedSchema{Type: "object"},
	})
	if err != nil {
		// METHOD_NOT_FOUND / INVALID_REQUEST mean the client doesn't speak
		// elicitation at all; any other error here means the transport
		// itself failed (disconnected client, closed stream). Both are
		// "didn't answer", not "answered no".
		return false, nil
	}

	if result.Action == mcp.ElicitationResponseActionAccept {
		return true, nil
	}
	return true, &gwerrors.CancelError{Tool: tool}
}

// elicitationSession is the subset of mcp-go's client session interface this
// package depends on. Isolated here so the rest of the package never
// references mcp-go's session type directly.
type elicitationSession interface {
	RequestElicitation(ctx context.Context, params mcp.ElicitationParams) (*mcp.ElicitationResult, error)
}

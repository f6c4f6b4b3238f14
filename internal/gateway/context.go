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
	"fmt"
	"log/slog"
)

// AuxCredentials holds the optional pyATS primary credentials and enable
// password parsed from X-PyATS-Authorization / X-PyATS-Enable. Tools that
// shell out to device-automation paths read these; the gateway core never
// inspects their contents beyond carrying them.
type AuxCredentials struct {
	Username string
	Password string
	Enable   string
}

// requestState is the per-request carrier installed by the ingress
// middleware and retrieved by tool handlers via the dispatch shell. Go has
// no cooperative task-local storage, so it is threaded explicitly through
// context.Context rather than held in a package-level contextvar-equivalent:
// the contract (one state per in-flight request, cleared on every exit path)
// is what matters, not the mechanism.
type requestState struct {
	client    *Client
	url       string
	tlsVerify bool
	aux       *AuxCredentials
	username  string
	logger    *slog.Logger
}

type requestStateKey struct{}

// withRequestState installs state into ctx, returning the derived context.
func withRequestState(ctx context.Context, state *requestState) context.Context {
	return context.WithValue(ctx, requestStateKey{}, state)
}

// requestStateFrom retrieves the state installed by withRequestState, or nil
// if none is present (a request that never went through the ingress
// middleware, e.g. a bug in wiring rather than an expected runtime case).
func requestStateFrom(ctx context.Context) *requestState {
	state, _ := ctx.Value(requestStateKey{}).(*requestState)
	return state
}

// ClientFromContext retrieves the leased Upstream Client installed for this
// request. Every tool handler calls this first; a missing client is a
// programmer error, never an expected runtime condition, since the ingress
// middleware always installs one before invoking the inner MCP dispatch.
func ClientFromContext(ctx context.Context) (*Client, error) {
	state := requestStateFrom(ctx)
	if state == nil || state.client == nil {
		return nil, fmt.Errorf("gateway: no upstream client in request context")
	}
	return state.client, nil
}

// AuxCredentialsFromContext retrieves the optional pyATS credential triple
// for this request, if the caller supplied one.
func AuxCredentialsFromContext(ctx context.Context) *AuxCredentials {
	state := requestStateFrom(ctx)
	if state == nil {
		return nil
	}
	return state.aux
}

// UsernameFromContext retrieves the authenticated caller's username, as
// parsed from X-Authorization. Used by the ACL filter and by log fields.
func UsernameFromContext(ctx context.Context) string {
	state := requestStateFrom(ctx)
	if state == nil {
		return ""
	}
	return state.username
}

// LoggerFromContext retrieves the per-request logger installed by the
// ingress middleware (pre-bound with the caller's username and the
// normalized upstream URL), or fallback if no request state is present.
func LoggerFromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	state := requestStateFrom(ctx)
	if state == nil || state.logger == nil {
		return fallback
	}
	return state.logger
}

// clear detaches the client reference from the request state. Called by the
// middleware's finalization block so that no reference to the leased client
// survives past release, per the "no post-release references" invariant.
func (s *requestState) clear() {
	s.client = nil
	s.aux = nil
}

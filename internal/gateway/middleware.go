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
	"bytes"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	applog "github.com/ciscops/cml-mcp-gateway/internal/log"
	gwerrors "github.com/ciscops/cml-mcp-gateway/pkg/errors"
)

// MiddlewareConfig configures the ingress middleware.
type MiddlewareConfig struct {
	// Pool leases and releases Upstream Clients; either a *Pool (http
	// transport) or a *StdioPool (stdio transport).
	Pool Leaser

	// DefaultURL is used when the caller omits X-CML-Server-URL. Empty
	// means no default: a missing header always fails MISSING_TARGET.
	DefaultURL string

	Logger *slog.Logger
}

// Middleware wraps an MCP transport handler with the ingress pipeline:
// header parsing, the policy gate (via Pool.Lease), request-scoped client
// installation, and guaranteed release on every exit path.
func Middleware(cfg MiddlewareConfig, next http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			writeRPCError(w, nil, CodeMissingTarget, "unable to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		requestID := peekRequestID(bodyBytes)

		targetURL := r.Header.Get("X-CML-Server-URL")
		if targetURL == "" {
			targetURL = cfg.DefaultURL
		}
		if targetURL == "" {
			writeRPCError(w, requestID, CodeMissingTarget, "missing X-CML-Server-URL header and no default configured")
			return
		}

		tlsVerify := strings.EqualFold(r.Header.Get("X-CML-Verify-SSL"), "true")

		username, password, err := parseBasicHeader(r.Header.Get("X-Authorization"))
		if err != nil {
			writeRPCError(w, requestID, CodeUnauthorizedBadHeader, "invalid X-Authorization header: "+err.Error())
			return
		}

		aux := &AuxCredentials{}
		if raw := r.Header.Get("X-PyATS-Authorization"); raw != "" {
			auxUser, auxPass, err := parseBasicHeader(raw)
			if err != nil {
				writeRPCError(w, requestID, CodeUnauthorizedBadHeader, "invalid X-PyATS-Authorization header: "+err.Error())
				return
			}
			aux.Username, aux.Password = auxUser, auxPass
		}
		if raw := r.Header.Get("X-PyATS-Enable"); raw != "" {
			enable, err := decodeBasicPayload(raw)
			if err != nil {
				writeRPCError(w, requestID, CodeUnauthorizedBadHeader, "invalid X-PyATS-Enable header: "+err.Error())
				return
			}
			aux.Enable = enable
		}

		ctx := r.Context()
		client, err := cfg.Pool.Lease(ctx, targetURL, username, password, tlsVerify)
		if err != nil {
			code, msg := classifyLeaseError(err)
			writeRPCError(w, requestID, code, msg)
			return
		}

		normalized, _ := Normalize(targetURL)
		released := false
		release := func() {
			if released {
				return
			}
			released = true
			cfg.Pool.Release(normalized, tlsVerify)
		}
		defer release()

		if err := client.Login(ctx); err != nil {
			writeRPCError(w, requestID, CodeUnauthorized, "upstream login failed: "+err.Error())
			return
		}

		correlationID := uuid.NewString()
		reqLogger := applog.WithCorrelationID(applog.WithUser(applog.WithUpstream(logger, normalized), username), correlationID)
		state := &requestState{client: client, url: normalized, tlsVerify: tlsVerify, aux: aux, username: username, logger: reqLogger}
		defer state.clear()

		ctx = withRequestState(ctx, state)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseBasicHeader parses "Basic <base64(user:pass)>" into its username and
// password. The scheme prefix match is case-insensitive per the header spec.
func parseBasicHeader(header string) (string, string, error) {
	decoded, err := decodeBasicPayload(header)
	if err != nil {
		return "", "", err
	}
	user, pass, ok := strings.Cut(decoded, ":")
	if !ok {
		return "", "", errBadBasicHeader
	}
	return user, pass, nil
}

// decodeBasicPayload strips the "Basic " prefix and base64-decodes the rest,
// without requiring a ":" separator (used for X-PyATS-Enable, which carries
// only the enable password).
func decodeBasicPayload(header string) (string, error) {
	const prefix = "basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errBadBasicHeader
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", errBadBasicHeader
	}
	return string(decoded), nil
}

var errBadBasicHeader = &basicHeaderError{}

type basicHeaderError struct{}

func (*basicHeaderError) Error() string { return "expected \"Basic <base64>\"" }

// classifyLeaseError maps an error returned by Pool.Lease to a JSON-RPC
// error code and message.
func classifyLeaseError(err error) (int, string) {
	var policyErr *gwerrors.PolicyError
	if gwerrors.As(err, &policyErr) {
		return policyErr.Code, policyErr.Error()
	}
	return CodeUnauthorized, err.Error()
}

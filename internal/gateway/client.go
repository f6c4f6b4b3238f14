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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	gwerrors "github.com/ciscops/cml-mcp-gateway/pkg/errors"
	"github.com/ciscops/cml-mcp-gateway/pkg/httpclient"
)

// TransportMode selects whether a Client's credentials are fixed at
// construction (Stdio) or rebound per lease (HTTP).
type TransportMode int

const (
	// TransportStdio is the degenerate single-credential mode: one client,
	// one set of credentials, for the lifetime of the process.
	TransportStdio TransportMode = iota
	// TransportHTTP rebinds credentials on every lease from the pool.
	TransportHTTP
)

// adminState is a tri-state admin flag: unknown, admin, or not-admin.
type adminState int

const (
	adminUnknown adminState = iota
	adminTrue
	adminFalse
)

// Client is an authenticated REST client bound to one CML host.
//
// In TransportHTTP mode the pool rebinds Username/Password/token/admin on
// every lease (see Rebind); in TransportStdio mode credentials are fixed at
// construction and the admin flag is cached for the process lifetime.
type Client struct {
	BaseURL         string
	APIBase         string
	TLSVerification bool
	Mode            TransportMode

	mu       sync.Mutex
	username string
	password string
	token    string
	admin    adminState

	http   *http.Client
	logger *slog.Logger
}

// NewClient constructs an Upstream Client for baseURL with the given
// credentials. The caller owns the returned Client's lifecycle and must call
// Close when done with it.
func NewClient(baseURL, username, password string, tlsVerification bool, mode TransportMode, logger *slog.Logger) (*Client, error) {
	cfg := httpclient.DefaultConfig()
	cfg.InsecureSkipVerify = !tlsVerification
	hc, err := httpclient.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("building upstream http client: %w", err)
	}

	return &Client{
		BaseURL:         baseURL,
		APIBase:         baseURL + "/api/v0",
		TLSVerification: tlsVerification,
		Mode:            mode,
		username:        username,
		password:        password,
		admin:           adminUnknown,
		http:            hc,
		logger:          logger,
	}, nil
}

// Rebind replaces the client's credentials in place and clears the token and
// admin cache, per spec: reuse of a pooled client for a new (username,
// password) pair must never leak a prior caller's session.
func (c *Client) Rebind(username, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = username
	c.password = password
	c.token = ""
	c.admin = adminUnknown
}

// Login authenticates against /authenticate and stores the returned bearer
// token. A non-2xx or transport failure surfaces as *gwerrors.UpstreamError.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	username, password := c.username, c.password
	c.mu.Unlock()

	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return fmt.Errorf("marshaling login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v0/authenticate", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &gwerrors.UpstreamError{Method: http.MethodPost, Path: "/api/v0/authenticate", Cause: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &gwerrors.UpstreamError{Method: http.MethodPost, Path: "/api/v0/authenticate", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var token string
	if err := json.Unmarshal(respBody, &token); err != nil {
		// CML returns the raw token string, quoted JSON; fall back to the
		// literal body if it wasn't quoted.
		token = string(bytes.Trim(respBody, `"`))
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	c.logger.Debug("authenticated with upstream", "upstream", c.BaseURL)
	return nil
}

// EnsureAuthenticated probes /authok in stdio mode when a token is already
// cached, re-logging in on a 401; in http mode it always logs in fresh,
// since each inbound request brings its own identity.
func (c *Client) EnsureAuthenticated(ctx context.Context) error {
	c.mu.Lock()
	hasToken := c.token != ""
	mode := c.Mode
	c.mu.Unlock()

	if mode == TransportStdio && hasToken {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/v0/authok", nil)
		if err != nil {
			return err
		}
		c.applyAuth(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return &gwerrors.UpstreamError{Method: http.MethodGet, Path: "/api/v0/authok", Cause: err}
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			c.mu.Lock()
			c.token = ""
			c.mu.Unlock()
			hasToken = false
		} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
	}

	if mode == TransportHTTP || !hasToken {
		return c.Login(ctx)
	}
	return nil
}

// IsAdmin resolves the current user's admin flag via GET /users/{username}/id
// then GET /users/{id}. The result is cached for the process lifetime in
// stdio mode; in http mode it is resolved fresh on every call.
func (c *Client) IsAdmin(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.Mode == TransportStdio && c.admin != adminUnknown {
		admin := c.admin == adminTrue
		c.mu.Unlock()
		return admin, nil
	}
	username := c.username
	c.mu.Unlock()

	if c.Mode == TransportStdio {
		if err := c.EnsureAuthenticated(ctx); err != nil {
			return false, err
		}
	}

	var userID json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/users/%s/id", username), nil, &userID); err != nil {
		return false, err
	}

	var user struct {
		Admin bool `json:"admin"`
	}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/users/%s", string(bytes.Trim(userID, `"`))), nil, &user); err != nil {
		return false, err
	}

	c.mu.Lock()
	if user.Admin {
		c.admin = adminTrue
	} else {
		c.admin = adminFalse
	}
	c.mu.Unlock()

	return user.Admin, nil
}

// Get issues a GET to the CML REST API and decodes a JSON response.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.verb(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body. A 204 response decodes out as nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.verb(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body. A 204 response decodes out as nil.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.verb(ctx, http.MethodPut, path, body, out)
}

// Patch issues a PATCH with a JSON body. A 204 response decodes out as nil.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.verb(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE. A 204 response decodes out as nil.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.verb(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) verb(ctx context.Context, method, path string, body, out any) error {
	if c.Mode == TransportStdio {
		if err := c.EnsureAuthenticated(ctx); err != nil {
			return err
		}
	}

	err := c.doJSON(ctx, method, path, body, out)

	// A single silent re-login-and-retry on upstream 401 in stdio mode.
	var upstreamErr *gwerrors.UpstreamError
	if c.Mode == TransportStdio && isUnauthorized(err, &upstreamErr) {
		if loginErr := c.Login(ctx); loginErr != nil {
			return loginErr
		}
		return c.doJSON(ctx, method, path, body, out)
	}

	return err
}

func isUnauthorized(err error, target **gwerrors.UpstreamError) bool {
	if err == nil {
		return false
	}
	ue, ok := err.(*gwerrors.UpstreamError)
	if !ok || ue.StatusCode != http.StatusUnauthorized {
		return false
	}
	*target = ue
	return true
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBase+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return &gwerrors.UpstreamError{Method: method, Path: path, Cause: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &gwerrors.UpstreamError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func (c *Client) applyAuth(req *http.Request) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// Close drains and closes the underlying connection pool. Idempotent.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

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

package errors

import (
	"fmt"
	"time"
)

// ValidationError represents user input validation failures.
// Use this for invalid user input, malformed data, or constraint violations.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a resource not found error.
// Use this when a requested resource does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "workflow", "tool", "connector")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// UpstreamError represents a non-2xx response from the CML server.
// Use this for errors originating from the upstream REST API.
type UpstreamError struct {
	// Method is the HTTP verb that was sent upstream.
	Method string

	// Path is the upstream request path (e.g., "/api/v0/labs/abc/start").
	Path string

	// StatusCode is the HTTP status code returned by CML.
	StatusCode int

	// Body is the upstream response body, truncated to a reasonable size.
	Body string

	// Cause is the underlying transport error, if the request never got a response.
	Cause error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream %s %s failed: %v", e.Method, e.Path, e.Cause)
	}
	return fmt.Sprintf("upstream %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements UserVisibleError.
func (e *UpstreamError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *UpstreamError) UserMessage() string { return e.Error() }

// Suggestion implements UserVisibleError.
func (e *UpstreamError) Suggestion() string {
	if e.Cause != nil {
		return "check that the upstream CML server is reachable and its certificate is trusted"
	}
	if e.StatusCode == 401 || e.StatusCode == 403 {
		return "check the configured CML credentials and the user's CML permissions"
	}
	return ""
}

// PolicyError represents an upstream target rejected by the URL policy gate.
// Use this when a requested CML URL is not on the allow-list or does not
// match the allow-pattern.
type PolicyError struct {
	// URL is the candidate URL that was rejected.
	URL string

	// Reason explains which policy check failed.
	Reason string

	// Code is the JSON-RPC error code to surface to the client.
	Code int
}

// Error implements the error interface.
func (e *PolicyError) Error() string {
	return fmt.Sprintf("url %q rejected: %s", e.URL, e.Reason)
}

// IsUserVisible implements UserVisibleError.
func (e *PolicyError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *PolicyError) UserMessage() string { return e.Error() }

// Suggestion implements UserVisibleError.
func (e *PolicyError) Suggestion() string {
	return "add this URL to the gateway's allow_list or allow_pattern configuration"
}

// ACLError represents a tool call rejected by the per-user access control list.
type ACLError struct {
	// User is the caller identity the decision was made for.
	User string

	// Tool is the tool name that was rejected.
	Tool string
}

// Error implements the error interface.
func (e *ACLError) Error() string {
	return fmt.Sprintf("tool %q is not permitted for user %q", e.Tool, e.User)
}

// IsUserVisible implements UserVisibleError.
func (e *ACLError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *ACLError) UserMessage() string { return e.Error() }

// Suggestion implements UserVisibleError.
func (e *ACLError) Suggestion() string {
	return "ask a gateway administrator to grant this tool in your ACL entry"
}

// CancelError represents a destructive tool call the caller declined to confirm.
type CancelError struct {
	// Tool is the tool name that was cancelled.
	Tool string
}

// Error implements the error interface.
func (e *CancelError) Error() string {
	return fmt.Sprintf("%s cancelled by user", e.Tool)
}

// IsUserVisible implements UserVisibleError.
func (e *CancelError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *CancelError) UserMessage() string { return e.Error() }

// Suggestion implements UserVisibleError.
func (e *CancelError) Suggestion() string {
	return "call the tool again and approve the confirmation prompt to proceed"
}

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing settings, or invalid config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "api_key", "database.host")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents operation timeouts.
// Use this when an operation exceeds its configured timeout.
type TimeoutError struct {
	// Operation describes what timed out (e.g., "LLM request", "workflow step")
	Operation string

	// Duration is how long the operation ran before timing out
	Duration time.Duration

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s operation timed out after %v", e.Operation, e.Duration)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

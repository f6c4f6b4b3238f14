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

package log

import (
	"log/slog"
	"time"
)

// ToolCallRequest represents an inbound MCP tool/call dispatch for logging purposes.
type ToolCallRequest struct {
	// MessageType is the tool name being dispatched (e.g., "lab_start", "user_delete").
	MessageType string

	// CorrelationID is the correlation ID for tracing the request across
	// the ingress middleware, dispatch shell, and upstream call.
	CorrelationID string

	// RequestID is the unique ID for this specific request.
	RequestID string

	// RemoteAddr is the remote address of the client.
	RemoteAddr string

	// Metadata contains additional request metadata (e.g. caller username,
	// normalized upstream URL).
	Metadata map[string]interface{}
}

// ToolCallResponse represents a tool/call completion for logging purposes.
type ToolCallResponse struct {
	// Success indicates whether the request was successful.
	Success bool

	// Error is the error message if the request failed.
	Error string

	// DurationMs is the duration of the request in milliseconds.
	DurationMs int64

	// Metadata contains additional response metadata.
	Metadata map[string]interface{}
}

// LogToolCallRequest logs an inbound tool dispatch.
func LogToolCallRequest(logger *slog.Logger, req *ToolCallRequest) {
	attrs := []any{
		"event", "tool_call_received",
		"message_type", req.MessageType,
		"remote", req.RemoteAddr,
	}

	if req.CorrelationID != "" {
		attrs = append(attrs, "correlation_id", req.CorrelationID)
	}

	if req.RequestID != "" {
		attrs = append(attrs, "request_id", req.RequestID)
	}

	for k, v := range req.Metadata {
		attrs = append(attrs, k, v)
	}

	logger.Info("tool call received", attrs...)
}

// LogToolCallResponse logs a tool dispatch completion.
func LogToolCallResponse(logger *slog.Logger, req *ToolCallRequest, resp *ToolCallResponse) {
	attrs := []any{
		"event", "tool_call_completed",
		"message_type", req.MessageType,
		"success", resp.Success,
		"duration_ms", resp.DurationMs,
		"remote", req.RemoteAddr,
	}

	if req.CorrelationID != "" {
		attrs = append(attrs, "correlation_id", req.CorrelationID)
	}

	if req.RequestID != "" {
		attrs = append(attrs, "request_id", req.RequestID)
	}

	if resp.Error != "" {
		attrs = append(attrs, "error", resp.Error)
	}

	for k, v := range resp.Metadata {
		attrs = append(attrs, k, v)
	}

	level := slog.LevelInfo
	message := "tool call completed"

	if !resp.Success {
		level = slog.LevelError
		message = "tool call failed"
	}

	logger.Log(nil, level, message, attrs...)
}

// ToolCallMiddleware wraps a tool dispatch handler with logging.
// It logs the request when it arrives and the response when it completes.
type ToolCallMiddleware struct {
	logger *slog.Logger
}

// NewToolCallMiddleware creates a new tool dispatch logging middleware.
func NewToolCallMiddleware(logger *slog.Logger) *ToolCallMiddleware {
	return &ToolCallMiddleware{
		logger: logger,
	}
}

// Handler wraps a function that dispatches a tool call.
// It logs the request and response automatically.
func (m *ToolCallMiddleware) Handler(req *ToolCallRequest, handler func() error) error {
	start := time.Now()

	// Log incoming request
	LogToolCallRequest(m.logger, req)

	// Execute handler
	err := handler()

	// Calculate duration
	duration := time.Since(start).Milliseconds()

	// Log response
	resp := &ToolCallResponse{
		Success:    err == nil,
		DurationMs: duration,
	}

	if err != nil {
		resp.Error = err.Error()
	}

	LogToolCallResponse(m.logger, req, resp)

	return err
}

// HandlerWithMetadata wraps a function that dispatches a tool call and returns metadata.
// It logs the request and response with the returned metadata.
func (m *ToolCallMiddleware) HandlerWithMetadata(req *ToolCallRequest, handler func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	start := time.Now()

	// Log incoming request
	LogToolCallRequest(m.logger, req)

	// Execute handler
	metadata, err := handler()

	// Calculate duration
	duration := time.Since(start).Milliseconds()

	// Log response
	resp := &ToolCallResponse{
		Success:    err == nil,
		DurationMs: duration,
		Metadata:   metadata,
	}

	if err != nil {
		resp.Error = err.Error()
	}

	LogToolCallResponse(m.logger, req, resp)

	return metadata, err
}

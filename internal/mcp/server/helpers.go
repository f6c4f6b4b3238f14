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

import gwerrors "github.com/ciscops/cml-mcp-gateway/pkg/errors"

// stringArg extracts a required string argument from a tool's input map.
func stringArg(input map[string]any, key string) (string, error) {
	v, ok := input[key]
	if !ok {
		return "", &gwerrors.ValidationError{Field: key, Message: "missing required argument"}
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", &gwerrors.ValidationError{Field: key, Message: "must be a non-empty string"}
	}
	return s, nil
}

// optionalStringArg extracts an optional string argument, returning "" if
// absent.
func optionalStringArg(input map[string]any, key string) string {
	v, ok := input[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// optionalBoolArg extracts an optional bool argument, returning def if
// absent.
func optionalBoolArg(input map[string]any, key string, def bool) bool {
	v, ok := input[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// bodyArg returns the payload sub-object under key, or the whole input map
// if key is absent (convenience for tools whose schema flattens the body).
func bodyArg(input map[string]any, key string) any {
	if v, ok := input[key]; ok {
		return v
	}
	return input
}

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

// Package gateway brokers MCP tool calls to a caller-designated upstream
// Cisco Modeling Labs server: URL policy, a pooled upstream client, request
// context propagation, and the ingress middleware that ties them together.
package gateway

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	gwerrors "github.com/ciscops/cml-mcp-gateway/pkg/errors"
)

// Policy configures the URL Normalizer & Policy Gate.
type Policy struct {
	// AllowList is a set of acceptable upstream URLs. Empty means no
	// allow-list check is performed (subject to RequireClientURL).
	AllowList []string

	// Pattern, if non-nil, is a regular expression the original
	// (un-normalized) candidate URL must fully match.
	Pattern *regexp.Regexp

	// RequireClientURL, when true and both AllowList and Pattern are
	// unset, rejects every candidate with a PolicyError carrying
	// CodeURLNotAllowed and the reason "no allow-list or pattern configured"
	// instead of silently permitting any URL. This case has no error code
	// of its own.
	RequireClientURL bool
}

// Normalize canonicalizes a URL for use as a pool key or allow-list
// comparison: lowercase scheme and host, default ports stripped, trailing
// slash stripped. Normalize is idempotent: Normalize(Normalize(u)) ==
// Normalize(u).
func Normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", &gwerrors.PolicyError{URL: raw, Reason: "unparseable URL", Code: CodeURLNotAllowed}
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()

	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}

	hostport := host
	if port != "" {
		hostport = fmt.Sprintf("%s:%s", host, port)
	}

	normalized := fmt.Sprintf("%s://%s", scheme, hostport)
	path := strings.TrimSuffix(u.Path, "/")
	if path != "" {
		normalized += path
	}
	if u.RawQuery != "" {
		normalized += "?" + u.RawQuery
	}

	return normalized, nil
}

// Validate normalizes candidate and checks it against the allow-list and
// pattern. It returns the normalized URL on success, or a *gwerrors.PolicyError
// describing the first check that failed.
func Validate(candidate string, policy Policy) (string, error) {
	if len(policy.AllowList) == 0 && policy.Pattern == nil && policy.RequireClientURL {
		return "", &gwerrors.PolicyError{URL: candidate, Reason: "no allow-list or pattern configured", Code: CodeURLNotAllowed}
	}

	normalized, err := Normalize(candidate)
	if err != nil {
		return "", err
	}

	if len(policy.AllowList) > 0 {
		allowed := false
		for _, entry := range policy.AllowList {
			normEntry, err := Normalize(entry)
			if err != nil {
				continue
			}
			if strings.EqualFold(normalized, normEntry) {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", &gwerrors.PolicyError{URL: candidate, Reason: "not in allow-list", Code: CodeURLNotAllowed}
		}
	}

	if policy.Pattern != nil {
		if !policy.Pattern.MatchString(candidate) {
			return "", &gwerrors.PolicyError{URL: candidate, Reason: "does not match allow-pattern", Code: CodeURLPatternMismatch}
		}
	}

	return normalized, nil
}

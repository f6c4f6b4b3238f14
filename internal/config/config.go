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

// Package config loads gateway configuration from a YAML file with
// environment-variable overrides, layered defaults < file < env.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "github.com/ciscops/cml-mcp-gateway/internal/log"
	gwerrors "github.com/ciscops/cml-mcp-gateway/pkg/errors"
)

// Transport selects which MCP transport the process serves.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
)

// Config is the gateway's full runtime configuration.
type Config struct {
	// Transport selects stdio or http. Default: stdio.
	Transport Transport `yaml:"transport"`

	// ListenAddr is the HTTP listen address, used only in http transport.
	ListenAddr string `yaml:"listen_addr"`

	// DefaultURL is used when a caller omits X-CML-Server-URL. In stdio
	// mode this is the (required) single upstream target.
	DefaultURL string `yaml:"default_url"`

	// DefaultUsername/DefaultPassword are the fixed credentials used in
	// stdio mode, where there is no per-request X-Authorization header.
	DefaultUsername string `yaml:"default_username"`
	DefaultPassword string `yaml:"default_password"`

	// AllowList and AllowPattern configure the URL Policy Gate (C1).
	AllowList   []string `yaml:"allow_list"`
	AllowPattern string  `yaml:"allow_pattern"`

	// RequireClientURL, when true and neither AllowList nor AllowPattern is
	// set, rejects every request rather than silently allowing any URL.
	RequireClientURL bool `yaml:"require_client_url"`

	// Pool sizing (C3).
	PoolMaxSize   int `yaml:"pool_max_size"`
	PoolTTLSeconds int `yaml:"pool_ttl_seconds"`
	PoolMaxPerKey int `yaml:"pool_max_per_key"`

	// ACLFile is an optional path to a YAML ACL document (C6). Empty means
	// no ACL enforcement.
	ACLFile string `yaml:"acl_file"`

	// TLSVerification is the default verify-SSL setting for stdio mode,
	// where there is no per-request X-CML-Verify-SSL header.
	TLSVerification bool `yaml:"tls_verification"`

	Log applog.Config `yaml:"log"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Transport:      TransportStdio,
		ListenAddr:     ":8080",
		PoolMaxSize:    50,
		PoolTTLSeconds: 300,
		PoolMaxPerKey:  5,
		Log:            *applog.DefaultConfig(),
	}
}

// Load reads defaults, overlays a YAML file (if path is non-empty), then
// overlays environment variables: defaults-then-file-then-env precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, gwerrors.Wrapf(err, "reading config file %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, gwerrors.Wrapf(err, "parsing config file %s", path)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays recognized environment variables onto cfg, the final
// and highest-precedence layer.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CML_MCP_TRANSPORT"); v != "" {
		cfg.Transport = Transport(strings.ToLower(v))
	}
	if v := os.Getenv("CML_MCP_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("CML_URL"); v != "" {
		cfg.DefaultURL = v
	}
	if v := os.Getenv("CML_USERNAME"); v != "" {
		cfg.DefaultUsername = v
	}
	if v := os.Getenv("CML_PASSWORD"); v != "" {
		cfg.DefaultPassword = v
	}
	if v := os.Getenv("CML_ALLOWED_URLS"); v != "" {
		cfg.AllowList = strings.Split(v, ",")
	}
	if v := os.Getenv("CML_URL_PATTERN"); v != "" {
		cfg.AllowPattern = v
	}
	if v := os.Getenv("CML_MCP_ACL_FILE"); v != "" {
		cfg.ACLFile = v
	}
	if v := os.Getenv("CML_MCP_POOL_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PoolMaxSize = n
		}
	}
	if v := os.Getenv("CML_MCP_POOL_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PoolTTLSeconds = n
		}
	}
	if v := os.Getenv("CML_MCP_POOL_MAX_PER_KEY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PoolMaxPerKey = n
		}
	}
	if v := os.Getenv("CML_VERIFY_SSL"); v != "" {
		cfg.TLSVerification = strings.EqualFold(v, "true")
	}
}

// Validate checks structural correctness of the configuration, failing
// startup on problems an operator must fix before the gateway can run at
// all (bad transport, missing stdio credentials, non-positive pool sizes).
// allow_pattern is deliberately not checked here: a malformed regex is a
// policy-gate misconfiguration, not a fatal one, so it's handled at the
// point of use (CompiledAllowPattern's caller logs and falls back to no
// pattern rather than aborting the process).
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("config: transport must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Transport)
	}

	if c.Transport == TransportStdio {
		if c.DefaultURL == "" || c.DefaultUsername == "" || c.DefaultPassword == "" {
			return fmt.Errorf("config: stdio transport requires default_url, default_username, and default_password")
		}
	}

	if c.PoolMaxSize <= 0 {
		return fmt.Errorf("config: pool_max_size must be > 0, got %d", c.PoolMaxSize)
	}
	if c.PoolTTLSeconds <= 0 {
		return fmt.Errorf("config: pool_ttl_seconds must be > 0, got %d", c.PoolTTLSeconds)
	}
	if c.PoolMaxPerKey <= 0 {
		return fmt.Errorf("config: pool_max_per_key must be > 0, got %d", c.PoolMaxPerKey)
	}

	return nil
}

// TTL returns PoolTTLSeconds as a time.Duration.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.PoolTTLSeconds) * time.Second
}

// CompiledAllowPattern compiles AllowPattern, returning nil if unset. The
// pattern is anchored front and back so a configured pattern must match a
// candidate URL in full, not merely contain it as a substring: an
// unanchored match would let any URL containing the pattern through the
// policy gate, an operator-hostile surprise for a security check. A
// malformed pattern is the caller's problem to log and fall back on, not a
// hard error here: see Validate's doc comment for why this gateway never
// fails startup over it.
func (c *Config) CompiledAllowPattern() (*regexp.Regexp, error) {
	if c.AllowPattern == "" {
		return nil, nil
	}
	return regexp.Compile("^(?:" + c.AllowPattern + ")$")
}

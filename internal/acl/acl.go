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

// Package acl implements the per-username tool allow/deny list applied at
// MCP list-tools and call-tool. Configuration is loaded once from a YAML
// file at startup (and, when a watcher is attached, hot-reloaded) and
// consulted on every dispatch.
package acl

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// UserRule is one user's tool allow/deny configuration. Exactly one of
// EnabledTools or DisabledTools is typically set; if both are nil the
// user falls through to the file's DefaultEnabled.
type UserRule struct {
	EnabledTools  []string `yaml:"enabled_tools"`
	DisabledTools []string `yaml:"disabled_tools"`
}

// Config is the validated, normalized ACL document.
type Config struct {
	DefaultEnabled bool                `yaml:"default_enabled"`
	Users          map[string]UserRule `yaml:"users"`
}

type rawConfig struct {
	DefaultEnabled *bool                       `yaml:"default_enabled"`
	Users          map[string]map[string]any   `yaml:"users"`
}

// List holds the currently active ACL configuration behind an atomic
// pointer so that a hot-reload (see watch.go) never races a concurrent
// Allowed/FilterTools call.
type List struct {
	current atomic.Pointer[Config]
	logger  *slog.Logger
	mu      sync.Mutex // serializes reloads; Allowed/FilterTools never take it
}

// New constructs an empty List with no ACL configured (every tool allowed
// for every user), suitable as a zero-config default.
func New(logger *slog.Logger) *List {
	l := &List{logger: logger}
	l.current.Store(nil)
	return l
}

// Load reads and validates the ACL file at path, replacing the active
// configuration. A missing file, unreadable file, or malformed YAML is
// logged and leaves the ACL unset (meaning: allow everything) rather than
// failing startup, since ACLs are an optional policy layer.
func (l *List) Load(path string) error {
	if path == "" {
		l.current.Store(nil)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("acl file does not exist; continuing without ACLs", "path", path)
			l.current.Store(nil)
			return nil
		}
		l.logger.Error("failed to read acl file; continuing without ACLs", "path", path, "error", err)
		l.current.Store(nil)
		return nil
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		l.logger.Error("failed to parse acl file; continuing without ACLs", "path", path, "error", err)
		l.current.Store(nil)
		return nil
	}

	cfg := validate(raw, l.logger)
	l.current.Store(cfg)
	l.logger.Info("acl configuration loaded", "path", path, "users", len(cfg.Users), "default_enabled", cfg.DefaultEnabled)
	return nil
}

// validate normalizes raw YAML into a Config, dropping invalid user entries
// with a warning rather than failing the whole file.
func validate(raw rawConfig, logger *slog.Logger) *Config {
	defaultEnabled := true
	if raw.DefaultEnabled != nil {
		defaultEnabled = *raw.DefaultEnabled
	}

	users := make(map[string]UserRule, len(raw.Users))
	for username, fields := range raw.Users {
		enabled, enabledOK := toStringList(fields["enabled_tools"])
		disabled, disabledOK := toStringList(fields["disabled_tools"])
		if !enabledOK || !disabledOK {
			logger.Warn("invalid tool list for acl user; skipping user", "user", username)
			continue
		}
		users[username] = UserRule{EnabledTools: enabled, DisabledTools: disabled}
	}

	return &Config{DefaultEnabled: defaultEnabled, Users: users}
}

// toStringList converts a YAML-decoded value to a []string. A nil value
// (key absent) is valid and returns (nil, true); anything present but not a
// list of strings is invalid.
func toStringList(v any) ([]string, bool) {
	if v == nil {
		return nil, true
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Allowed implements the decision function: allow-list takes precedence
// over block-list; an unconfigured ACL (Load never called, or the file was
// absent/invalid) allows everything.
func (l *List) Allowed(tool, username string) bool {
	cfg := l.current.Load()
	if cfg == nil {
		return true
	}

	rule, ok := cfg.Users[username]
	if !ok {
		return cfg.DefaultEnabled
	}

	if rule.EnabledTools != nil && matchesAny(rule.EnabledTools, tool) {
		return true
	}
	if rule.DisabledTools != nil && matchesAny(rule.DisabledTools, tool) {
		return false
	}
	if rule.EnabledTools != nil {
		return false // allow-list configured, tool not in it
	}
	if rule.DisabledTools != nil {
		return true // block-list configured, tool not in it
	}
	return cfg.DefaultEnabled
}

// matchesAny reports whether tool equals, or matches as a doublestar glob,
// any entry in patterns. Exact string membership is checked first and is
// always sufficient on its own; glob matching is an additive convenience
// layered on top for entries that contain wildcard characters.
func matchesAny(patterns []string, tool string) bool {
	for _, pattern := range patterns {
		if pattern == tool {
			return true
		}
		if ok, err := doublestar.Match(pattern, tool); err == nil && ok {
			return true
		}
	}
	return false
}

// FilterTools returns the subset of names allowed for username, preserving
// order. Used at the MCP list-tools hook.
func (l *List) FilterTools(names []string, username string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if l.Allowed(name, username) {
			out = append(out, name)
		}
	}
	return out
}

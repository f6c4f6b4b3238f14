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

package acl

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeACLFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "acl.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing acl file: %v", err)
	}
	return path
}

func TestAllowed_NoConfigAllowsEverything(t *testing.T) {
	l := New(discardLogger())
	if !l.Allowed("cml_delete_lab", "anyone") {
		t.Fatal("expected an unconfigured ACL to allow every tool")
	}
}

func TestAllowed_UnknownUserFallsBackToDefaultEnabled(t *testing.T) {
	path := writeACLFile(t, `
default_enabled: false
users:
  alice:
    enabled_tools: ["cml_list_labs"]
`)
	l := New(discardLogger())
	if err := l.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	if l.Allowed("cml_list_labs", "bob") {
		t.Fatal("expected an unlisted user to fall back to default_enabled=false")
	}
}

func TestAllowed_AllowListTakesPrecedenceOverBlockList(t *testing.T) {
	path := writeACLFile(t, `
default_enabled: true
users:
  alice:
    enabled_tools: ["cml_list_labs"]
    disabled_tools: ["cml_list_labs"]
`)
	l := New(discardLogger())
	if err := l.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	if !l.Allowed("cml_list_labs", "alice") {
		t.Fatal("expected the allow-list entry to win even though the same tool is also block-listed")
	}
}

func TestAllowed_ExactAllowListExcludesEverythingElse(t *testing.T) {
	path := writeACLFile(t, `
users:
  alice:
    enabled_tools: ["cml_list_labs"]
`)
	l := New(discardLogger())
	if err := l.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	if l.Allowed("cml_delete_lab", "alice") {
		t.Fatal("expected a tool outside the allow-list to be denied")
	}
}

func TestAllowed_BlockListDeniesOnlyListedTools(t *testing.T) {
	path := writeACLFile(t, `
users:
  alice:
    disabled_tools: ["cml_delete_lab"]
`)
	l := New(discardLogger())
	if err := l.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	if l.Allowed("cml_delete_lab", "alice") {
		t.Fatal("expected the block-listed tool to be denied")
	}
	if !l.Allowed("cml_list_labs", "alice") {
		t.Fatal("expected a tool outside the block-list to be allowed")
	}
}

func TestAllowed_GlobIsAdditiveToExactMatch(t *testing.T) {
	path := writeACLFile(t, `
users:
  alice:
    enabled_tools: ["cml_list_*"]
`)
	l := New(discardLogger())
	if err := l.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	if !l.Allowed("cml_list_labs", "alice") {
		t.Fatal("expected a glob entry to match its intended prefix")
	}
	if l.Allowed("cml_delete_lab", "alice") {
		t.Fatal("expected the glob to not match an unrelated tool name")
	}
}

func TestAllowed_MissingFileLeavesACLUnset(t *testing.T) {
	l := New(discardLogger())
	if err := l.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err != nil {
		t.Fatalf("expected a missing file to not be a hard error: %v", err)
	}
	if !l.Allowed("cml_delete_lab", "anyone") {
		t.Fatal("expected a missing ACL file to allow everything")
	}
}

func TestAllowed_MalformedYAMLLeavesACLUnset(t *testing.T) {
	path := writeACLFile(t, "users: [this is not a map")
	l := New(discardLogger())
	if err := l.Load(path); err != nil {
		t.Fatalf("expected malformed YAML to not be a hard error: %v", err)
	}
	if !l.Allowed("cml_delete_lab", "anyone") {
		t.Fatal("expected a malformed ACL file to allow everything")
	}
}

func TestAllowed_InvalidUserEntryIsDroppedNotFatal(t *testing.T) {
	path := writeACLFile(t, `
default_enabled: false
users:
  alice:
    enabled_tools: "not-a-list"
  bob:
    enabled_tools: ["cml_list_labs"]
`)
	l := New(discardLogger())
	if err := l.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	if l.Allowed("cml_list_labs", "alice") {
		t.Fatal("expected alice's invalid entry to fall back to default_enabled=false")
	}
	if !l.Allowed("cml_list_labs", "bob") {
		t.Fatal("expected bob's valid entry to still be honored")
	}
}

func TestFilterTools_PreservesOrderAndDropsDenied(t *testing.T) {
	path := writeACLFile(t, `
users:
  alice:
    disabled_tools: ["cml_delete_lab"]
`)
	l := New(discardLogger())
	if err := l.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	got := l.FilterTools([]string{"cml_list_labs", "cml_delete_lab", "cml_show_lab"}, "alice")
	want := []string{"cml_list_labs", "cml_show_lab"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

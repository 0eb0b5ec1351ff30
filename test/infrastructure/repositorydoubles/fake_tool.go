//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
)

// FakeResponse is what the fake tool prints for one sub-command.
type FakeResponse struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// FakeTool is a shell script standing in for an SCM executable. It dispatches on its
// first argument and records every invocation.
type FakeTool struct {
	Path    string
	logPath string
}

// NewFakeTool writes the script into a temporary directory. Sub-commands without a
// response exit 0 silently.
func NewFakeTool(t *testing.T, name string, responses map[string]FakeResponse) *FakeTool {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are POSIX shell scripts")
	}

	dir := t.TempDir()
	tool := &FakeTool{Path: filepath.Join(dir, name), logPath: filepath.Join(dir, name+".log")}

	keys := make([]string, 0, len(responses))
	for k := range responses {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&sb, "printf '%%s\\n' \"$*\" >> '%s'\n", tool.logPath)
	sb.WriteString("case \"$1\" in\n")
	for _, k := range keys {
		r := responses[k]
		fmt.Fprintf(&sb, "  %s)\n", k)
		if r.Stdout != "" {
			fmt.Fprintf(&sb, "    cat <<'__STDOUT__'\n%s\n__STDOUT__\n", strings.TrimSuffix(r.Stdout, "\n"))
		}
		if r.Stderr != "" {
			fmt.Fprintf(&sb, "    cat >&2 <<'__STDERR__'\n%s\n__STDERR__\n", strings.TrimSuffix(r.Stderr, "\n"))
		}
		fmt.Fprintf(&sb, "    exit %d;;\n", r.ExitCode)
	}
	sb.WriteString("  *) exit 0;;\nesac\n")

	if err := os.WriteFile(tool.Path, []byte(sb.String()), 0o755); err != nil { //nolint:gosec // test executable
		t.Fatalf("failed to write fake tool: %v", err)
	}
	return tool
}

// Invocations returns the argument lists the tool was called with, one per line.
func (f *FakeTool) Invocations() []string {
	data, err := os.ReadFile(f.logPath)
	if err != nil {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// Invoked reports whether any invocation starts with prefix.
func (f *FakeTool) Invoked(prefix string) bool {
	for _, line := range f.Invocations() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/ciassemble/internal/assemble"
	"github.com/gorewood/ciassemble/internal/config"
)

// --- Test helpers ---

// makeTestConfig writes template files into a temp dir and returns a config
// whose target is out.yml in the same dir.
func makeTestConfig(t *testing.T, files map[string]string) config.Config {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	cfg := config.Default(dir)
	cfg.Target = "out.yml"
	return cfg
}

var testTemplates = map[string]string{
	"ci-master.yml": "stages:\n{jobs.yml}\n",
	"jobs.yml":      "build:\n{script.yml}\n",
	"script.yml":    "  script: make\n",
}

// --- Assemble handler tests ---

func TestHandleAssemble_Writes(t *testing.T) {
	cfg := makeTestConfig(t, testTemplates)
	handler := handleAssemble(cfg)

	_, out, err := handler(context.Background(), &mcp.CallToolRequest{}, AssembleInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if !out.Written || out.Lines != 3 || out.Target != cfg.TargetPath() {
		t.Errorf("out = %+v", out)
	}
	data, err := os.ReadFile(cfg.TargetPath())
	if err != nil {
		t.Fatalf("target not written: %v", err)
	}
	if !strings.HasSuffix(string(data), "stages:\nbuild:\n  script: make\n\n") {
		t.Errorf("target content = %q", data)
	}

	want := []ImportRecord{
		{Name: "jobs.yml", Parent: "ci-master.yml", Level: 1, Lines: 2},
		{Name: "script.yml", Parent: "jobs.yml", Level: 2, Lines: 1},
	}
	if diff := cmp.Diff(want, out.Imports); diff != "" {
		t.Errorf("Imports mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleAssemble_DryRun(t *testing.T) {
	cfg := makeTestConfig(t, testTemplates)
	handler := handleAssemble(cfg)

	_, out, err := handler(context.Background(), &mcp.CallToolRequest{}, AssembleInput{DryRun: true})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if out.Written {
		t.Error("dry run should not report a write")
	}
	if _, err := os.Stat(cfg.TargetPath()); !os.IsNotExist(err) {
		t.Errorf("dry run wrote the target, stat error = %v", err)
	}
	if out.Digest == "" {
		t.Error("dry run should still report a digest")
	}
}

func TestHandleAssemble_InvalidImport(t *testing.T) {
	cfg := makeTestConfig(t, map[string]string{"ci-master.yml": "{../etc}\n"})
	handler := handleAssemble(cfg)

	_, _, err := handler(context.Background(), &mcp.CallToolRequest{}, AssembleInput{})
	if !errors.Is(err, assemble.ErrInvalidImportName) {
		t.Fatalf("handler error = %v, want ErrInvalidImportName", err)
	}
	if _, statErr := os.Stat(cfg.TargetPath()); !os.IsNotExist(statErr) {
		t.Error("failed assembly should not write the target")
	}
}

// --- Check handler tests ---

func TestHandleCheck(t *testing.T) {
	cfg := makeTestConfig(t, testTemplates)
	check := handleCheck(cfg)

	_, out, err := check(context.Background(), &mcp.CallToolRequest{}, CheckInput{})
	if err != nil {
		t.Fatalf("check error: %v", err)
	}
	if !out.Missing || out.UpToDate {
		t.Errorf("before assemble: %+v, want missing", out)
	}

	if _, _, err := handleAssemble(cfg)(context.Background(), &mcp.CallToolRequest{}, AssembleInput{}); err != nil {
		t.Fatalf("assemble error: %v", err)
	}

	_, out, err = check(context.Background(), &mcp.CallToolRequest{}, CheckInput{})
	if err != nil {
		t.Fatalf("check error: %v", err)
	}
	if !out.UpToDate || out.CurrentDigest != out.WantDigest {
		t.Errorf("after assemble: %+v, want up to date", out)
	}

	if err := os.WriteFile(filepath.Join(cfg.Dir, "script.yml"), []byte("  script: make all\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, out, err = check(context.Background(), &mcp.CallToolRequest{}, CheckInput{})
	if err != nil {
		t.Fatalf("check error: %v", err)
	}
	if out.UpToDate || !strings.Contains(out.Diff, "make all") {
		t.Errorf("after edit: %+v, want drift with diff", out)
	}
}

// --- Imports handler tests ---

func TestHandleImports(t *testing.T) {
	cfg := makeTestConfig(t, testTemplates)
	handler := handleImports(cfg)

	_, out, err := handler(context.Background(), &mcp.CallToolRequest{}, ImportsInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if out.Master != "ci-master.yml" || len(out.Imports) != 2 {
		t.Errorf("out = %+v", out)
	}
	if _, err := os.Stat(cfg.TargetPath()); !os.IsNotExist(err) {
		t.Error("imports tool should not write the target")
	}
}

func TestHandleImports_DepthExceeded(t *testing.T) {
	cfg := makeTestConfig(t, testTemplates)
	cfg.MaxDepth = 1

	_, _, err := handleImports(cfg)(context.Background(), &mcp.CallToolRequest{}, ImportsInput{})
	if !errors.Is(err, assemble.ErrMaxDepthExceeded) {
		t.Errorf("handler error = %v, want ErrMaxDepthExceeded", err)
	}
}

func TestNewServer(t *testing.T) {
	if server := NewServer("test", makeTestConfig(t, testTemplates)); server == nil {
		t.Fatal("NewServer returned nil")
	}
}

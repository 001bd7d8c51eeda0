package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorewood/ciassemble/internal/config"
	"github.com/gorewood/ciassemble/internal/output"
)

// ciTree is a repo root holding templates in CI/gitlab-ci/. With default
// settings the target lands at the repo root.
type ciTree struct {
	root string
	dir  string
}

func (tree ciTree) target() string {
	return filepath.Join(tree.root, ".gitlab-ci.yml")
}

func (tree ciTree) write(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(tree.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// newCITree creates a template tree and clears CIASSEMBLE_* variables so
// the caller's environment cannot leak into the run.
func newCITree(t *testing.T, files map[string]string) ciTree {
	t.Helper()
	for _, key := range []string{config.DirEnv, config.MasterEnv, config.TargetEnv, config.MaxDepthEnv, config.StrictEnv} {
		t.Setenv(key, "")
	}

	root := t.TempDir()
	tree := ciTree{root: root, dir: filepath.Join(root, "CI", "gitlab-ci")}
	if err := os.MkdirAll(tree.dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		tree.write(t, name, content)
	}
	return tree
}

// executeCmd runs the root command with args and returns stdout, stderr and
// the command error.
func executeCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_Version(t *testing.T) {
	version = "1.2.3"

	stdout, _, err := executeCmd(t, "--version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(stdout, "1.2.3") {
		t.Errorf("--version output should contain version: %q", stdout)
	}
	if !strings.Contains(stdout, "ciassemble") {
		t.Errorf("--version output should contain 'ciassemble': %q", stdout)
	}
}

func TestRootCommand_Help(t *testing.T) {
	stdout, _, err := executeCmd(t, "--help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, expected := range []string{"ciassemble", "Usage:", "--json", "--max-depth", "--dir", "check", "imports", "watch", "serve"} {
		if !strings.Contains(stdout, expected) {
			t.Errorf("--help output should contain %q: %q", expected, stdout)
		}
	}
}

func TestRootCommand_InvalidColor(t *testing.T) {
	tree := newCITree(t, map[string]string{"ci-master.yml": "x\n"})

	_, _, err := executeCmd(t, "--dir", tree.dir, "--color", "sometimes")
	if output.GetExitCode(err) != output.ExitUserError {
		t.Fatalf("exit code = %d, want %d (err %v)", output.GetExitCode(err), output.ExitUserError, err)
	}
	if _, statErr := os.Stat(tree.target()); !os.IsNotExist(statErr) {
		t.Error("target should not be written")
	}
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	tree := newCITree(t, map[string]string{"ci-master.yml": "x\n"})

	if _, _, err := executeCmd(t, "--dir", tree.dir, "extra"); err == nil {
		t.Error("expected error for positional argument")
	}
}

func TestAssemble_WritesTarget(t *testing.T) {
	tree := newCITree(t, map[string]string{
		"ci-master.yml": "stages:\n  - build\n{jobs-build.yml}\n",
		"jobs-build.yml": "build:\n  script: make\n",
	})

	stdout, stderr, err := executeCmd(t, "--dir", tree.dir)
	if err != nil {
		t.Fatalf("Execute() error = %v\nstderr: %s", err, stderr)
	}

	data, err := os.ReadFile(tree.target())
	if err != nil {
		t.Fatalf("reading target: %v", err)
	}
	want := config.DefaultNotice + "stages:\n  - build\nbuild:\n  script: make\n\n"
	if string(data) != want {
		t.Errorf("target = %q, want %q", data, want)
	}

	for _, expected := range []string{
		"Starting config assembly",
		"Importing file: jobs-build.yml",
		"Writing config to file " + tree.target(),
		"Finished.",
	} {
		if !strings.Contains(stdout, expected) {
			t.Errorf("stdout should contain %q: %q", expected, stdout)
		}
	}
}

func TestAssemble_JSON(t *testing.T) {
	tree := newCITree(t, map[string]string{
		"ci-master.yml": "{a}\n",
		"a":             "a: 1\n",
	})

	stdout, _, err := executeCmd(t, "--dir", tree.dir, "--json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var result struct {
		Target  string `json:"target"`
		Digest  string `json:"digest"`
		Lines   int    `json:"lines"`
		Imports []struct {
			Name string `json:"name"`
		} `json:"imports"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("Output should be valid JSON: %v\nOutput: %s", err, stdout)
	}
	if result.Target != tree.target() || result.Lines != 1 || len(result.Digest) != 64 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Imports) != 1 || result.Imports[0].Name != "a" {
		t.Errorf("imports = %+v", result.Imports)
	}
}

func TestAssemble_Failures(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		args     []string
		wantCode int
		wantMsg  string
	}{
		{
			name:     "path redirection",
			files:    map[string]string{"ci-master.yml": "{../secrets}\n", "secrets": "x\n"},
			wantCode: output.ExitUserError,
			wantMsg:  "invalid filename",
		},
		{
			name:     "subdirectory",
			files:    map[string]string{"ci-master.yml": "{a/b}\n", "a/b": "x\n"},
			wantCode: output.ExitUserError,
			wantMsg:  "invalid filename",
		},
		{
			name: "depth exceeded",
			files: map[string]string{
				"ci-master.yml": "{l1}\n", "l1": "{l2}\n", "l2": "{l3}\n",
				"l3": "{l4}\n", "l4": "{l5}\n", "l5": "deep\n",
			},
			wantCode: output.ExitUserError,
			wantMsg:  "circular import",
		},
		{
			name:     "depth flag",
			files:    map[string]string{"ci-master.yml": "{l1}\n", "l1": "{l2}\n", "l2": "x\n"},
			args:     []string{"--max-depth", "1"},
			wantCode: output.ExitUserError,
			wantMsg:  "maximum import depth 1",
		},
		{
			name:     "missing import",
			files:    map[string]string{"ci-master.yml": "{gone.yml}\n"},
			wantCode: output.ExitSystemError,
			wantMsg:  "gone.yml",
		},
		{
			name:     "missing master",
			files:    map[string]string{},
			wantCode: output.ExitSystemError,
			wantMsg:  "ci-master.yml",
		},
		{
			name:     "negative depth",
			files:    map[string]string{"ci-master.yml": "x\n"},
			args:     []string{"--max-depth=-1"},
			wantCode: output.ExitUserError,
			wantMsg:  "max depth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := newCITree(t, tt.files)

			args := append([]string{"--dir", tree.dir}, tt.args...)
			_, stderr, err := executeCmd(t, args...)
			if got := output.GetExitCode(err); got != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (err %v)", got, tt.wantCode, err)
			}
			if !strings.Contains(stderr, tt.wantMsg) {
				t.Errorf("stderr should contain %q: %q", tt.wantMsg, stderr)
			}
			if _, statErr := os.Stat(tree.target()); !os.IsNotExist(statErr) {
				t.Errorf("target should not exist after failure, stat error = %v", statErr)
			}
		})
	}
}

func TestAssemble_JSONError(t *testing.T) {
	tree := newCITree(t, map[string]string{"ci-master.yml": "{../x}\n"})

	stdout, _, err := executeCmd(t, "--dir", tree.dir, "--json")
	if err == nil {
		t.Fatal("expected error")
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("Output should be valid JSON: %v\nOutput: %s", err, stdout)
	}
	if code, ok := result["code"].(float64); !ok || int(code) != output.ExitUserError {
		t.Errorf("code = %v, want %d", result["code"], output.ExitUserError)
	}
}

func TestAssemble_RelaxedStrict(t *testing.T) {
	tree := newCITree(t, map[string]string{
		"ci-master.yml":  "{jobs/build.yml}\n",
		"jobs/build.yml": "build: {}\n",
	})

	if _, _, err := executeCmd(t, "--dir", tree.dir, "--strict=false"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	data, err := os.ReadFile(tree.target())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "build: {}\n\n") {
		t.Errorf("target = %q", data)
	}
}

func TestAssemble_ConfigPrecedence(t *testing.T) {
	tree := newCITree(t, map[string]string{
		"main.yml":      "from main\n",
		"other.yml":     "from other\n",
		config.FileName: "master: main.yml\ntarget: file-target.yml\n",
		"ci-master.yml": "from default\n",
	})

	// File only
	if _, _, err := executeCmd(t, "--dir", tree.dir); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	assertFileSuffix(t, filepath.Join(tree.dir, "file-target.yml"), "from main\n\n")

	// Environment beats file
	t.Setenv(config.TargetEnv, "env-target.yml")
	if _, _, err := executeCmd(t, "--dir", tree.dir); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	assertFileSuffix(t, filepath.Join(tree.dir, "env-target.yml"), "from main\n\n")

	// Flags beat environment
	if _, _, err := executeCmd(t, "--dir", tree.dir, "--master", "other.yml", "--target", "flag-target.yml"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	assertFileSuffix(t, filepath.Join(tree.dir, "flag-target.yml"), "from other\n\n")
}

func TestAssemble_ExplicitConfigFile(t *testing.T) {
	tree := newCITree(t, map[string]string{
		"main.yml": "main\n",
	})
	cfgPath := filepath.Join(tree.root, "custom.yaml")
	if err := os.WriteFile(cfgPath, []byte("master: main.yml\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := executeCmd(t, "--dir", tree.dir, "--config", cfgPath); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	assertFileSuffix(t, tree.target(), "main\n\n")

	_, _, err := executeCmd(t, "--dir", tree.dir, "--config", filepath.Join(tree.root, "missing.yaml"))
	if output.GetExitCode(err) != output.ExitUserError {
		t.Errorf("missing explicit config: err = %v, want user error", err)
	}
}

func TestAssemble_DirFromEnvironment(t *testing.T) {
	tree := newCITree(t, map[string]string{"ci-master.yml": "env dir\n"})
	t.Setenv(config.DirEnv, tree.dir)

	if _, _, err := executeCmd(t); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	assertFileSuffix(t, tree.target(), "env dir\n\n")
}

func TestAssemble_Idempotent(t *testing.T) {
	tree := newCITree(t, map[string]string{
		"ci-master.yml": "{a}\nb\n",
		"a":             "a\n",
	})

	var runs []string
	for range 2 {
		if _, _, err := executeCmd(t, "--dir", tree.dir); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		data, err := os.ReadFile(tree.target())
		if err != nil {
			t.Fatal(err)
		}
		runs = append(runs, string(data))
	}
	if runs[0] != runs[1] {
		t.Errorf("runs differ:\n%q\n%q", runs[0], runs[1])
	}
}

func assertFileSuffix(t *testing.T, path, suffix string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if !strings.HasSuffix(string(data), suffix) {
		t.Errorf("%s = %q, want suffix %q", filepath.Base(path), data, suffix)
	}
}

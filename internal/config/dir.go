// Package config holds the settings that drive an assembly run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirEnv overrides the working directory when no --dir flag is given.
const DirEnv = "CIASSEMBLE_DIR"

// ResolveDir returns the absolute working directory for an assembly run.
//
// Resolution:
//   - explicit, if non-empty (the --dir flag)
//   - CIASSEMBLE_DIR as reported by getenv, if set
//   - the directory containing the running executable, so templates that
//     ship next to the binary resolve the same from any invocation directory
func ResolveDir(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		return absDir(explicit)
	}

	if dir := getenv(DirEnv); dir != "" {
		return absDir(dir)
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// absDir makes dir absolute and checks that it is a directory.
func absDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("working directory %s is not a directory", abs)
	}
	return abs, nil
}

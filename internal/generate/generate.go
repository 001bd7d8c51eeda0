// Package generate turns a config into the assembled target file: it renders
// the notice and expanded master in memory, writes the target atomically, and
// checks an existing target for drift.
package generate

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/renameio/v2"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/zeebo/blake3"

	"github.com/gorewood/ciassemble/internal/assemble"
	"github.com/gorewood/ciassemble/internal/config"
)

// Output is a fully rendered target file that has not been written yet.
type Output struct {
	Target  string // absolute target path
	Content string
	Digest  string // hex BLAKE3-256 of Content
	Result  *assemble.Result
}

// Render assembles the master file of cfg and prepends the notice.
// The returned content ends with an empty line.
func Render(cfg config.Config, opts ...assemble.Option) (*Output, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result, err := cfg.Assembler(opts...).Assemble(cfg.MasterName())
	if err != nil {
		return nil, err
	}

	content := cfg.Notice + result.Text() + "\n"
	return &Output{
		Target:  cfg.TargetPath(),
		Content: content,
		Digest:  Digest([]byte(content)),
		Result:  result,
	}, nil
}

// Write replaces the target with the rendered content. The file is written
// to a temporary sibling, synced, and renamed into place, so readers never
// observe a partial target. Existing permissions are kept.
func Write(out *Output) error {
	pending, err := renameio.NewPendingFile(out.Target,
		renameio.WithPermissions(0o644),
		renameio.WithExistingPermissions(),
	)
	if err != nil {
		return fmt.Errorf("creating pending file for %s: %w", out.Target, err)
	}
	defer pending.Cleanup() //nolint:errcheck // no-op once replaced

	if _, err := pending.WriteString(out.Content); err != nil {
		return fmt.Errorf("writing %s: %w", out.Target, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replacing %s: %w", out.Target, err)
	}
	return nil
}

// Drift compares a rendered output with the file currently on disk.
type Drift struct {
	UpToDate      bool   `json:"up_to_date"`
	Missing       bool   `json:"missing"`
	CurrentDigest string `json:"current_digest,omitempty"`
	WantDigest    string `json:"want_digest"`
	Diff          string `json:"diff,omitempty"` // unified diff, current (-) against rendered (+)
}

// Check reports whether the target of out already holds out's content.
func Check(out *Output) (*Drift, error) {
	drift := &Drift{WantDigest: out.Digest}

	current, err := os.ReadFile(out.Target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			drift.Missing = true
			return drift, nil
		}
		return nil, fmt.Errorf("reading %s: %w", out.Target, err)
	}

	drift.CurrentDigest = Digest(current)
	if drift.CurrentDigest == drift.WantDigest {
		drift.UpToDate = true
		return drift, nil
	}

	drift.Diff, err = difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(current)),
		B:        difflib.SplitLines(out.Content),
		FromFile: "current",
		ToFile:   "assembled",
		Context:  3,
	})
	if err != nil {
		return nil, fmt.Errorf("diffing %s: %w", out.Target, err)
	}
	return drift, nil
}

// Digest returns the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

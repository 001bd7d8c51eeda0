package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/gorewood/ciassemble/internal/assemble"
	"github.com/gorewood/ciassemble/internal/config"
	"github.com/gorewood/ciassemble/internal/output"
)

// newWatchCmd creates the watch command.
func newWatchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the target whenever a template changes",
		Long: `Assemble once, then watch the working directory and assemble again after
every change to a template. Bursts of changes are coalesced: assembly runs
once the directory has been quiet for --debounce.

Each run reloads ciassemble.yaml and the CIASSEMBLE_* variables, so edits to
the config file in the working directory take effect on the next change. A
config file passed with --config from elsewhere is reloaded but not watched.
Directories holding imports (subdirectories with --strict=false) are watched
once an assembly has read from them.

A failed assembly is reported and leaves the previous target in place; the
watcher keeps running until interrupted.

Examples:
  ciassemble watch                   # Watch with the default 300ms debounce
  ciassemble watch --debounce 1s     # Wait longer for editors that save in bursts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, debounce)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "Quiet period before re-assembling")

	return cmd
}

// runWatch executes the watch command.
func runWatch(cmd *cobra.Command, debounce time.Duration) error {
	printer := newPrinter(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}
	if debounce <= 0 {
		err := output.NewUserError("--debounce must be positive")
		printer.Error(err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		err = output.NewSystemErrorWithCause(fmt.Sprintf("creating watcher: %v", err), err)
		printer.Error(err)
		return err
	}
	defer watcher.Close() //nolint:errcheck // shutdown path

	if err := watcher.Add(cfg.Dir); err != nil {
		err = output.NewSystemErrorWithCause(fmt.Sprintf("watching %s: %v", cfg.Dir, err), err)
		printer.Error(err)
		return err
	}

	session := &watchSession{cmd: cmd, printer: printer, watcher: watcher, cfg: cfg}
	session.regenerate()
	printer.Progress("Watching %s for changes (Ctrl+C to stop)", cfg.Dir)

	return watchLoop(ctx, watcher.Events, watcher.Errors, watchLoopOptions{
		relevant: session.relevant,
		debounce: debounce,
		onChange: session.regenerate,
		onError: func(err error) {
			printer.Warn("watcher: %v", err)
		},
	})
}

// watchSession holds the state of a running watch. Its methods run on the
// watch loop goroutine only.
type watchSession struct {
	cmd     *cobra.Command
	printer *output.Printer
	watcher *fsnotify.Watcher
	cfg     config.Config // last configuration that loaded cleanly
}

// regenerate reloads the configuration, assembles and writes the target,
// then watches every directory an import was read from. Failures are
// reported and leave the previous target and configuration in place.
func (s *watchSession) regenerate() {
	cfg, err := loadConfig(s.cmd)
	if err != nil {
		s.printer.Error(err)
		return
	}
	s.cfg = cfg

	out, err := assembleAndWrite(s.printer, cfg)
	if err != nil {
		s.printer.Error(err)
		return
	}

	for _, dir := range importDirs(cfg.Dir, out.Result.Imports) {
		if err := s.watcher.Add(dir); err != nil {
			s.printer.Warn("watching %s: %v", dir, err)
		}
	}

	if s.printer.IsJSON() {
		_ = s.printer.Success(assembleSummary(out))
		return
	}
	_ = s.printer.Success(map[string]any{"message": "Finished."})
}

// relevant filters events against the current configuration.
func (s *watchSession) relevant(event fsnotify.Event) bool {
	return templateEventFilter(s.cfg)(event)
}

// importDirs returns the directories below dir that hold imported files, in
// first-seen order. Imports in dir itself are covered by the initial watch.
func importDirs(dir string, imports []assemble.Import) []string {
	var dirs []string
	seen := map[string]bool{filepath.Clean(dir): true}
	for _, imp := range imports {
		parent := filepath.Dir(filepath.Join(dir, filepath.FromSlash(imp.Name)))
		if seen[parent] {
			continue
		}
		seen[parent] = true
		dirs = append(dirs, parent)
	}
	return dirs
}

// watchLoopOptions configures watchLoop.
type watchLoopOptions struct {
	relevant func(fsnotify.Event) bool
	debounce time.Duration
	onChange func()
	onError  func(error)
}

// watchLoop runs onChange once per burst of relevant events, after debounce
// has passed without another one. onChange runs on the loop goroutine, so
// assemblies never overlap. Returns nil when ctx is done or a channel closes.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, opts watchLoopOptions) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !opts.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(opts.debounce)
			} else {
				timer.Reset(opts.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			opts.onChange()

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			opts.onError(err)
		}
	}
}

// templateEventFilter accepts content changes in the working directory and
// ignores the target file, its temporary siblings, and permission changes.
func templateEventFilter(cfg config.Config) func(fsnotify.Event) bool {
	target := filepath.Clean(cfg.TargetPath())
	pendingPrefix := "." + filepath.Base(target)

	return func(event fsnotify.Event) bool {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
			!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
			return false
		}
		name := filepath.Clean(event.Name)
		if name == target {
			return false
		}
		if filepath.Dir(name) == filepath.Dir(target) && strings.HasPrefix(filepath.Base(name), pendingPrefix) {
			return false
		}
		return true
	}
}

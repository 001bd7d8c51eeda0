package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gorewood/ciassemble/internal/assemble"
	"github.com/gorewood/ciassemble/internal/config"
	"github.com/gorewood/ciassemble/internal/output"
)

// addPersistentFlags registers the flags shared by every command.
func addPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.Bool("json", false, "Output in JSON format")
	flags.String("color", "auto", "Color output: auto, always, never")
	flags.String("dir", "", "Working directory holding the templates (default: $CIASSEMBLE_DIR or the executable's directory)")
	flags.String("config", "", "Config file (default: ciassemble.yaml in the working directory)")
	flags.String("master", "", "Master template, relative to the working directory")
	flags.String("target", "", "Output file, relative to the working directory")
	flags.Int("max-depth", assemble.DefaultMaxDepth, "Maximum import nesting depth")
	flags.Bool("strict", true, "Reject import names containing path separators or '..'")
}

// lookupFlag finds a flag on the command or, failing that, among the root's
// persistent flags.
func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup(name)
	}
	return flag
}

// stringFlag returns the value of a flag, or "" when it is not defined.
func stringFlag(cmd *cobra.Command, name string) string {
	flag := lookupFlag(cmd, name)
	if flag == nil {
		return ""
	}
	return flag.Value.String()
}

// flagChanged reports whether the user set the flag explicitly.
func flagChanged(cmd *cobra.Command, name string) bool {
	flag := lookupFlag(cmd, name)
	return flag != nil && flag.Changed
}

// isJSONMode reads the --json persistent flag from the command hierarchy.
func isJSONMode(cmd *cobra.Command) bool {
	return stringFlag(cmd, "json") == "true"
}

// useColor resolves --color against TTY detection of the command's output.
func useColor(cmd *cobra.Command) bool {
	return output.ResolveColorMode(stringFlag(cmd, "color"), output.IsTTY(cmd.OutOrStdout()))
}

// newPrinter creates a printer for cmd honoring --json and --color.
func newPrinter(cmd *cobra.Command) *output.Printer {
	return output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr())
}

// loadConfig builds the run configuration: defaults, then the config file,
// then CIASSEMBLE_* variables, then explicit flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	dir, err := config.ResolveDir(stringFlag(cmd, "dir"), os.Getenv)
	if err != nil {
		return config.Config{}, output.NewUserErrorWithCause(err.Error(), err)
	}

	cfg := config.Default(dir)

	path, required := stringFlag(cmd, "config"), true
	if path == "" {
		path, required = filepath.Join(dir, config.FileName), false
	}
	if err := config.LoadFile(&cfg, path, required); err != nil {
		return config.Config{}, output.NewUserErrorWithCause(err.Error(), err)
	}

	if err := config.ApplyEnv(&cfg, os.Getenv); err != nil {
		return config.Config{}, output.NewUserErrorWithCause(err.Error(), err)
	}

	if err := applyFlags(cmd, &cfg); err != nil {
		return config.Config{}, output.NewUserErrorWithCause(err.Error(), err)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, output.NewUserErrorWithCause(err.Error(), err)
	}
	return cfg, nil
}

// applyFlags overlays explicitly set flags onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if flagChanged(cmd, "master") {
		cfg.Master = stringFlag(cmd, "master")
	}
	if flagChanged(cmd, "target") {
		cfg.Target = stringFlag(cmd, "target")
	}
	if flagChanged(cmd, "max-depth") {
		depth, err := strconv.Atoi(stringFlag(cmd, "max-depth"))
		if err != nil {
			return errors.New("--max-depth must be an integer")
		}
		cfg.MaxDepth = depth
	}
	if flagChanged(cmd, "strict") {
		strict, err := strconv.ParseBool(stringFlag(cmd, "strict"))
		if err != nil {
			return errors.New("--strict must be true or false")
		}
		cfg.Strict = strict
	}
	return nil
}

// exitErrorFor maps assembly failures onto CLI exit codes: unreadable files
// are system errors, every other template problem is a user error.
func exitErrorFor(err error) error {
	var exitErr *output.ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	if errors.Is(err, assemble.ErrUnreadableFile) {
		return output.NewSystemErrorWithCause(err.Error(), err)
	}
	return output.NewUserErrorWithCause(err.Error(), err)
}

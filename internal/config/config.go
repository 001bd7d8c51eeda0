package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/gorewood/ciassemble/internal/assemble"
)

// FileName is the optional config file looked up in the working directory.
const FileName = "ciassemble.yaml"

// Environment variables that override file settings.
const (
	MasterEnv   = "CIASSEMBLE_MASTER"
	TargetEnv   = "CIASSEMBLE_TARGET"
	MaxDepthEnv = "CIASSEMBLE_MAX_DEPTH"
	StrictEnv   = "CIASSEMBLE_STRICT"
)

// DefaultNotice is prepended to every assembled file.
const DefaultNotice = `#############################################################
#                                                           #
# This is an auto generated file. Do not make               #
# changes to this file. They possible will be overriden.    #
#                                                           #
# To make persistent changes changes files in               #
# ./CI/gitlab-ci/ ...                                       #
# and regenerate this file with the configuration tool      #
#                                                           #
#############################################################

`

// Config describes one assembly: where to read, what to write, and how
// deeply imports may nest.
type Config struct {
	// Dir is the working directory every other path resolves against.
	Dir string `yaml:"-"`

	// Master is the template assembly starts from, relative to Dir.
	Master string `yaml:"master"`

	// Target is the output path, relative to Dir unless absolute.
	Target string `yaml:"target"`

	MaxDepth int    `yaml:"max_depth"`
	Strict   bool   `yaml:"strict"`
	Notice   string `yaml:"notice"`
}

// Default returns the settings of the reference deployment for dir.
func Default(dir string) Config {
	return Config{
		Dir:      dir,
		Master:   "ci-master.yml",
		Target:   filepath.Join("..", "..", ".gitlab-ci.yml"),
		MaxDepth: assemble.DefaultMaxDepth,
		Strict:   true,
		Notice:   DefaultNotice,
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the file
// keep their current values; unknown keys are an error. A missing file is
// only an error when required is true.
func LoadFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays the CIASSEMBLE_* variables reported by getenv onto cfg.
// Empty values are ignored.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(MasterEnv); v != "" {
		cfg.Master = v
	}
	if v := getenv(TargetEnv); v != "" {
		cfg.Target = v
	}
	if v := getenv(MaxDepthEnv); v != "" {
		depth, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", MaxDepthEnv, err)
		}
		cfg.MaxDepth = depth
	}
	if v := getenv(StrictEnv); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", StrictEnv, err)
		}
		cfg.Strict = strict
	}
	return nil
}

// Validate checks that cfg describes a runnable assembly.
func (c Config) Validate() error {
	if c.Dir == "" {
		return errors.New("working directory is not set")
	}
	if c.Master == "" {
		return errors.New("master file is not set")
	}
	if !fs.ValidPath(filepath.ToSlash(c.Master)) {
		return fmt.Errorf("master file %q must be a path inside the working directory", c.Master)
	}
	if c.Target == "" {
		return errors.New("target file is not set")
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", c.MaxDepth)
	}
	return nil
}

// TargetPath returns the output path resolved against Dir.
func (c Config) TargetPath() string {
	if filepath.IsAbs(c.Target) {
		return c.Target
	}
	return filepath.Join(c.Dir, c.Target)
}

// MasterName returns the master file name in fs.FS form.
func (c Config) MasterName() string {
	return filepath.ToSlash(c.Master)
}

// FS returns the file system imports are read from.
func (c Config) FS() fs.FS {
	return os.DirFS(c.Dir)
}

// Assembler builds an assembler for cfg with extra options appended.
func (c Config) Assembler(opts ...assemble.Option) *assemble.Assembler {
	base := []assemble.Option{
		assemble.WithMaxDepth(c.MaxDepth),
		assemble.WithStrict(c.Strict),
	}
	return assemble.New(c.FS(), append(base, opts...)...)
}

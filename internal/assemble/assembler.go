package assemble

import (
	"io/fs"
	"strings"
	"unicode/utf8"
)

// DefaultMaxDepth is the nesting budget used when none is configured.
const DefaultMaxDepth = 3

// Import describes one directive expanded during assembly.
type Import struct {
	Name   string `json:"name"`
	Parent string `json:"parent"`
	Level  int    `json:"level"` // 1 for imports found in the master file
	Lines  int    `json:"lines"` // expanded line count, set once expansion finishes
}

// Result is the outcome of a successful assembly.
type Result struct {
	Master  string
	Lines   []string
	Imports []Import // in the order the directives were encountered
}

// Text joins the assembled lines, terminating every line with a newline.
func (r *Result) Text() string {
	var builder strings.Builder
	for _, line := range r.Lines {
		builder.WriteString(line)
		builder.WriteByte('\n')
	}
	return builder.String()
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithMaxDepth sets the nesting budget. Negative values are treated as zero.
func WithMaxDepth(depth int) Option {
	return func(a *Assembler) {
		a.maxDepth = max(depth, 0)
	}
}

// WithStrict toggles import name validation.
func WithStrict(strict bool) Option {
	return func(a *Assembler) {
		a.strict = strict
	}
}

// WithImportHook registers fn to be called for every directive before it is
// expanded. The Lines field of the Import passed to fn is always zero.
func WithImportHook(fn func(Import)) Option {
	return func(a *Assembler) {
		a.onImport = fn
	}
}

// Assembler expands import directives for files in a file system.
// An Assembler holds no per-run state and may be reused.
type Assembler struct {
	fsys     fs.FS
	maxDepth int
	strict   bool
	onImport func(Import)
}

// New creates an Assembler reading from fsys.
// Defaults: DefaultMaxDepth, strict name validation, no hook.
func New(fsys fs.FS, opts ...Option) *Assembler {
	assembler := &Assembler{
		fsys:     fsys,
		maxDepth: DefaultMaxDepth,
		strict:   true,
	}
	for _, opt := range opts {
		opt(assembler)
	}
	return assembler
}

// Assemble expands the named file and everything it imports.
func (a *Assembler) Assemble(name string) (*Result, error) {
	result := &Result{Master: name}
	lines, err := a.expand(name, a.maxDepth, 0, result)
	if err != nil {
		return nil, err
	}
	result.Lines = lines
	return result, nil
}

// expand returns the expanded lines of name. budget is the remaining depth
// and level the nesting level of name (0 for the master file).
func (a *Assembler) expand(name string, budget, level int, result *Result) ([]string, error) {
	if budget < 0 {
		return nil, &MaxDepthExceededError{Name: name, MaxDepth: a.maxDepth}
	}

	content, err := fs.ReadFile(a.fsys, name)
	if err != nil {
		return nil, &UnreadableFileError{Name: name, Err: err}
	}

	lines := splitLines(string(content))
	expanded := make([]string, 0, len(lines))
	for _, line := range lines {
		importName, ok := ParseDirective(line)
		if !ok {
			expanded = append(expanded, line)
			continue
		}

		if a.strict && !ValidImportName(importName) {
			return nil, &InvalidImportNameError{Name: importName, File: name}
		}

		record := Import{Name: importName, Parent: name, Level: level + 1}
		if a.onImport != nil {
			a.onImport(record)
		}
		index := len(result.Imports)
		result.Imports = append(result.Imports, record)

		imported, err := a.expand(importName, budget-1, level+1, result)
		if err != nil {
			return nil, err
		}
		result.Imports[index].Lines = len(imported)
		expanded = append(expanded, imported...)
	}
	return expanded, nil
}

// splitLines splits text at line boundaries: \n, \r\n, \r, \v, \f, the
// file/group/record separators \x1c-\x1e, NEL (U+0085), and the Unicode line
// and paragraph separators. A final boundary does not start another line,
// and empty text has no lines.
func splitLines(text string) []string {
	var lines []string
	start := 0
	for i, r := range text {
		if !isLineBoundary(r) || i < start {
			continue
		}
		lines = append(lines, text[start:i])
		start = i + utf8.RuneLen(r)
		if r == '\r' && strings.HasPrefix(text[start:], "\n") {
			start++
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func isLineBoundary(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

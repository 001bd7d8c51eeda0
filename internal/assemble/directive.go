package assemble

import (
	"regexp"
	"strings"
)

// directivePattern matches a whole line holding a single {name} directive.
var directivePattern = regexp.MustCompile(`^[ \t]*\{([^}\n]+)\}[ \t]*$`)

// forbiddenPattern matches path separators and runs of two or more dots.
var forbiddenPattern = regexp.MustCompile(`/|\\|\.\.+`)

// ParseDirective reports the import name held by line.
// Whitespace inside the braces is trimmed; a directive whose name is empty
// after trimming is not a directive.
func ParseDirective(line string) (string, bool) {
	match := directivePattern.FindStringSubmatch(line)
	if match == nil {
		return "", false
	}
	name := strings.TrimSpace(match[1])
	if name == "" {
		return "", false
	}
	return name, true
}

// ValidImportName reports whether name is a bare file name.
// Stripping every forbidden sequence must leave the name unchanged.
func ValidImportName(name string) bool {
	return forbiddenPattern.ReplaceAllString(name, "") == name
}

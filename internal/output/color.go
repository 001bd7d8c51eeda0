package output

import (
	"fmt"
	"io"
	"os"
)

// ColorModes lists the accepted values of the --color flag.
var ColorModes = []string{"auto", "always", "never"}

// ResolveColorMode determines whether styling is enabled from the --color
// flag and TTY detection:
//   - "never":  always disable colors
//   - "always": always enable colors
//   - "auto":   use the detected isTTY value (default behavior)
func ResolveColorMode(colorMode string, isTTY bool) bool {
	switch colorMode {
	case "never":
		return false
	case "always":
		return true
	default:
		return isTTY
	}
}

// ValidateColorMode rejects values outside ColorModes.
func ValidateColorMode(colorMode string) error {
	for _, mode := range ColorModes {
		if colorMode == mode {
			return nil
		}
	}
	return NewUserError(fmt.Sprintf("invalid --color value %q (want auto, always or never)", colorMode))
}

// IsTTY checks if a writer is a terminal.
// Returns true only for os.File that is a terminal.
func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

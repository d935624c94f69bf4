package snapshot

import (
	"strings"

	"github.com/fatih/color"
)

var (
	removed = color.New(color.FgRed)
	added   = color.New(color.FgGreen)
)

// Colorize paints the -/+ lines of a diff. color.NoColor disables it, which
// the library already does when stdout is not a terminal.
func Colorize(diff string) string {
	if diff == "" {
		return diff
	}
	lines := strings.Split(diff, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		switch {
		case strings.HasPrefix(trimmed, "-"):
			lines[i] = removed.Sprint(line)
		case strings.HasPrefix(trimmed, "+"):
			lines[i] = added.Sprint(line)
		}
	}
	return strings.Join(lines, "\n")
}

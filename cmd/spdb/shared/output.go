package shared

import (
	"io"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

// Status writes a colored status line. Color is disabled automatically
// when stdout is not a terminal or NO_COLOR is set.
func Status(w io.Writer, kind, format string, args ...any) {
	c := okColor
	switch kind {
	case "warn":
		c = warnColor
	case "fail":
		c = failColor
	}
	c.Fprintf(w, format+"\n", args...)
}

package report

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme defines the styles used in the console table
type ColorScheme struct {
	Title  *color.Color
	Header *color.Color
	Best   *color.Color
	Error  *color.Color
}

// DefaultColorScheme returns the default color scheme
func DefaultColorScheme() *ColorScheme {
	s := &ColorScheme{
		Title:  color.New(color.Underline),
		Header: color.New(color.ReverseVideo),
		Best:   color.New(color.BgGreen),
		Error:  color.New(color.FgRed),
	}
	s.Title.EnableColor()
	s.Header.EnableColor()
	s.Best.EnableColor()
	s.Error.EnableColor()
	return s
}

// NoColorScheme returns a color scheme with all colors disabled
func NoColorScheme() *ColorScheme {
	s := DefaultColorScheme()
	s.Title.DisableColor()
	s.Header.DisableColor()
	s.Best.DisableColor()
	s.Error.DisableColor()
	return s
}

// supportsColor reports whether w is a terminal that should get ANSI styles.
func supportsColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

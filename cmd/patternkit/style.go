package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// styles holds the color formatters for human output.
type styles struct {
	heading *color.Color
	preset  *color.Color
	match   *color.Color
	context *color.Color
	ok      *color.Color
	fail    *color.Color
}

func newStyles(enabled bool) *styles {
	s := &styles{
		heading: color.New(color.Bold),
		preset:  color.New(color.Bold, color.FgHiBlue),
		match:   color.New(color.FgYellow),
		context: color.New(color.Faint),
		ok:      color.New(color.FgHiGreen),
		fail:    color.New(color.Bold, color.FgHiRed),
	}

	if !enabled {
		for _, c := range []*color.Color{s.heading, s.preset, s.match, s.context, s.ok, s.fail} {
			c.DisableColor()
		}
	}

	return s
}

// colorEnabled applies --color: always, never, or auto (a terminal on
// stdout and NO_COLOR unset).
func colorEnabled(mode string) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == "", nil
	default:
		return false, fmt.Errorf("unknown color mode: %s", mode)
	}
}

func stylesFor(mode string) (*styles, error) {
	enabled, err := colorEnabled(mode)
	if err != nil {
		return nil, err
	}
	return newStyles(enabled), nil
}

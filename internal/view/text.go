package view

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Printable strips terminal escape sequences and the remaining C0 and DEL
// control characters from stored text. Persisted text is not validated on
// load, so every surface that writes task text to a terminal goes through
// this first.
func Printable(text string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, ansi.Strip(text))
}

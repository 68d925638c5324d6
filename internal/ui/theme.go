package ui

import "strings"

// Theme bundles palette, symbols and box borders for plain output.
// All plain renderers pull from `current`.
type Theme struct {
	Title, Muted, Accent, Success, Error, Pending string
	Fresh, Stale                                  string
	BoxUnchecked, BoxChecked                      string
	CornerTL, CornerTR, CornerBL, CornerBR        string
	H, V                                          string
	SymFresh, SymStale                            string
}

var current = classicTheme()

// Themes lists the accepted theme names.
var Themes = []string{"classic", "neon", "mono"}

func classicTheme() Theme {
	return Theme{
		Title: bold, Muted: fgGray, Accent: fgBlue,
		Success: fgGreen, Error: fgRed, Pending: fgYellow,
		Fresh: fgGreen, Stale: fgRed,
		BoxUnchecked: "☐", BoxChecked: "☑",
		CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
		H: "─", V: "│",
		SymFresh: "●", SymStale: "●",
	}
}

// SetTheme switches the plain-output theme; unknown names fall back to classic.
func SetTheme(name string) {
	switch strings.ToLower(name) {
	case "neon":
		current = Theme{
			Title: "\033[95m", // bright magenta
			Muted: fgGray, Accent: "\033[96m",
			Success: "\033[92m", Error: fgRed, Pending: "\033[93m",
			Fresh: "\033[92m", Stale: "\033[91m",
			BoxUnchecked: "◻", BoxChecked: "◼",
			CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
			H: "─", V: "│",
			SymFresh: "◆", SymStale: "◇",
		}
	case "mono":
		disableColor = true
		current = Theme{
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
			SymFresh: "new", SymStale: "old",
		}
	default:
		current = classicTheme()
	}
}

// Current exposes what renderers need.
func Current() Theme { return current }

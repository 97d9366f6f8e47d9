// Package format builds the fixed-width text lines shown on the display.
package format

import "strings"

const (
	// Width is the column count of a 16x2 display.
	Width = 16

	// MaxLevel is the number of cells in the CPU bar.
	MaxLevel = 10

	barLabel = "CPU: "
	barFill  = "#"
	barEmpty = " "
)

// Line returns text as exactly width runes: shorter input is left-justified
// and padded with spaces, longer input is cut after its first width runes.
func Line(text string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(text)
	if len(r) >= width {
		return string(r[:width])
	}
	return text + strings.Repeat(" ", width-len(r))
}

// Bar renders a CPU level as "CPU: " followed by level fill cells and
// MaxLevel-level blanks. Out of range levels are clamped.
func Bar(level int) string {
	if level < 0 {
		level = 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return barLabel + strings.Repeat(barFill, level) + strings.Repeat(barEmpty, MaxLevel-level)
}

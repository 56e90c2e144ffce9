// internal/render/render.go
// Package render rasterizes text into fixed 6x22 display frames.
package render

import (
	"strings"

	"github.com/colebrumley/flapboard/internal/symbol"
)

// Display dimensions.
const (
	Rows = 6
	Cols = 22
)

// Grid is one full display frame of symbol codes. The fixed array type
// guarantees the 6x22 shape everywhere a Grid exists.
type Grid [Rows][Cols]int

// Slices returns the grid as nested slices, for JSON payloads.
func (g Grid) Slices() [][]int {
	rows := make([][]int, Rows)
	for i := range g {
		rows[i] = make([]int, Cols)
		copy(rows[i], g[i][:])
	}
	return rows
}

// FromSlices converts nested slices to a Grid, reporting whether the
// input had exactly 6 rows of 22 columns.
func FromSlices(rows [][]int) (Grid, bool) {
	var g Grid
	if len(rows) != Rows {
		return g, false
	}
	for i, row := range rows {
		if len(row) != Cols {
			return g, false
		}
		copy(g[i][:], row)
	}
	return g, true
}

// Wrap greedily word-wraps text to the given display-cell width. Widths
// are measured with symbol.DisplayLength, so inline tokens count as one
// cell. A single word wider than width is placed alone on its own line
// untouched; truncation happens at render time.
func Wrap(text string, width int) []string {
	var lines []string
	var current []string
	currentLen := 0

	for _, word := range strings.Fields(text) {
		wordLen := symbol.DisplayLength(word)
		sep := 0
		if len(current) > 0 {
			sep = 1
		}
		if currentLen+wordLen+sep <= width {
			current = append(current, word)
			currentLen += wordLen + sep
		} else {
			if len(current) > 0 {
				lines = append(lines, strings.Join(current, " "))
			}
			current = []string{word}
			currentLen = wordLen
		}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}

// RenderLines places up to 6 pre-split lines on a grid. Each line is
// encoded, truncated to 22 cells, and either centered with integer
// half-padding or left-aligned at column 0. Extra lines are dropped;
// rows beyond the supplied lines stay blank.
func RenderLines(lines []string, center bool) Grid {
	var g Grid
	for row, line := range lines {
		if row >= Rows {
			break
		}
		codes := symbol.Encode(line)
		if len(codes) > Cols {
			codes = codes[:Cols]
		}
		start := 0
		if center {
			start = (Cols - len(codes)) / 2
		}
		for i, code := range codes {
			g[row][start+i] = code
		}
	}
	return g
}

// RenderMessage wraps free-form text at the display width and renders
// it, keeping at most 6 lines. When centering and fewer than 6 lines
// resulted, blank lines are prefixed to center the block vertically.
func RenderMessage(text string, center bool) Grid {
	lines := Wrap(text, Cols)
	if len(lines) > Rows {
		lines = lines[:Rows]
	}
	if center && len(lines) < Rows {
		pad := (Rows - len(lines)) / 2
		lines = append(make([]string, pad), lines...)
	}
	return RenderLines(lines, center)
}

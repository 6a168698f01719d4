// Package glyph draws the status icons shown while no notes are streamed.
package glyph

import (
	"image/color"

	"github.com/chase3718/pianissimo/internal/layout"
	"github.com/chase3718/pianissimo/internal/strip"
)

// Glyph is a bitmap over the first columns of the strip, one string per rain
// row. '#' is lit.
type Glyph [layout.LEDsPerNote]string

var Bluetooth = Glyph{
	".....##.....",
	".....#.#....",
	"...#.#.#....",
	"....###.....",
	"....###.....",
	"...#.#.#....",
	".....#.#....",
	".....##.....",
}

// Ready spells "OK".
var Ready = Glyph{
	"......#...#.",
	".###..#..#..",
	"#...#.#.#...",
	"#...#.##....",
	"#...#.#.#...",
	"#...#.#..#..",
	".###..#...#.",
	"............",
}

// Draw sets the lit cells of g to c. Cells past the last column are skipped.
func (g Glyph) Draw(s strip.Strip, c color.RGBA) int {
	lit := 0
	for r, line := range g {
		for k := 0; k < len(line) && k < layout.NumNoteColumns; k++ {
			if line[k] != '#' {
				continue
			}
			s.Set(layout.PhysicalIndex(k, r), c)
			lit++
		}
	}
	return lit
}

// Lit counts the cells Draw would set.
func (g Glyph) Lit() int {
	n := 0
	for _, line := range g {
		for k := 0; k < len(line); k++ {
			if line[k] == '#' {
				n++
			}
		}
	}
	return n
}

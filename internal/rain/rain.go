// Package rain keeps the note column state and the scrolling history that
// turns it into a trail on the strip.
package rain

import (
	"image/color"
	"time"

	"golang.org/x/image/colornames"

	"github.com/chase3718/pianissimo/internal/layout"
	"github.com/chase3718/pianissimo/internal/strip"
)

// Depth is the number of history rows, one per lit LED in a column.
const Depth = layout.LEDsPerNote

// Config holds the render parameters that SysEx commands may change.
type Config struct {
	Brightness uint8
	WhiteKey   color.RGBA
	BlackKey   color.RGBA
	Interval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Brightness: 50,
		WhiteKey:   colornames.Blue,
		BlackKey:   colornames.Purple,
		Interval:   100 * time.Millisecond,
	}
}

// Color returns the color a column is drawn with.
func (c Config) Color(column int) color.RGBA {
	if layout.IsWhiteKey(column) {
		return c.WhiteKey
	}
	return c.BlackKey
}

// Columns records which note columns are sounding.
type Columns [layout.NumNoteColumns]bool

// SetActive is a no-op for columns outside the strip.
func (c *Columns) SetActive(column int, on bool) {
	if column < 0 || column >= len(c) {
		return
	}
	c[column] = on
}

func (c Columns) Active(column int) bool {
	if column < 0 || column >= len(c) {
		return false
	}
	return c[column]
}

func (c Columns) Count() int {
	n := 0
	for _, on := range c {
		if on {
			n++
		}
	}
	return n
}

func (c *Columns) Clear() { *c = Columns{} }

// History is the rain: row 0 is the newest snapshot of Columns.
type History [Depth]Columns

// Advance drops the oldest row, shifts the others one row deeper and stores
// cols as row 0.
func (h *History) Advance(cols *Columns) {
	copy(h[1:], h[:Depth-1])
	h[0] = *cols
}

func (h *History) Clear() { *h = History{} }

func (h *History) Empty() bool {
	for r := range h {
		if h[r].Count() > 0 {
			return false
		}
	}
	return true
}

// State is everything the note stream mutates.
type State struct {
	Columns Columns
	History History
}

// ClearAll releases every column and wipes the trail at once, unlike a note
// off which only stops new rows.
func (s *State) ClearAll() {
	s.Columns.Clear()
	s.History.Clear()
}

// Step advances the history with the current columns.
func (s *State) Step() {
	s.History.Advance(&s.Columns)
}

// Draw rebuilds the whole frame from h and returns the number of lit LEDs.
// It does not call Show.
func Draw(s strip.Strip, h *History, cfg Config) int {
	s.Clear()
	lit := 0
	for r := range h {
		for k, on := range h[r] {
			if !on {
				continue
			}
			s.Set(layout.PhysicalIndex(k, r), cfg.Color(k))
			lit++
		}
	}
	return lit
}

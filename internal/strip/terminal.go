package strip

import (
	"image/color"

	"github.com/gdamore/tcell/v2"

	"github.com/chase3718/pianissimo/internal/layout"
)

// Terminal previews the strip in a terminal, one cell pair per column and
// one line per rain row, row 0 at the top. Spacer LEDs are not drawn.
type Terminal struct {
	screen     tcell.Screen
	frame      Frame
	brightness uint8
}

// NewTerminal takes an initialised screen. The caller calls Fini.
func NewTerminal(s tcell.Screen) *Terminal {
	return &Terminal{screen: s, brightness: 0xFF}
}

func (t *Terminal) Clear()                      { t.frame.Clear() }
func (t *Terminal) Set(index int, c color.RGBA) { t.frame.Set(index, c) }
func (t *Terminal) SetBrightness(b uint8)       { t.brightness = b }

func (t *Terminal) Show() error {
	t.screen.Clear()
	for i, c := range t.frame {
		col, row, ok := layout.Logical(i)
		if !ok || c.R|c.G|c.B == 0 {
			continue
		}
		c = Scale(c, t.brightness)
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
		t.screen.SetContent(col*2, row, '█', nil, style)
		t.screen.SetContent(col*2+1, row, '█', nil, style)
	}
	t.screen.Show()
	return nil
}

// Package layout maps logical note columns onto the physical LED strip.
//
// The strip is one long chain cut into regions, one per column. Each region
// holds LEDsPerNote lit rows followed by BlankPerNote spacer LEDs. Odd columns
// run backwards so that neighbouring columns join at the same end:
//
//	col 0: base+0 .. base+7   (row 0 first)
//	col 1: base+7 .. base+0   (row 0 last)
package layout

import "fmt"

const (
	NumNotes       = 12 // pitch classes per octave
	NoteColumns    = 4  // octave groups folded onto the strip
	NumNoteColumns = 44
	LEDsPerNote    = 8
	BlankPerNote   = 3
	RegionSize     = LEDsPerNote + BlankPerNote
	NumLEDs        = NumNoteColumns * RegionSize
)

// PhysicalIndex returns the strip index of (column, row). Row 0 is the most
// recent rain row. Inputs outside the grid panic.
func PhysicalIndex(column, row int) int {
	if column < 0 || column >= NumNoteColumns || row < 0 || row >= LEDsPerNote {
		panic("layout: cell out of range")
	}
	base := column * RegionSize
	if column&1 == 1 {
		return base + (LEDsPerNote - 1 - row)
	}
	return base + row
}

// Logical is the inverse of PhysicalIndex. ok is false for spacer LEDs and
// indices past the end of the strip.
func Logical(index int) (column, row int, ok bool) {
	if index < 0 || index >= NumLEDs {
		return 0, 0, false
	}
	column = index / RegionSize
	offset := index % RegionSize
	if offset >= LEDsPerNote {
		return 0, 0, false
	}
	if column&1 == 1 {
		return column, LEDsPerNote - 1 - offset, true
	}
	return column, offset, true
}

// Column folds a MIDI note number onto a logical column. ok is false when the
// note lands past the last column.
func Column(note uint8) (column int, ok bool) {
	degree := int(note % NumNotes)
	octave := int(note / NumNotes)
	column = degree + (octave%NoteColumns)*NumNotes
	return column, column < NumNoteColumns
}

var whiteKeys = [NumNotes]bool{0: true, 2: true, 4: true, 5: true, 7: true, 9: true, 11: true}

// IsWhiteKey reports whether the column's pitch class is a natural.
func IsWhiteKey(column int) bool {
	return whiteKeys[column%NumNotes]
}

var noteNames = [NumNotes]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName spells a MIDI note in scientific pitch notation, 60 being C4.
func NoteName(note uint8) string {
	return fmt.Sprintf("%s%d", noteNames[note%NumNotes], int(note/NumNotes)-1)
}

package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhysicalIndexInjectiveAndInRange(t *testing.T) {
	seen := make(map[int][2]int, NumNoteColumns*LEDsPerNote)
	for c := 0; c < NumNoteColumns; c++ {
		for r := 0; r < LEDsPerNote; r++ {
			idx := PhysicalIndex(c, r)
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, NumLEDs)
			prev, dup := seen[idx]
			require.False(t, dup, "index %d used by %v and (%d,%d)", idx, prev, c, r)
			seen[idx] = [2]int{c, r}
		}
	}
	assert.Len(t, seen, NumNoteColumns*LEDsPerNote)
}

func TestPhysicalIndexSerpentine(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(0, PhysicalIndex(0, 0))
	assert.Equal(7, PhysicalIndex(0, 7))
	assert.Equal(18, PhysicalIndex(1, 0))
	assert.Equal(11, PhysicalIndex(1, 7))
	assert.Equal(22, PhysicalIndex(2, 0))
	assert.Equal(43*RegionSize, PhysicalIndex(43, 7))
}

func TestPhysicalIndexPanicsOutOfRange(t *testing.T) {
	assert.Panics(t, func() { PhysicalIndex(NumNoteColumns, 0) })
	assert.Panics(t, func() { PhysicalIndex(0, LEDsPerNote) })
	assert.Panics(t, func() { PhysicalIndex(-1, 0) })
}

func TestLogicalRoundTrip(t *testing.T) {
	for c := 0; c < NumNoteColumns; c++ {
		for r := 0; r < LEDsPerNote; r++ {
			gc, gr, ok := Logical(PhysicalIndex(c, r))
			require.True(t, ok)
			require.Equal(t, c, gc)
			require.Equal(t, r, gr)
		}
	}
}

func TestLogicalSpacers(t *testing.T) {
	for _, idx := range []int{8, 9, 10, 19, 21, -1, NumLEDs} {
		_, _, ok := Logical(idx)
		assert.False(t, ok, "index %d", idx)
	}
}

func TestColumn(t *testing.T) {
	tests := []struct {
		note   uint8
		column int
		ok     bool
	}{
		{0, 0, true},
		{11, 11, true},
		{12, 12, true},
		{43, 43, true},
		{44, 44, false},
		{47, 47, false},
		{48, 0, true},
		{60, 12, true},
		{61, 13, true},
		{127, 31, true},
	}
	for _, tt := range tests {
		c, ok := Column(tt.note)
		assert.Equal(t, tt.column, c, "note %d", tt.note)
		assert.Equal(t, tt.ok, ok, "note %d", tt.note)
	}
}

func TestIsWhiteKey(t *testing.T) {
	white := 0
	for c := 0; c < NumNotes; c++ {
		if IsWhiteKey(c) {
			white++
		}
	}
	assert.Equal(t, 7, white)
	assert.True(t, IsWhiteKey(12))
	assert.False(t, IsWhiteKey(13))
	assert.True(t, IsWhiteKey(23))
}

func TestNoteName(t *testing.T) {
	assert.Equal(t, "C4", NoteName(60))
	assert.Equal(t, "C-1", NoteName(0))
	assert.Equal(t, "A#3", NoteName(58))
	assert.Equal(t, "G9", NoteName(127))
}

package rain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chase3718/pianissimo/internal/layout"
	"github.com/chase3718/pianissimo/internal/strip"
)

func TestColumnsBounds(t *testing.T) {
	var c Columns
	c.SetActive(-1, true)
	c.SetActive(layout.NumNoteColumns, true)
	assert.Zero(t, c.Count())
	assert.False(t, c.Active(layout.NumNoteColumns))

	c.SetActive(12, true)
	assert.True(t, c.Active(12))
	c.SetActive(12, false)
	assert.False(t, c.Active(12))
}

func TestHistoryShiftsOneRowPerAdvance(t *testing.T) {
	var s State
	s.Columns.SetActive(5, true)
	s.Step()
	s.Columns.SetActive(5, false)

	for r := 0; r < Depth; r++ {
		for row := range s.History {
			assert.Equal(t, row == r, s.History[row][5], "after %d steps, row %d", r+1, row)
		}
		s.Step()
	}
}

func TestTrailAgesOutInExactlyDepthTicks(t *testing.T) {
	var s State
	for k := 0; k < layout.NumNoteColumns; k++ {
		s.Columns.SetActive(k, true)
	}
	for i := 0; i < Depth; i++ {
		s.Step()
	}
	s.Columns.Clear()

	for i := 0; i < Depth-1; i++ {
		s.Step()
		require.False(t, s.History.Empty(), "empty after %d ticks", i+1)
	}
	s.Step()
	assert.True(t, s.History.Empty())
}

func TestClearAllWipesHistory(t *testing.T) {
	var s State
	s.Columns.SetActive(3, true)
	s.Step()
	s.Step()
	s.ClearAll()
	assert.Zero(t, s.Columns.Count())
	assert.True(t, s.History.Empty())
}

func TestDrawRebuildsFrame(t *testing.T) {
	cfg := DefaultConfig()
	buf := strip.NewBuffer()
	var s State

	s.Columns.SetActive(0, true) // C, white
	s.Columns.SetActive(1, true) // C#, black
	s.Step()
	assert.Equal(t, 2, Draw(buf, &s.History, cfg))
	require.NoError(t, buf.Show())

	f := buf.Shown()
	assert.Equal(t, cfg.WhiteKey, f[layout.PhysicalIndex(0, 0)])
	assert.Equal(t, cfg.BlackKey, f[layout.PhysicalIndex(1, 0)])

	s.Columns.Clear()
	for i := 0; i < Depth; i++ {
		s.Step()
	}
	assert.Zero(t, Draw(buf, &s.History, cfg))
	require.NoError(t, buf.Show())
	assert.Zero(t, buf.Shown().Lit())
}

func TestConfigColor(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.WhiteKey, cfg.Color(14))
	assert.Equal(t, cfg.BlackKey, cfg.Color(15))
}

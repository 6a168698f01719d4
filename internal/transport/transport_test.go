package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers/testdrv"
)

type recordingSink struct {
	mu     sync.Mutex
	events []string
	data   []byte
	onDisc func()
}

func (s *recordingSink) OnChunk(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "chunk")
	s.data = append(s.data, chunk...)
}

func (s *recordingSink) OnConnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "connect")
}

func (s *recordingSink) OnDisconnect() {
	s.mu.Lock()
	s.events = append(s.events, "disconnect")
	s.mu.Unlock()
	if s.onDisc != nil {
		s.onDisc()
	}
}

type chunkReader struct {
	chunks [][]byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func (r *chunkReader) Close() error { return nil }

func TestSerialBridgeForwardsChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &recordingSink{onDisc: cancel}
	open := func() (io.ReadCloser, error) {
		return &chunkReader{chunks: [][]byte{{0x80, 0x80, 0x90}, {0x3C, 0x64}}}, nil
	}
	b := NewSerialBridge(open, sink, nil)
	b.retry = time.Millisecond

	require.NoError(t, b.Run(ctx))
	assert.Equal(t, []string{"connect", "chunk", "chunk", "disconnect"}, sink.events)
	assert.Equal(t, []byte{0x80, 0x80, 0x90, 0x3C, 0x64}, sink.data)
}

func TestSerialBridgeRetriesOpen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attempts := 0
	sink := &recordingSink{onDisc: cancel}
	open := func() (io.ReadCloser, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("no such device")
		}
		return &chunkReader{}, nil
	}
	b := NewSerialBridge(open, sink, nil)
	b.retry = time.Millisecond

	require.NoError(t, b.Run(ctx))
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []string{"connect", "disconnect"}, sink.events)
}

func TestSerialBridgeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewSerialBridge(func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}, &recordingSink{}, nil)
	assert.NoError(t, b.Run(ctx))
}

func TestPickPreferred(t *testing.T) {
	inputs := []string{"Launchkey MK3 MIDI", "Pianissimo Bridge"}

	name, ok := PickPreferred(inputs, []string{"pianissimo"})
	assert.True(t, ok)
	assert.Equal(t, "Pianissimo Bridge", name)

	_, ok = PickPreferred(inputs, nil)
	assert.False(t, ok)

	name, ok = PickPreferred(inputs[:1], nil)
	assert.True(t, ok)
	assert.Equal(t, "Launchkey MK3 MIDI", name)
}

func TestFilterExcluded(t *testing.T) {
	got := FilterExcluded([]string{"Midi Through Port-0", "Digital Piano", "Dummy Output"})
	assert.Equal(t, []string{"Digital Piano"}, got)
}

func TestMIDIWatcherConnectsAndForwards(t *testing.T) {
	drv := testdrv.New("pianissimo")
	sink := &recordingSink{}
	w := NewMIDIWatcher(drv, []string{"pianissimo"}, sink, nil)

	w.Tick(time.Now())
	name, ok := w.Connected()
	require.True(t, ok)
	assert.NotEmpty(t, name)

	outs, err := drv.Outs()
	require.NoError(t, err)
	require.NotEmpty(t, outs)
	send, err := midi.SendTo(outs[0])
	require.NoError(t, err)
	require.NoError(t, send(midi.NoteOn(0, 60, 100)))

	assert.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return bytes.Equal(sink.data, []byte{0x90, 60, 100})
	}, time.Second, 5*time.Millisecond)

	w.Close()
	_, ok = w.Connected()
	assert.False(t, ok)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, "connect", sink.events[0])
	assert.Equal(t, "disconnect", sink.events[len(sink.events)-1])
}

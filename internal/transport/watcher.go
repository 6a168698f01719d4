// Package transport delivers raw MIDI byte chunks and connection events to a
// Sink. It stands in for the BLE peripheral: a USB or virtual MIDI input, or
// a serial bridge forwarding BLE characteristic writes verbatim.
package transport

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Sink receives transport events. Chunks arrive in order; their boundaries
// mean nothing.
type Sink interface {
	OnChunk(chunk []byte)
	OnConnect()
	OnDisconnect()
}

// ExcludedPatterns: virtual/system ports that are never auto-connected.
var ExcludedPatterns = []string{"Midi Through", "Through Port", "Dummy"}

const midiRescanInterval = 1000 * time.Millisecond

// MIDIWatcher monitors available MIDI inputs and maintains a connection to the
// preferred device. It handles hot-plug (new device appears) and hot-unplug
// (device disappears) transparently.
//
// Every received message is forwarded to the sink as one chunk. The sink sees
// OnConnect before the first chunk of a device and OnDisconnect once the
// device is gone.
type MIDIWatcher struct {
	mu           sync.Mutex
	drv          drivers.Driver
	inPort       drivers.In
	stopFn       func()
	connected    bool
	selectedName string
	lastRescanAt time.Time

	preferred []string
	sink      Sink
	logger    *slog.Logger
}

// NewMIDIWatcher watches the inputs of drv. Inputs whose name contains one of
// preferred win; with no match a lone input is used.
func NewMIDIWatcher(drv drivers.Driver, preferred []string, sink Sink, logger *slog.Logger) *MIDIWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MIDIWatcher{
		drv:       drv,
		preferred: preferred,
		sink:      sink,
		logger:    logger,
	}
}

// Close shuts down the active MIDI connection and the driver.
func (m *MIDIWatcher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected {
		m.closeConn()
		m.sink.OnDisconnect()
	}
	if err := m.drv.Close(); err != nil {
		m.logger.Warn("midi: driver close", "err", err)
	}
}

// Tick should be called on a regular interval from the main loop. It scans
// for devices, auto-connects to a preferred one, and detects disappearances.
func (m *MIDIWatcher) Tick(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.lastRescanAt.IsZero() && now.Sub(m.lastRescanAt) < midiRescanInterval {
		return
	}
	m.lastRescanAt = now

	inputs := m.listInputs()

	if m.connected {
		for _, n := range inputs {
			if n == m.selectedName {
				return
			}
		}
		m.logger.Warn("midi: device disappeared", "device", m.selectedName)
		m.closeConn()
		m.lastRescanAt = time.Time{} // rescan immediately next tick
		m.sink.OnDisconnect()
		return
	}

	if len(inputs) == 0 {
		return
	}
	cand, ok := PickPreferred(inputs, m.preferred)
	if !ok {
		m.logger.Debug("midi: no preferred device", "available", strings.Join(inputs, ", "))
		return
	}
	if err := m.openByName(cand); err != nil {
		m.logger.Error("midi: connect failed", "device", cand, "err", err)
	}
}

// Connected reports the name of the open device.
func (m *MIDIWatcher) Connected() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectedName, m.connected
}

func (m *MIDIWatcher) listInputs() []string {
	ins, err := m.drv.Ins()
	if err != nil {
		m.logger.Error("midi: list inputs failed", "err", err)
		return nil
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	names = FilterExcluded(names)
	m.logger.Debug("midi: inputs found", "count", len(names), "devices", strings.Join(names, ", "))
	return names
}

// FilterExcluded drops inputs matching ExcludedPatterns.
func FilterExcluded(names []string) []string {
	var out []string
	for _, name := range names {
		excluded := false
		for _, pat := range ExcludedPatterns {
			if containsCI(name, pat) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, name)
		}
	}
	return out
}

// PickPreferred returns the first input matching a pattern, in pattern
// order, or the only input when nothing matches.
func PickPreferred(inputs, patterns []string) (string, bool) {
	for _, pat := range patterns {
		for _, name := range inputs {
			if containsCI(name, pat) {
				return name, true
			}
		}
	}
	if len(inputs) == 1 {
		return inputs[0], true
	}
	return "", false
}

func (m *MIDIWatcher) closeConn() {
	if m.stopFn != nil {
		m.stopFn()
		m.stopFn = nil
	}
	if m.inPort != nil {
		_ = m.inPort.Close()
		m.inPort = nil
	}
	m.connected = false
	m.selectedName = ""
}

func (m *MIDIWatcher) openByName(name string) error {
	ins, err := m.drv.Ins()
	if err != nil {
		return err
	}
	var found drivers.In
	for _, in := range ins {
		if in.String() == name {
			found = in
			break
		}
	}
	if found == nil {
		return fmt.Errorf("input %q not found", name)
	}
	if err := found.Open(); err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}

	m.sink.OnConnect()
	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		m.sink.OnChunk(msg)
	}, midi.UseSysEx(), midi.HandleError(func(listenErr error) {
		m.logger.Warn("midi: listener error", "device", name, "err", listenErr)
		// Must not call closeConn from within the listener goroutine, so
		// we dispatch to a new goroutine and re-acquire the mutex.
		go func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.connected && m.selectedName == name {
				m.closeConn()
				m.lastRescanAt = time.Time{} // trigger immediate rescan
				m.sink.OnDisconnect()
			}
		}()
	}))
	if err != nil {
		_ = found.Close()
		m.sink.OnDisconnect()
		return fmt.Errorf("listen %q: %w", name, err)
	}

	m.inPort = found
	m.stopFn = stop
	m.connected = true
	m.selectedName = name
	m.logger.Info("midi: connected", "device", name)
	return nil
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

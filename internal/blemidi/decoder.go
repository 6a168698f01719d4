// Package blemidi decodes the raw byte chunks written to a BLE-MIDI
// characteristic into MIDI messages.
//
// Chunks carry no framing guarantees: a message may be split across writes,
// BLE timestamp bytes are interleaved with the MIDI data and running status is
// used freely. Two scans run over every chunk. The first only frames SysEx;
// the second decodes note and control change messages and steps over SysEx
// bodies, so neither scan ever sees the other's bytes as its own.
package blemidi

import (
	"log/slog"

	"gitlab.com/gomidi/midi/v2"
)

const (
	sysExStart = 0xF0
	sysExEnd   = 0xF7

	// MaxSysExLen bounds a SysEx frame, framing bytes included. Longer
	// frames are discarded.
	MaxSysExLen = 256
)

// Handler receives every decoded message. Channel messages are always three
// bytes with the status expanded; SysEx messages are the complete frame from
// 0xF0 to 0xF7. The handler owns the message.
type Handler func(msg midi.Message)

// Decoder is not safe for concurrent use.
type Decoder struct {
	handler Handler
	logger  *slog.Logger

	// note/CC scan
	status  byte // running status, 0 = none
	inSysEx bool

	// SysEx scan
	collecting bool
	sysEx      [MaxSysExLen]byte
	sysExLen   int
}

// NewDecoder returns a decoder delivering messages to h. A nil logger uses
// slog.Default().
func NewDecoder(h Handler, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{handler: h, logger: logger}
}

// Reset forgets running status and any partial SysEx frame. Call it when a
// new connection starts.
func (d *Decoder) Reset() {
	d.status = 0
	d.inSysEx = false
	d.collecting = false
	d.sysExLen = 0
}

// RunningStatus returns the current running status byte, 0 if none.
func (d *Decoder) RunningStatus() byte { return d.status }

// Write decodes one transport chunk. It never fails: malformed input is
// dropped and decoding continues with the next byte.
func (d *Decoder) Write(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	d.scanSysEx(chunk)
	d.scanChannel(chunk)
}

func (d *Decoder) scanSysEx(chunk []byte) {
	for _, b := range chunk {
		if b == sysExStart {
			if d.collecting {
				d.logger.Debug("blemidi: sysex restarted, pending frame dropped", "len", d.sysExLen)
			}
			d.collecting = true
			d.sysEx[0] = b
			d.sysExLen = 1
			continue
		}
		if !d.collecting {
			continue
		}
		if d.sysExLen == MaxSysExLen {
			d.logger.Debug("blemidi: sysex too long, frame dropped", "max", MaxSysExLen)
			d.collecting = false
			d.sysExLen = 0
			continue
		}
		d.sysEx[d.sysExLen] = b
		d.sysExLen++
		if b == sysExEnd {
			frame := make(midi.Message, d.sysExLen)
			copy(frame, d.sysEx[:d.sysExLen])
			d.collecting = false
			d.sysExLen = 0
			d.handler(frame)
		}
	}
}

func isChannelStatus(b byte) bool {
	switch b & 0xF0 {
	case 0x80, 0x90, 0xB0:
		return true
	}
	return false
}

func (d *Decoder) scanChannel(chunk []byte) {
	n := len(chunk)
	for j := 0; j < n; {
		b := chunk[j]

		// SysEx bodies of any length are skipped; only the framing scan
		// caps what it keeps.
		if d.inSysEx {
			if b == sysExEnd {
				d.inSysEx = false
			}
			j++
			continue
		}
		if b == sysExStart {
			d.inSysEx = true
			j++
			continue
		}

		if b&0x80 != 0 {
			// Anything that is not note off/on or control change is a BLE
			// header or timestamp byte and leaves running status alone.
			if isChannelStatus(b) {
				d.status = b
			}
			j++
			continue
		}

		if d.status == 0 {
			d.logger.Debug("blemidi: data byte without status dropped", "byte", b)
			j++
			continue
		}

		if j+1 >= n {
			d.logger.Debug("blemidi: pair split at chunk end dropped", "status", d.status, "data", b)
			return
		}
		second := chunk[j+1]
		if second&0x80 != 0 {
			d.logger.Debug("blemidi: incomplete pair dropped", "status", d.status, "data", b)
			j++
			continue
		}
		d.handler(midi.Message{d.status, b, second})
		j += 2
	}
}

// Package sysex applies the configuration commands carried in vendor SysEx
// frames:
//
//	F0 7D <cmd> <payload...> F7
//
//	01 b        brightness
//	02 r g b    white key color
//	03 r g b    black key color
//	04 hi lo    rain step interval in ms, hi*128+lo
package sysex

import (
	"image/color"
	"log/slog"
	"time"

	"gitlab.com/gomidi/midi/v2"
)

const (
	VendorID = 0x7D

	CmdBrightness = 0x01
	CmdWhiteKey   = 0x02
	CmdBlackKey   = 0x03
	CmdInterval   = 0x04

	minFrameLen = 5
)

// Target receives validated configuration changes.
type Target interface {
	SetBrightness(b uint8)
	SetWhiteKey(c color.RGBA)
	SetBlackKey(c color.RGBA)
	SetInterval(d time.Duration)
}

type Interpreter struct {
	target Target
	logger *slog.Logger
}

func NewInterpreter(t Target, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{target: t, logger: logger}
}

// Apply runs the command in a complete frame, 0xF0 and 0xF7 included. It
// reports whether the frame changed anything. Frames with the wrong shape,
// another vendor id, an unknown command or a short payload are ignored.
func (in *Interpreter) Apply(frame []byte) bool {
	if len(frame) < minFrameLen {
		return false
	}
	if frame[0] != 0xF0 || frame[1] != VendorID || frame[len(frame)-1] != 0xF7 {
		in.logger.Debug("sysex: foreign frame ignored", "len", len(frame))
		return false
	}
	cmd := frame[2]
	pl := frame[3 : len(frame)-1]

	switch cmd {
	case CmdBrightness:
		if len(pl) < 1 {
			break
		}
		in.logger.Info("sysex: brightness", "value", pl[0])
		in.target.SetBrightness(pl[0])
		return true
	case CmdWhiteKey, CmdBlackKey:
		if len(pl) < 3 {
			break
		}
		c := color.RGBA{R: pl[0], G: pl[1], B: pl[2], A: 0xFF}
		if cmd == CmdWhiteKey {
			in.logger.Info("sysex: white key color", "r", c.R, "g", c.G, "b", c.B)
			in.target.SetWhiteKey(c)
		} else {
			in.logger.Info("sysex: black key color", "r", c.R, "g", c.G, "b", c.B)
			in.target.SetBlackKey(c)
		}
		return true
	case CmdInterval:
		if len(pl) < 2 {
			break
		}
		ms := uint16(pl[0])*128 + uint16(pl[1])
		in.logger.Info("sysex: interval", "ms", ms)
		in.target.SetInterval(time.Duration(ms) * time.Millisecond)
		return true
	default:
		in.logger.Debug("sysex: unknown command", "cmd", cmd)
		return false
	}
	in.logger.Debug("sysex: payload too short", "cmd", cmd, "len", len(pl))
	return false
}

// Encode builds a vendor frame for cmd.
func Encode(cmd byte, payload ...byte) midi.Message {
	body := make([]byte, 0, len(payload)+2)
	body = append(body, VendorID, cmd)
	body = append(body, payload...)
	return midi.SysEx(body)
}

func Brightness(b uint8) midi.Message {
	return Encode(CmdBrightness, b)
}

// WhiteKey and BlackKey keep 7 bits per channel so the frame stays valid
// MIDI.
func WhiteKey(c color.RGBA) midi.Message {
	return Encode(CmdWhiteKey, c.R&0x7F, c.G&0x7F, c.B&0x7F)
}

func BlackKey(c color.RGBA) midi.Message {
	return Encode(CmdBlackKey, c.R&0x7F, c.G&0x7F, c.B&0x7F)
}

// Interval clamps d to the 14 bit millisecond range.
func Interval(d time.Duration) midi.Message {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	if ms > 0x3FFF {
		ms = 0x3FFF
	}
	return Encode(CmdInterval, byte(ms>>7), byte(ms&0x7F))
}

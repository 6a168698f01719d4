package strip

import (
	"fmt"
	"image/color"
	"log/slog"
	"net"
)

const (
	wledDRGB = 2  // WLED realtime protocol: plain RGB per LED
	wledWait = 15 // seconds WLED stays in realtime mode after the last packet
)

// WLED streams frames to a WLED controller with the realtime UDP protocol.
// WLED keeps its own brightness setting, so brightness is applied here by
// scaling the pixels before they are sent.
type WLED struct {
	conn       net.Conn
	logger     *slog.Logger
	frame      Frame
	brightness uint8
	buf        []byte
}

// DialWLED connects to addr (host:port, WLED listens on 21324).
func DialWLED(addr string, logger *slog.Logger) (*WLED, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("wled dial %s: %w", addr, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("strip: wled connected", "addr", addr)
	return NewWLED(conn, logger), nil
}

func NewWLED(conn net.Conn, logger *slog.Logger) *WLED {
	if logger == nil {
		logger = slog.Default()
	}
	return &WLED{
		conn:       conn,
		logger:     logger,
		brightness: 0xFF,
		buf:        make([]byte, 0, 2+len(Frame{})*3),
	}
}

func (w *WLED) Clear()                      { w.frame.Clear() }
func (w *WLED) Set(index int, c color.RGBA) { w.frame.Set(index, c) }
func (w *WLED) SetBrightness(b uint8)       { w.brightness = b }

func (w *WLED) Show() error {
	w.buf = append(w.buf[:0], wledDRGB, wledWait)
	for _, c := range w.frame {
		c = Scale(c, w.brightness)
		w.buf = append(w.buf, c.R, c.G, c.B)
	}
	if _, err := w.conn.Write(w.buf); err != nil {
		return fmt.Errorf("wled write: %w", err)
	}
	return nil
}

func (w *WLED) Close() error {
	return w.conn.Close()
}

package strip

import (
	"fmt"
	"image/color"
	"io"
	"log/slog"

	"go.bug.st/serial"
)

// Serial drives a strip through a controller MCU on a serial link. The MCU
// owns the WS2812 timing and the global brightness.
type Serial struct {
	port   io.WriteCloser
	logger *slog.Logger
	frame  Frame
	seq    int
}

// OpenSerial opens the named serial device at the given baud rate.
func OpenSerial(name string, baud int, logger *slog.Logger) (*Serial, error) {
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("strip: serial port opened", "device", name, "baud", baud)
	return NewSerial(p, logger), nil
}

// NewSerial wraps an already open port.
func NewSerial(port io.WriteCloser, logger *slog.Logger) *Serial {
	if logger == nil {
		logger = slog.Default()
	}
	return &Serial{port: port, logger: logger}
}

func (s *Serial) Clear()                      { s.frame.Clear() }
func (s *Serial) Set(index int, c color.RGBA) { s.frame.Set(index, c) }

// Show encodes and writes the pending frame.
func (s *Serial) Show() error {
	if err := s.send(framePacket(&s.frame)); err != nil {
		return err
	}
	s.seq++
	s.logger.Debug("strip: frame sent", "seq", s.seq, "lit", s.frame.Lit())
	return nil
}

// SetBrightness is applied by the MCU straight away. Write errors are logged;
// the next Show reports a broken link anyway.
func (s *Serial) SetBrightness(b uint8) {
	if err := s.send(Packet{Cmd: CmdSetBrightness, Payload: []byte{b}}); err != nil {
		s.logger.Error("strip: brightness write error", "err", err)
		return
	}
	s.logger.Info("strip: brightness set", "value", b)
}

func (s *Serial) send(p Packet) error {
	data := p.Encode()
	if _, err := s.port.Write(data); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

// Close closes the underlying serial port.
func (s *Serial) Close() error {
	s.logger.Info("strip: closing serial port")
	return s.port.Close()
}

// Ports lists the serial devices present on the system.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

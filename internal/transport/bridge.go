package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.bug.st/serial"
)

const (
	bridgeRetry       = 1000 * time.Millisecond
	bridgeReadTimeout = 100 * time.Millisecond
	bridgeChunkSize   = 64
)

// Opener opens the byte source of a bridge.
type Opener func() (io.ReadCloser, error)

// SerialOpener opens a serial device with a short read timeout so the read
// loop notices cancellation.
func SerialOpener(name string, baud int) Opener {
	return func() (io.ReadCloser, error) {
		p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		if err := p.SetReadTimeout(bridgeReadTimeout); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
		}
		return p, nil
	}
}

// SerialBridge reads raw BLE-MIDI characteristic writes forwarded by a bridge
// MCU. An open port counts as a connection; a read error ends it and the port
// is reopened after a pause.
type SerialBridge struct {
	open   Opener
	sink   Sink
	logger *slog.Logger
	retry  time.Duration
}

func NewSerialBridge(open Opener, sink Sink, logger *slog.Logger) *SerialBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &SerialBridge{open: open, sink: sink, logger: logger, retry: bridgeRetry}
}

// Run blocks until ctx is done.
func (b *SerialBridge) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		port, err := b.open()
		if err != nil {
			b.logger.Warn("bridge: open failed", "err", err)
			if !b.wait(ctx) {
				return nil
			}
			continue
		}

		b.logger.Info("bridge: connected")
		b.sink.OnConnect()
		err = b.pump(ctx, port)
		_ = port.Close()
		b.sink.OnDisconnect()

		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, io.EOF) {
			b.logger.Warn("bridge: port closed")
		} else {
			b.logger.Warn("bridge: read failed", "err", err)
		}
		if !b.wait(ctx) {
			return nil
		}
	}
}

func (b *SerialBridge) pump(ctx context.Context, r io.Reader) error {
	buf := make([]byte, bridgeChunkSize)
	for ctx.Err() == nil {
		n, err := r.Read(buf)
		if n > 0 {
			b.sink.OnChunk(buf[:n])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *SerialBridge) wait(ctx context.Context) bool {
	t := time.NewTimer(b.retry)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Package controller ties the decoder, the SysEx interpreter and the rain
// renderer to one strip.
//
// Transport callbacks (OnChunk, OnConnect, OnDisconnect) and the render tick
// arrive on different goroutines; a single mutex serializes them so the
// column state, history and render config only ever see one writer.
package controller

import (
	"image/color"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"golang.org/x/image/colornames"

	"github.com/chase3718/pianissimo/internal/blemidi"
	"github.com/chase3718/pianissimo/internal/glyph"
	"github.com/chase3718/pianissimo/internal/layout"
	"github.com/chase3718/pianissimo/internal/rain"
	"github.com/chase3718/pianissimo/internal/strip"
	"github.com/chase3718/pianissimo/internal/sysex"
)

const (
	BlinkInterval  = 600 * time.Millisecond
	BannerDuration = 4000 * time.Millisecond

	ccAllNotesOff = 123
)

var (
	searchColor = colornames.Blue
	readyColor  = colornames.Green
)

// Mode is the visual mode a tick renders. It is derived from the connection
// flags and the banner timer, never stored.
type Mode int

const (
	ModeDisconnected  Mode = iota // blinking Bluetooth icon
	ModeJustConnected             // ready banner
	ModeStreaming                 // live rain
)

func (m Mode) String() string {
	switch m {
	case ModeDisconnected:
		return "disconnected"
	case ModeJustConnected:
		return "just connected"
	case ModeStreaming:
		return "streaming"
	}
	return "unknown"
}

type Options struct {
	Render rain.Config
	Logger *slog.Logger
	// Clock stamps connection events. Defaults to time.Now.
	Clock func() time.Time
}

type Controller struct {
	mu     sync.Mutex
	strip  strip.Strip
	logger *slog.Logger
	clock  func() time.Time

	dec   *blemidi.Decoder
	sysex *sysex.Interpreter
	state rain.State
	cfg   rain.Config

	connected   bool
	banner      bool
	bannerStart time.Time
	bannerDrawn bool
	blinkOn     bool
	blinkLast   time.Time
	lastStep    time.Time
}

func New(s strip.Strip, opts Options) *Controller {
	c := &Controller{
		strip:  s,
		logger: opts.Logger,
		clock:  opts.Clock,
		cfg:    opts.Render,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	c.dec = blemidi.NewDecoder(c.handle, c.logger)
	c.sysex = sysex.NewInterpreter(configTarget{c}, c.logger)
	return c
}

// Start pushes the initial brightness and a blank frame.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strip.SetBrightness(c.cfg.Brightness)
	c.strip.Clear()
	return c.strip.Show()
}

// OnChunk decodes one transport write.
func (c *Controller) OnChunk(chunk []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dec.Write(chunk)
}

func (c *Controller) OnConnect() {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	c.banner = true
	c.bannerStart = now
	c.bannerDrawn = false
	c.dec.Reset()
	c.logger.Info("controller: connected")
}

// OnDisconnect releases every column; notes that were held when the link
// dropped will never see their note off.
func (c *Controller) OnDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.state.Columns.Clear()
	c.logger.Warn("controller: disconnected, all columns released")
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode()
}

func (c *Controller) mode() Mode {
	switch {
	case c.banner:
		return ModeJustConnected
	case !c.connected:
		return ModeDisconnected
	}
	return ModeStreaming
}

// Config returns a copy of the current render configuration.
func (c *Controller) Config() rain.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Columns returns a copy of the column state.
func (c *Controller) Columns() rain.Columns {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Columns
}

// History returns a copy of the rain history.
func (c *Controller) History() rain.History {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.History
}

// Tick runs one scheduler iteration. Modes are checked in priority order:
// banner, then disconnected, then streaming.
func (c *Controller) Tick(now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.banner {
		if now.Sub(c.bannerStart) > BannerDuration {
			c.banner = false
			c.state.History.Clear()
			c.strip.Clear()
			c.logger.Debug("controller: banner done, streaming")
			return c.strip.Show()
		}
		if c.bannerDrawn {
			return nil
		}
		c.bannerDrawn = true
		c.strip.Clear()
		glyph.Ready.Draw(c.strip, readyColor)
		return c.strip.Show()
	}

	if !c.connected {
		if now.Sub(c.blinkLast) <= BlinkInterval {
			return nil
		}
		c.blinkLast = now
		c.blinkOn = !c.blinkOn
		c.strip.Clear()
		if c.blinkOn {
			glyph.Bluetooth.Draw(c.strip, searchColor)
		}
		return c.strip.Show()
	}

	if now.Sub(c.lastStep) < c.cfg.Interval {
		return nil
	}
	c.lastStep = now
	c.state.Step()
	rain.Draw(c.strip, &c.state.History, c.cfg)
	return c.strip.Show()
}

// handle runs with c.mu held, from inside OnChunk.
func (c *Controller) handle(msg midi.Message) {
	var ch, key, vel, ctrl, val uint8
	var data []byte

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		c.setNote(key, true)
	case msg.GetNoteEnd(&ch, &key):
		c.setNote(key, false)
	case msg.GetControlChange(&ch, &ctrl, &val):
		if ctrl == ccAllNotesOff && val == 0 {
			c.allNotesOff()
		}
	case msg.GetSysEx(&data):
		c.sysex.Apply(msg)
	default:
		c.logger.Debug("controller: unhandled message", "msg", msg.String())
	}
}

func (c *Controller) setNote(note uint8, on bool) {
	column, ok := layout.Column(note)
	if !ok {
		c.logger.Debug("controller: note outside strip", "note", layout.NoteName(note), "column", column)
		return
	}
	c.state.Columns.SetActive(column, on)
	c.logger.Debug("controller: column", "note", layout.NoteName(note), "column", column, "on", on)
}

// allNotesOff blanks the strip at once only while streaming; the banner and
// the blinking icon keep the frame they own.
func (c *Controller) allNotesOff() {
	c.state.ClearAll()
	c.logger.Info("controller: all notes off")
	if c.mode() != ModeStreaming {
		return
	}
	c.strip.Clear()
	if err := c.strip.Show(); err != nil {
		c.logger.Error("controller: all notes off frame", "err", err)
	}
}

// configTarget applies SysEx changes. Its methods run with c.mu held.
type configTarget struct{ c *Controller }

func (t configTarget) SetBrightness(b uint8) {
	t.c.cfg.Brightness = b
	t.c.strip.SetBrightness(b)
}

func (t configTarget) SetWhiteKey(col color.RGBA) { t.c.cfg.WhiteKey = col }
func (t configTarget) SetBlackKey(col color.RGBA) { t.c.cfg.BlackKey = col }

func (t configTarget) SetInterval(d time.Duration) { t.c.cfg.Interval = d }

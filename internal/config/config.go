// Package config loads the startup settings. Values changed at runtime over
// SysEx are never written back.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"

	"github.com/chase3718/pianissimo/internal/rain"
)

const (
	InputMIDI   = "midi"
	InputBridge = "bridge"

	OutputSerial   = "serial"
	OutputWLED     = "wled"
	OutputTerminal = "term"
)

type Config struct {
	Brightness int    `yaml:"brightness"`
	WhiteKey   string `yaml:"white_key"`
	BlackKey   string `yaml:"black_key"`
	IntervalMS int    `yaml:"interval_ms"`

	Input      string `yaml:"input"`
	MIDIPort   string `yaml:"midi_port"`
	Bridge     string `yaml:"bridge"`
	BridgeBaud int    `yaml:"bridge_baud"`

	Output string `yaml:"output"`
	Serial string `yaml:"serial"`
	Baud   int    `yaml:"baud"`
	WLED   string `yaml:"wled"`
}

func Default() Config {
	return Config{
		Brightness: 50,
		WhiteKey:   "blue",
		BlackKey:   "purple",
		IntervalMS: 100,
		Input:      InputMIDI,
		MIDIPort:   "Pianissimo",
		Bridge:     "/dev/ttyUSB0",
		BridgeBaud: 115200,
		Output:     OutputSerial,
		Serial:     "/dev/ttyACM0",
		Baud:       500000,
		WLED:       "wled.local:21324",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Brightness < 0 || c.Brightness > 255 {
		errs = append(errs, fmt.Errorf("brightness %d out of range 0-255", c.Brightness))
	}
	if c.IntervalMS < 0 || c.IntervalMS > 0x3FFF {
		errs = append(errs, fmt.Errorf("interval_ms %d out of range 0-16383", c.IntervalMS))
	}
	if _, err := ParseColor(c.WhiteKey); err != nil {
		errs = append(errs, fmt.Errorf("white_key: %w", err))
	}
	if _, err := ParseColor(c.BlackKey); err != nil {
		errs = append(errs, fmt.Errorf("black_key: %w", err))
	}
	switch c.Input {
	case InputMIDI, InputBridge:
	default:
		errs = append(errs, fmt.Errorf("unknown input %q", c.Input))
	}
	switch c.Output {
	case OutputSerial, OutputWLED, OutputTerminal:
	default:
		errs = append(errs, fmt.Errorf("unknown output %q", c.Output))
	}
	return errors.Join(errs...)
}

// Render converts the file values into the renderer's start configuration.
func (c Config) Render() (rain.Config, error) {
	if err := c.Validate(); err != nil {
		return rain.Config{}, err
	}
	white, _ := ParseColor(c.WhiteKey)
	black, _ := ParseColor(c.BlackKey)
	return rain.Config{
		Brightness: uint8(c.Brightness),
		WhiteKey:   white,
		BlackKey:   black,
		Interval:   time.Duration(c.IntervalMS) * time.Millisecond,
	}, nil
}

// ParseColor accepts an SVG color name ("purple") or #rrggbb.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}

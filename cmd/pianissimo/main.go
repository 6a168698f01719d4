package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/chase3718/pianissimo/internal/config"
	"github.com/chase3718/pianissimo/internal/controller"
	"github.com/chase3718/pianissimo/internal/strip"
	"github.com/chase3718/pianissimo/internal/transport"
)

// -------------------- Logger --------------------

// logger is the package-wide structured logger. Safe to use before initLogger
// is called; defaults to slog.Default().
var logger = slog.Default()

// initLogger configures the shared slog logger and calls slog.SetDefault so
// the stdlib log package also routes through the same handler.
func initLogger(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug, // include file:line in debug mode
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

// -------------------- Tunables --------------------

const TICK_MS = 5

// -------------------- Main --------------------

func main() {
	debug := flag.Bool("debug", false, "enable debug logging (adds source location)")
	cfgPath := flag.String("config", "", "YAML file with startup settings")
	listPorts := flag.Bool("list-ports", false, "list serial ports and exit")
	logPath := flag.String("log", "", "log file (default stderr)")

	def := config.Default()
	input := flag.String("input", def.Input, "note source: midi or bridge")
	midiPort := flag.String("midi-port", def.MIDIPort, "preferred MIDI input name pattern")
	bridge := flag.String("bridge", def.Bridge, "serial device of the BLE-MIDI bridge")
	bridgeBaud := flag.Int("bridge-baud", def.BridgeBaud, "bridge baud rate")
	output := flag.String("output", def.Output, "LED output: serial, wled or term")
	serialDev := flag.String("serial", def.Serial, "serial device of the strip controller")
	baud := flag.Int("baud", def.Baud, "strip controller baud rate")
	wled := flag.String("wled", def.WLED, "WLED realtime UDP address")
	flag.Parse()

	logOut := io.Writer(os.Stderr)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open log:", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	initLogger(logOut, *debug)

	if *listPorts {
		ports, err := strip.Ports()
		if err != nil {
			logger.Error("serial: list ports failed", "err", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Error("config: load failed", "path", *cfgPath, "err", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input = *input
		case "midi-port":
			cfg.MIDIPort = *midiPort
		case "bridge":
			cfg.Bridge = *bridge
		case "bridge-baud":
			cfg.BridgeBaud = *bridgeBaud
		case "output":
			cfg.Output = *output
		case "serial":
			cfg.Serial = *serialDev
		case "baud":
			cfg.Baud = *baud
		case "wled":
			cfg.WLED = *wled
		}
	})
	if cfg.Output == config.OutputTerminal && *logPath == "" {
		// the preview owns the terminal
		initLogger(io.Discard, *debug)
	}
	render, err := cfg.Render()
	if err != nil {
		logger.Error("config: invalid", "err", err)
		os.Exit(1)
	}

	logger.Info("pianissimo starting",
		"input", cfg.Input,
		"output", cfg.Output,
		"brightness", render.Brightness,
		"interval_ms", render.Interval.Milliseconds(),
		"debug", *debug,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, closeOut, err := openStrip(cfg, stop)
	if err != nil {
		logger.Error("strip: open failed", "output", cfg.Output, "err", err)
		os.Exit(1)
	}
	defer closeOut()

	ctl := controller.New(out, controller.Options{Render: render, Logger: logger})
	if err := ctl.Start(); err != nil {
		logger.Error("strip: initial frame failed", "err", err)
	}

	var watcher *transport.MIDIWatcher
	switch cfg.Input {
	case config.InputMIDI:
		drv, err := rtmididrv.New()
		if err != nil {
			logger.Error("midi: driver init failed", "err", err)
			os.Exit(1)
		}
		watcher = transport.NewMIDIWatcher(drv, []string{cfg.MIDIPort}, ctl, logger)
		defer watcher.Close()
	case config.InputBridge:
		b := transport.NewSerialBridge(transport.SerialOpener(cfg.Bridge, cfg.BridgeBaud), ctl, logger)
		go func() {
			if err := b.Run(ctx); err != nil {
				logger.Error("bridge: stopped", "err", err)
			}
		}()
	}

	logger.Info("running – waiting for connection")

	ticker := time.NewTicker(TICK_MS * time.Millisecond)
	defer ticker.Stop()

	lastMode := ctl.Mode()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case now := <-ticker.C:
			if watcher != nil {
				watcher.Tick(now)
			}
			if err := ctl.Tick(now); err != nil {
				logger.Error("strip: frame failed", "err", err)
			}
			if m := ctl.Mode(); m != lastMode {
				logger.Info("mode changed", "from", lastMode, "to", m)
				lastMode = m
			}
		}
	}
}

// openStrip opens the configured LED output and returns its cleanup. The
// terminal preview calls quit on Ctrl-C, Esc or q.
func openStrip(cfg config.Config, quit func()) (strip.Strip, func(), error) {
	switch cfg.Output {
	case config.OutputWLED:
		w, err := strip.DialWLED(cfg.WLED, logger)
		if err != nil {
			return nil, nil, err
		}
		return w, func() { _ = w.Close() }, nil
	case config.OutputTerminal:
		screen, err := tcell.NewScreen()
		if err != nil {
			return nil, nil, fmt.Errorf("terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return nil, nil, fmt.Errorf("terminal: %w", err)
		}
		go func() {
			for {
				switch ev := screen.PollEvent().(type) {
				case nil:
					return
				case *tcell.EventKey:
					if ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyEscape || ev.Rune() == 'q' {
						quit()
						return
					}
				}
			}
		}()
		return strip.NewTerminal(screen), screen.Fini, nil
	default:
		s, err := strip.OpenSerial(cfg.Serial, cfg.Baud, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
}

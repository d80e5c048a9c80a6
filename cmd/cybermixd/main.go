// Command cybermixd is the desktop companion for the CyberMix fader deck.
//
// It connects to the device over a USB serial port (or to a simulated device
// over TCP), binds fader channels to host audio sessions, and keeps both
// sides synchronized: fader movements set session volumes, session changes
// move faders, and displays and LEDs follow the active page.
//
// Usage:
//
//	cybermixd [flags]
//
// Flags:
//
//	-config string      Configuration file path
//	-port string        Serial port (default: auto-detect)
//	-tcp string         Connect to a simulated device at this TCP address
//	-state string       State file path (bindings, fader values, page)
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-interactive        Enable interactive command mode
//	-reset              Clear persisted state before starting
//
// Examples:
//
//	# Auto-detect the device and run with the interactive console
//	cybermixd -interactive
//
//	# Explicit port, verbose protocol logging
//	cybermixd -port /dev/ttyACM0 -log-level debug
//
//	# Develop against the simulated device
//	cybermix-device -listen :9151 &
//	cybermixd -tcp localhost:9151 -interactive
//
// Interactive Commands:
//
//	sessions                      - List known audio sessions
//	bindings                      - List channel bindings
//	assign <page> <ch> <identity> - Bind a session to a channel
//	unassign <page> <ch>          - Clear a channel binding
//	page <n>                      - Switch the active page
//	status                        - Show daemon status
//	quit                          - Exit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dentalcow/cybermix/cmd/cybermixd/interactive"
	"github.com/Dentalcow/cybermix/pkg/audio"
	"github.com/Dentalcow/cybermix/pkg/binding"
	"github.com/Dentalcow/cybermix/pkg/config"
	"github.com/Dentalcow/cybermix/pkg/connection"
	"github.com/Dentalcow/cybermix/pkg/host"
	"github.com/Dentalcow/cybermix/pkg/log"
	"github.com/Dentalcow/cybermix/pkg/transport"
)

var flags struct {
	configFile  string
	port        string
	tcp         string
	statePath   string
	logLevel    string
	interactive bool
	reset       bool
}

func init() {
	flag.StringVar(&flags.configFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.port, "port", "", "Serial port (default: auto-detect)")
	flag.StringVar(&flags.tcp, "tcp", "", "Connect to a simulated device at this TCP address")
	flag.StringVar(&flags.statePath, "state", "", "State file path")
	flag.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&flags.interactive, "interactive", false, "Enable interactive command mode")
	flag.BoolVar(&flags.reset, "reset", false, "Clear persisted state before starting")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(flags.configFile)
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}
	applyFlagOverrides(&cfg)

	slogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(slogger)
	protoLogger := log.NewSlogAdapter(slogger)

	slogger.Info("CyberMix companion starting",
		"pages", cfg.Fader.Pages, "state", cfg.StatePath)

	store := binding.NewStore(cfg.StatePath)
	if flags.reset {
		slogger.Info("Resetting persisted state")
		if err := store.Clear(); err != nil {
			slogger.Warn("Failed to clear state", "err", err)
		}
	}

	// The platform mixer binding plugs in behind audio.API. Until one is
	// wired for this platform, the simulated mixer keeps the daemon usable
	// for development and the interactive console.
	api := audio.NewSimAPI("app.music", "app.chat", "app.browser")
	defer api.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mgr *connection.Manager
	coord, err := host.New(host.Config{
		Pages:             cfg.Fader.Pages,
		HeartbeatInterval: cfg.HeartbeatInterval.Std(),
		Suppression:       cfg.Suppression.Std(),
		Logger:            protoLogger,
		OnLinkLost:        func() { mgr.NotifyConnectionLost() },
	}, api, store)
	if err != nil {
		stdlog.Fatalf("Failed to create coordinator: %v", err)
	}

	// The manager cancels the attempt context as soon as this returns; the
	// attached link manages its own lifetime.
	mgr = connection.NewManager(func(ctx context.Context) error {
		conn, err := openDevice(cfg)
		if err != nil {
			return err
		}
		coord.Attach(conn)
		return nil
	})
	mgr.OnStateChange(func(oldState, newState connection.State) {
		slogger.Info("Connection state", "from", oldState.String(), "to", newState.String())
	})
	mgr.StartReconnectLoop()
	defer mgr.Close()

	go func() { _ = coord.Run(ctx) }()
	go connectWithRetry(ctx, mgr, slogger)

	if flags.interactive {
		console, err := interactive.New(coord, mgr)
		if err != nil {
			stdlog.Fatalf("Failed to create console: %v", err)
		}
		// Route log output through readline so it does not mangle the prompt.
		slog.SetDefault(slog.New(slog.NewTextHandler(console.Stdout(), &slog.HandlerOptions{
			Level: parseLevel(cfg.LogLevel),
		})))
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slogger.Info("Received signal", "signal", sig.String())
	case <-ctx.Done():
	}

	slogger.Info("Shutting down")
	cancel()
}

// applyFlagOverrides lets command-line flags win over the config file.
func applyFlagOverrides(cfg *config.Config) {
	if flags.port != "" {
		cfg.Serial.Port = flags.port
	}
	if flags.tcp != "" {
		cfg.Serial.TCP = flags.tcp
	}
	if flags.statePath != "" {
		cfg.StatePath = flags.statePath
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
}

// openDevice opens the configured device link: TCP simulator, explicit
// serial port, or auto-detected serial port, in that order.
func openDevice(cfg config.Config) (io.ReadWriteCloser, error) {
	if cfg.Serial.TCP != "" {
		return transport.Dial(cfg.Serial.TCP)
	}
	port := cfg.Serial.Port
	if port == "" {
		detected, err := transport.DetectPort()
		if err != nil {
			return nil, fmt.Errorf("no port configured and %w", err)
		}
		port = detected
	}
	return transport.OpenSerial(port, cfg.Serial.Baud)
}

// connectWithRetry keeps trying the initial connection with backoff; once
// connected, the manager's reconnect loop takes over on link loss.
func connectWithRetry(ctx context.Context, mgr *connection.Manager, logger *slog.Logger) {
	backoff := connection.NewBackoff()
	for {
		err := mgr.Connect(ctx)
		if err == nil || err == connection.ErrAlreadyConnected {
			return
		}
		if err == connection.ErrConnectionClosed {
			return
		}
		delay := backoff.Next()
		logger.Warn("Device not reachable", "err", err, "retry_in", delay.String())
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// parseLevel maps the config log level to slog.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

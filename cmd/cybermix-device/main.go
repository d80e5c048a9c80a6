// Command cybermix-device is a simulated CyberMix fader deck.
//
// It runs the embedded device loop against simulated peripherals (bus,
// ADCs, button, displays, LED strip) and serves the framed protocol over
// TCP, so the companion daemon can be developed and tested without
// hardware.
//
// Usage:
//
//	cybermix-device [flags]
//
// Flags:
//
//	-listen string      TCP listen address (default ":9151")
//	-pages int          Number of binding pages (default 3)
//	-simulate           Enable synthetic fader motion
//	-log-level string   Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Serve a device with wandering faders
//	cybermix-device -listen :9151 -simulate
//
//	# Quiet device for manual protocol testing
//	cybermix-device -listen localhost:9151
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dentalcow/cybermix/internal/device"
	"github.com/Dentalcow/cybermix/pkg/log"
	"github.com/Dentalcow/cybermix/pkg/transport"
)

// ledCount matches the LED bar on the real deck.
const ledCount = 8

var flags struct {
	listen   string
	pages    int
	simulate bool
	logLevel string
}

func init() {
	flag.StringVar(&flags.listen, "listen", ":9151", "TCP listen address")
	flag.IntVar(&flags.pages, "pages", 3, "Number of binding pages")
	flag.BoolVar(&flags.simulate, "simulate", false, "Enable synthetic fader motion")
	flag.StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if flags.logLevel == "debug" {
		level = slog.LevelDebug
	}
	slogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(slogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Serve one host at a time, forever: when the host disconnects the
	// device goes back to waiting, like hardware waiting to be plugged in.
	for ctx.Err() == nil {
		slogger.Info("Waiting for host", "listen", flags.listen)
		conn, err := transport.Listen(flags.listen)
		if err != nil {
			slogger.Error("Listen failed", "err", err)
			return
		}
		slogger.Info("Host connected")

		if err := serve(ctx, conn, slogger); err != nil && ctx.Err() == nil {
			slogger.Warn("Link ended", "err", err)
		}
		conn.Close()
	}
}

// serve runs one device session over an established link.
func serve(ctx context.Context, conn io.ReadWriteCloser, slogger *slog.Logger) error {
	hw := device.Hardware{
		Bus:     device.NewSimBus(),
		ADC:     &device.SimADC{},
		Button:  &device.SimButton{},
		Display: &device.SimDisplay{},
		Strip:   device.NewSimStrip(ledCount),
	}

	d := device.New(device.Config{
		Pages:  uint8(flags.pages),
		Logger: log.NewSlogAdapter(slogger),
	}, hw, conn)

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if flags.simulate {
		go simulateMotion(sessionCtx, hw.ADC.(*device.SimADC), hw.Button.(*device.SimButton))
	}

	return d.Run(sessionCtx)
}

// simulateMotion wanders the faders and taps the page button occasionally,
// producing realistic device-originated traffic.
func simulateMotion(ctx context.Context, adc *device.SimADC, button *device.SimButton) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	positions := [device.ChannelCount]float64{0.5, 0.5, 0.5, 0.5, 0.5}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// One channel drifts at a time, like a hand on one fader.
			ch := uint8(rng.Intn(device.ChannelCount))
			positions[ch] += (rng.Float64() - 0.5) * 0.1
			if positions[ch] < 0 {
				positions[ch] = 0
			}
			if positions[ch] > 1 {
				positions[ch] = 1
			}
			adc.SetValue(ch, uint16(positions[ch]*1023))

			// Rare page flips.
			if rng.Intn(100) == 0 {
				button.SetPressed(true)
				time.AfterFunc(20*time.Millisecond, func() { button.SetPressed(false) })
			}
		}
	}
}

// Command simstation runs the temperature and luminosity report cycle on the host
// with simulated sensor inputs, writing the telemetry stream to a serial port or stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itohio/templumi/pkg/config"
	"github.com/itohio/templumi/pkg/logging"
	"github.com/itohio/templumi/pkg/monitor"
	"github.com/itohio/templumi/pkg/sensor"
	"github.com/itohio/templumi/pkg/station"
	"github.com/itohio/templumi/pkg/uart"
	flags "github.com/jessevdk/go-flags"
)

type options struct {
	Config       string        `short:"c" long:"config" default:"config.yaml" description:"Configuration file path"`
	Port         string        `short:"p" long:"port" description:"Serial port override (e.g. /dev/ttyUSB0 or COM3)"`
	Stdout       bool          `long:"stdout" description:"Write the telemetry stream to stdout instead of a serial port"`
	TimeScale    float64       `long:"time-scale" description:"Compress the report waits by this factor (overrides config)"`
	StallTimeout time.Duration `long:"stall-timeout" description:"Give up on a stuck converter or transmitter after this long (overrides config)"`
	LogLevel     string        `long:"log-level" description:"Log level: debug, info, warn, error (overrides config)"`
	ListPorts    bool          `long:"list-ports" description:"List available serial ports and exit"`

	Raw map[string]uint16 `long:"raw" description:"Raw counts presented on a channel input (e.g. --raw temperature:210)"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "simstation: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.ListPorts {
		ports, err := monitor.Ports()
		if err != nil {
			return err
		}
		for _, p := range ports {
			fmt.Println(p.Name)
		}
		return nil
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := applyOverrides(cfg, opts); err != nil {
		return err
	}

	log, err := logging.New(os.Stderr, cfg.Log.Level)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if !opts.Stdout {
		port, err := uart.Open(cfg.Serial.Port, cfg.Serial.BaudRate)
		if err != nil {
			return err
		}
		defer port.Close()
		out = port
		log.Info().Str("port", cfg.Serial.Port).Int("baud_rate", cfg.Serial.BaudRate).Msg("writing telemetry to serial port")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := station.NewSimulated(cfg, out, log)
	err = st.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("exiting")
		return nil
	}
	return err
}

func applyOverrides(cfg *config.Config, opts options) error {
	if opts.Port != "" {
		cfg.Serial.Port = opts.Port
	}
	if opts.TimeScale > 0 {
		cfg.Station.TimeScale = opts.TimeScale
	}
	if opts.StallTimeout > 0 {
		cfg.Station.StallTimeout = opts.StallTimeout
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	for name, raw := range opts.Raw {
		ch, err := sensor.ParseChannel(name)
		if err != nil {
			return fmt.Errorf("--raw: %w", err)
		}
		if raw > uint16(sensor.MaxRaw) {
			return fmt.Errorf("--raw %s: %d out of range (max %d)", name, raw, sensor.MaxRaw)
		}
		switch ch {
		case sensor.Temperature:
			cfg.Sim.Temperature = raw
		case sensor.Luminosity:
			cfg.Sim.Luminosity = raw
		}
	}
	return nil
}

// Package station assembles a hosted sensor board: a simulated converter, a
// transmitter writing to any io.Writer and the report cycle driving both.
package station

import (
	"io"

	"github.com/itohio/templumi/pkg/adc"
	"github.com/itohio/templumi/pkg/clock"
	"github.com/itohio/templumi/pkg/config"
	"github.com/itohio/templumi/pkg/cycle"
	"github.com/itohio/templumi/pkg/sensor"
	"github.com/itohio/templumi/pkg/uart"
	"github.com/rs/zerolog"
)

// Station is a simulated board wired to an output stream.
type Station struct {
	*cycle.Scheduler
	Unit *adc.Sim
}

// NewSimulated builds a station from cfg that writes its reports to w.
// Extra options are applied after the ones derived from cfg.
func NewSimulated(cfg *config.Config, w io.Writer, log zerolog.Logger, opts ...cycle.Option) *Station {
	unit := adc.NewSim(cfg.Sim.ConversionPolls)
	unit.SetSource(sensor.Temperature, adc.Jitter(sensor.Raw(cfg.Sim.Temperature), sensor.Raw(cfg.Sim.Jitter), cfg.Sim.Seed))
	unit.SetSource(sensor.Luminosity, adc.Jitter(sensor.Raw(cfg.Sim.Luminosity), sensor.Raw(cfg.Sim.Jitter), cfg.Sim.Seed+1))

	var clk clock.Clock = clock.Real{}
	if cfg.Station.TimeScale > 1 {
		clk = clock.Scaled{Factor: cfg.Station.TimeScale}
	}

	base := []cycle.Option{
		cycle.WithClock(clk),
		cycle.WithLogger(log.With().Str("component", "cycle").Logger()),
		cycle.WithStallTimeout(cfg.Station.StallTimeout),
	}

	return &Station{
		Scheduler: cycle.New(adc.New(unit), uart.New(uart.NewWriterPort(w)), append(base, opts...)...),
		Unit:      unit,
	}
}

package main

import (
	"fmt"
	"time"

	"github.com/itohio/templumi/pkg/monitor"
	"github.com/itohio/templumi/pkg/scope"
	"github.com/itohio/templumi/pkg/sensor"
)

const placeholder = "--"

// readout holds the text shown for the latest reading of each channel.
type readout struct {
	Temperature string
	Luminosity  string
	Status      string

	// Min, mean and max of the readings held in the history
	TemperatureRange string
	LuminosityRange  string

	Faults int
}

func newReadout() readout {
	return readout{
		Temperature: placeholder,
		Luminosity:  placeholder,
		Status:      "disconnected",

		TemperatureRange: placeholder,
		LuminosityRange:  placeholder,
	}
}

// apply folds r into the readout and reports whether r was a fault.
func (ro *readout) apply(r monitor.Reading) bool {
	stamp := r.Timestamp.Format(time.TimeOnly)
	switch {
	case r.Fault:
		ro.Faults++
		ro.Status = fmt.Sprintf("%s board reported ERROR (%d)", stamp, ro.Faults)
		return true
	case r.Channel == sensor.Temperature:
		ro.Temperature = r.Text()
	case r.Channel == sensor.Luminosity:
		ro.Luminosity = r.Text()
	}
	ro.Status = fmt.Sprintf("%s %s updated", stamp, r.Channel)
	return false
}

// summarize updates the range text of ch from st.
func (ro *readout) summarize(ch sensor.Channel, st scope.Stats) {
	text := placeholder
	if st.Count > 0 {
		text = fmt.Sprintf("min %.1f / mean %.1f / max %.1f %s", st.Min, st.Mean, st.Max, ch.Unit())
	}
	switch ch {
	case sensor.Temperature:
		ro.TemperatureRange = text
	case sensor.Luminosity:
		ro.LuminosityRange = text
	}
}

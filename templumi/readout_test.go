package main

import (
	"testing"
	"time"

	"github.com/itohio/templumi/pkg/monitor"
	"github.com/itohio/templumi/pkg/scope"
	"github.com/itohio/templumi/pkg/sensor"
	"github.com/stretchr/testify/assert"
)

func TestReadout_Apply(t *testing.T) {
	ro := newReadout()
	assert.Equal(t, placeholder, ro.Temperature)
	assert.Equal(t, placeholder, ro.Luminosity)

	ts := time.Date(2020, 1, 31, 9, 41, 21, 0, time.UTC)
	fault := ro.apply(monitor.Reading{Timestamp: ts, Channel: sensor.Temperature, Whole: 23, Tenth: 4})
	assert.False(t, fault)
	assert.Equal(t, "23,4 °C", ro.Temperature)
	assert.Equal(t, placeholder, ro.Luminosity)
	assert.Equal(t, "09:41:21 temperature updated", ro.Status)

	ro.apply(monitor.Reading{Timestamp: ts.Add(5 * time.Second), Channel: sensor.Luminosity, Whole: 52, Tenth: 4})
	assert.Equal(t, "52,4 %", ro.Luminosity)

	fault = ro.apply(monitor.Reading{Timestamp: ts, Channel: sensor.Invalid, Fault: true})
	assert.True(t, fault)
	assert.Equal(t, 1, ro.Faults)
	assert.Equal(t, "23,4 °C", ro.Temperature)
	assert.Contains(t, ro.Status, "ERROR")
}

func TestReadout_Summarize(t *testing.T) {
	ro := newReadout()
	assert.Equal(t, placeholder, ro.TemperatureRange)

	h := scope.NewHistory(8)
	ts := time.Date(2020, 1, 31, 9, 41, 21, 0, time.UTC)
	h.Add(monitor.Reading{Timestamp: ts, Channel: sensor.Temperature, Whole: 20, Tenth: 0})
	h.Add(monitor.Reading{Timestamp: ts.Add(10 * time.Second), Channel: sensor.Temperature, Whole: 30, Tenth: 0})

	ro.summarize(sensor.Temperature, h.Stats(sensor.Temperature))
	ro.summarize(sensor.Luminosity, h.Stats(sensor.Luminosity))
	assert.Equal(t, "min 20.0 / mean 25.0 / max 30.0 °C", ro.TemperatureRange)
	assert.Equal(t, placeholder, ro.LuminosityRange)
}

package main

import (
	"testing"
	"time"

	"github.com/itohio/templumi/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	err := applyOverrides(cfg, options{
		Port:         "/dev/ttyACM1",
		TimeScale:    50,
		StallTimeout: time.Second,
		LogLevel:     "debug",
		Raw:          map[string]uint16{"temperature": 210, "luminosity": 0},
	})
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM1", cfg.Serial.Port)
	assert.Equal(t, float64(50), cfg.Station.TimeScale)
	assert.Equal(t, time.Second, cfg.Station.StallTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, uint16(210), cfg.Sim.Temperature)
	assert.Equal(t, uint16(0), cfg.Sim.Luminosity)
}

func TestApplyOverrides_Empty(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, applyOverrides(cfg, options{}))
	assert.Equal(t, config.Default(), cfg)
}

func TestApplyOverrides_InvalidRaw(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]uint16
	}{
		{"unknown channel", map[string]uint16{"humidity": 10}},
		{"out of range", map[string]uint16{"temperature": 1024}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, applyOverrides(config.Default(), options{Raw: tt.raw}))
		})
	}
}

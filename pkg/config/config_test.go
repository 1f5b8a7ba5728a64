package config

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	_, err = tmpfile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	return tmpfile.Name()
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, time.Duration(0), cfg.Station.StallTimeout)
	assert.Equal(t, float64(1), cfg.Station.TimeScale)
	assert.Equal(t, uint16(48), cfg.Sim.Temperature)
	assert.Equal(t, uint16(512), cfg.Sim.Luminosity)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	name := writeTemp(t, `
serial:
  port: "/dev/ttyACM0"
  baud_rate: 57600

station:
  stall_timeout: 2s
  time_scale: 100

sim:
  temperature: 210
  luminosity: 1000
  jitter: 0
  conversion_polls: 4
  seed: 7

mqtt:
  enabled: true
  broker: "tcp://broker:1883"
  topic: "lab/bench"
  client_id: "bench-1"
  qos: 1

view:
  history_size: 64
  window_seconds: 30
  max_points: 40

log:
  level: debug
`)

	cfg, err := Load(name)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.BaudRate)
	assert.Equal(t, 2*time.Second, cfg.Station.StallTimeout)
	assert.Equal(t, float64(100), cfg.Station.TimeScale)
	assert.Equal(t, uint16(210), cfg.Sim.Temperature)
	assert.Equal(t, uint16(1000), cfg.Sim.Luminosity)
	assert.Equal(t, uint16(0), cfg.Sim.Jitter)
	assert.Equal(t, 4, cfg.Sim.ConversionPolls)
	assert.Equal(t, uint64(7), cfg.Sim.Seed)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "lab/bench", cfg.MQTT.Topic)
	assert.Equal(t, "bench-1", cfg.MQTT.ClientID)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, 64, cfg.View.HistorySize)
	assert.Equal(t, 30, cfg.View.WindowSeconds)
	assert.Equal(t, 40, cfg.View.MaxPoints)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lvl)
}

func TestLoad_InvalidYAML(t *testing.T) {
	cfg, err := Load(writeTemp(t, "invalid: yaml: content: ["))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	cfg, err := Load(writeTemp(t, `
serial:
  port: "/dev/ttyACM0"
`))
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)       // default
	assert.Equal(t, float64(1), cfg.Station.TimeScale) // default
	assert.Equal(t, "templumi", cfg.MQTT.Topic)        // default
	assert.Equal(t, 2048, cfg.View.HistorySize)        // default
	assert.Equal(t, 500, cfg.View.MaxPoints)           // default
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"temperature out of range", "sim:\n  temperature: 1024\n"},
		{"luminosity out of range", "sim:\n  luminosity: 5000\n"},
		{"negative stall timeout", "station:\n  stall_timeout: -1s\n"},
		{"bad qos", "mqtt:\n  qos: 3\n"},
		{"bad log level", "log:\n  level: chatty\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeTemp(t, tt.content))
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB1"
	cfg.Station.StallTimeout = 3 * time.Second
	cfg.Sim.Luminosity = 100

	name := writeTemp(t, "")
	require.NoError(t, cfg.Save(name))

	loaded, err := Load(name)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", loaded.Serial.Port)
	assert.Equal(t, 3*time.Second, loaded.Station.StallTimeout)
	assert.Equal(t, uint16(100), loaded.Sim.Luminosity)
}

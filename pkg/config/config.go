package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Station StationConfig `yaml:"station"`
	Sim     SimConfig     `yaml:"sim"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	View    ViewConfig    `yaml:"view"`
	Log     LogConfig     `yaml:"log"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// StationConfig contains settings of the hosted station.
// The report cadence itself is fixed and cannot be configured.
type StationConfig struct {
	StallTimeout time.Duration `yaml:"stall_timeout"` // 0 blocks forever on a stuck peripheral
	TimeScale    float64       `yaml:"time_scale"`    // >1 compresses the waits, ratios preserved
}

// SimConfig contains the simulated converter inputs.
type SimConfig struct {
	Temperature     uint16 `yaml:"temperature"`      // Raw counts presented on the temperature input
	Luminosity      uint16 `yaml:"luminosity"`       // Raw counts presented on the luminosity input
	Jitter          uint16 `yaml:"jitter"`           // Maximum deviation in raw counts
	ConversionPolls int    `yaml:"conversion_polls"` // Flag polls before a conversion completes
	Seed            uint64 `yaml:"seed"`
}

// MQTTConfig contains the telemetry bridge configuration.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`
}

// ViewConfig contains settings of the desktop viewer plots.
type ViewConfig struct {
	HistorySize   int `yaml:"history_size"`   // Readings kept per channel
	WindowSeconds int `yaml:"window_seconds"` // Minimum time span shown on a plot
	MaxPoints     int `yaml:"max_points"`     // Points drawn per plot after decimation
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyUSB0",
			BaudRate: 115200,
		},
		Station: StationConfig{
			StallTimeout: 0,
			TimeScale:    1,
		},
		Sim: SimConfig{
			Temperature:     48,  // 23,4 °C
			Luminosity:      512, // 52,4%
			Jitter:          3,
			ConversionPolls: 13,
			Seed:            1,
		},
		MQTT: MQTTConfig{
			Enabled:  false,
			Broker:   "tcp://localhost:1883",
			Topic:    "templumi",
			ClientID: "templumi",
			QoS:      0,
		},
		View: ViewConfig{
			HistorySize:   2048,
			WindowSeconds: 120,
			MaxPoints:     500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	if c.Sim.Temperature > 1023 {
		return fmt.Errorf("sim.temperature out of range: %d (max 1023)", c.Sim.Temperature)
	}
	if c.Sim.Luminosity > 1023 {
		return fmt.Errorf("sim.luminosity out of range: %d (max 1023)", c.Sim.Luminosity)
	}
	if c.Station.StallTimeout < 0 {
		return fmt.Errorf("station.stall_timeout must not be negative: %v", c.Station.StallTimeout)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2: %d", c.MQTT.QoS)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Station.TimeScale <= 0 {
		c.Station.TimeScale = def.Station.TimeScale
	}

	if c.Sim.ConversionPolls == 0 {
		c.Sim.ConversionPolls = def.Sim.ConversionPolls
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = def.MQTT.Broker
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = def.MQTT.Topic
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}

	if c.View.HistorySize <= 0 {
		c.View.HistorySize = def.View.HistorySize
	}
	if c.View.WindowSeconds <= 0 {
		c.View.WindowSeconds = def.View.WindowSeconds
	}
	if c.View.MaxPoints <= 1 {
		c.View.MaxPoints = def.View.MaxPoints
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

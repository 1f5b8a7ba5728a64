//go:build !tinygo

package uart

import (
	"fmt"

	"go.bug.st/serial"
)

// Mode returns the line settings the sensor board uses at baudRate.
func Mode(baudRate int) *serial.Mode {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	return &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Open opens a host serial port for writing the telemetry stream.
func Open(name string, baudRate int) (serial.Port, error) {
	port, err := serial.Open(name, Mode(baudRate))
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	return port, nil
}

// Package uart drives the single serial transmitter the telemetry is written to.
package uart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

const (
	// DefaultBaudRate is the line rate of the sensor board (8 data bits, no parity, 1 stop bit).
	DefaultBaudRate = 115200
)

// ErrStalled is returned when the transmitter never became ready before ctx was done.
var ErrStalled = errors.New("uart: transmitter stalled")

// Port is the register-level view of the transmitter.
type Port interface {
	// Ready reports whether the transmit data register can accept a byte.
	Ready() bool
	io.ByteWriter
}

// Transmitter writes whole messages to a Port it owns exclusively.
type Transmitter struct {
	mu   sync.Mutex
	port Port
}

// New creates a Transmitter over port.
func New(port Port) *Transmitter {
	return &Transmitter{port: port}
}

// Send writes p byte by byte, waiting for the port before each byte.
//
// It returns once the last byte has been handed to the port. With a context that
// is never done a port that never becomes ready blocks forever.
func (t *Transmitter) Send(ctx context.Context, p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	done := ctx.Done()
	for i, b := range p {
		for !t.port.Ready() {
			select {
			case <-done:
				return fmt.Errorf("%w after %d of %d bytes: %w", ErrStalled, i, len(p), ctx.Err())
			default:
			}
		}
		if err := t.port.WriteByte(b); err != nil {
			return fmt.Errorf("failed to write byte %d of %d: %w", i, len(p), err)
		}
	}
	return nil
}

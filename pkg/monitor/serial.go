package monitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/itohio/templumi/pkg/uart"
	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

const (
	// DefaultBufferSize is the default size for the readings channel buffer.
	DefaultBufferSize = 16
)

var (
	ErrAlreadyConnected = errors.New("monitor: already connected")
	ErrNotConnected     = errors.New("monitor: not connected")
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Serial receives the telemetry stream of a sensor board over a serial port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int
	log      zerolog.Logger

	mu        sync.RWMutex
	conn      serial.Port
	readings  chan Reading
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool
}

// New creates a new Serial instance with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int, log zerolog.Logger) *Serial {
	if baudRate == 0 {
		baudRate = uart.DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		log:      log.With().Str("port", port).Logger(),
		readings: make(chan Reading, bufSize),
	}
}

// Connect opens the serial port and starts reading reports.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return ErrAlreadyConnected
	}

	port, err := serial.Open(d.port, uart.Mode(d.baudRate))
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	readings := make(chan Reading, d.bufSize)
	d.readings = readings
	d.conn = port
	d.cancel = cancel
	d.done = make(chan struct{})
	d.connected = true

	go func() {
		defer close(d.done)
		readReports(ctx, port, readings, d.log)
	}()

	d.log.Info().Int("baud_rate", d.baudRate).Msg("connected")
	return nil
}

// Close closes the port and waits until the readings channel is closed.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	var err error
	if d.conn != nil {
		if err = d.conn.Close(); err != nil {
			err = fmt.Errorf("failed to close serial port %s: %w", d.port, err)
		}
		d.conn = nil
	}

	<-d.done
	d.connected = false
	d.log.Info().Msg("disconnected")

	return err
}

// Readings returns the channel of parsed reports. It is closed after Close.
func (d *Serial) Readings() <-chan Reading {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.readings
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readReports parses reports from r until EOF, a read error or ctx is done,
// then closes out.
func readReports(ctx context.Context, r io.Reader, out chan<- Reading, log zerolog.Logger) {
	defer close(out)

	scanner := bufio.NewScanner(r)
	scanner.Split(scanReports)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()
		if len(line) == 0 || line == " " {
			continue
		}

		reading, err := ParseLine(line)
		if err != nil {
			log.Warn().Err(err).Str("line", line).Msg("failed to parse line")
			continue
		}
		reading.Timestamp = time.Now()

		select {
		case out <- reading:
		case <-ctx.Done():
			return
		default:
			log.Warn().Stringer("channel", reading.Channel).Msg("readings channel full, dropping reading")
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("error reading telemetry stream")
	}
}

package monitor

import (
	"context"
	"io"
	"sync"

	"github.com/itohio/templumi/pkg/config"
	"github.com/itohio/templumi/pkg/cycle"
	"github.com/itohio/templumi/pkg/station"
	"github.com/rs/zerolog"
)

// Mock runs a simulated station in-process and receives its stream through a pipe.
type Mock struct {
	cfg  *config.Config
	opts []cycle.Option
	log  zerolog.Logger

	mu        sync.RWMutex
	readings  chan Reading
	cancel    context.CancelFunc
	pipe      *io.PipeWriter
	done      chan struct{}
	connected bool
	runErr    error
}

// NewMock creates a mocked device. A nil cfg uses config.Default with the
// waits compressed a hundredfold.
func NewMock(cfg *config.Config, log zerolog.Logger, opts ...cycle.Option) *Mock {
	if cfg == nil {
		cfg = config.Default()
		cfg.Station.TimeScale = 100
	}

	return &Mock{
		cfg:      cfg,
		opts:     opts,
		log:      log.With().Str("device", "mock").Logger(),
		readings: make(chan Reading, DefaultBufferSize),
	}
}

// Connect starts the simulated station.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return ErrAlreadyConnected
	}

	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	readings := make(chan Reading, DefaultBufferSize)
	st := station.NewSimulated(m.cfg, pw, m.log, m.opts...)

	done := make(chan struct{})
	m.readings = readings
	m.cancel = cancel
	m.pipe = pw
	m.done = done
	m.connected = true
	m.runErr = nil

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		readReports(ctx, pr, readings, m.log)
		// Unblock the station if the reader stops first.
		pr.Close()
	}()

	go func() {
		defer close(done)
		err := st.Run(ctx)
		// Close cancels ctx once the readings are drained, so decide now
		// whether the station stopped on its own.
		stoppedByClose := ctx.Err() != nil
		pw.CloseWithError(io.EOF)
		<-readerDone

		if err != nil && !stoppedByClose {
			m.mu.Lock()
			m.runErr = err
			m.mu.Unlock()
		}
	}()

	return nil
}

// Close stops the station and waits until the readings channel is closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.cancel()
	m.pipe.Close()
	done := m.done
	m.mu.Unlock()

	<-done

	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return m.runErr
}

// Readings returns the channel of parsed reports. It is closed after Close.
func (m *Mock) Readings() <-chan Reading {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.readings
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

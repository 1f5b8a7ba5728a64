// Package cycle sequences the sample, format and transmit steps of both channels.
//
// The cycle has three states and repeats every 30 seconds of waiting:
//
//	Base                       wait 10s, temperature, wait 5s, luminosity
//	PendingTemperatureCatchup  wait 5s, temperature
//	PendingDualReport          wait 10s, temperature, luminosity
//
// Luminosity is therefore reported at every multiple of 15s and temperature
// every 10s. Any other state is a fault: "ERROR" is sent once and the scheduler
// stops in that state.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itohio/templumi/pkg/clock"
	"github.com/itohio/templumi/pkg/format"
	"github.com/itohio/templumi/pkg/sensor"
)

// ErrFaulted is returned once the scheduler is in a state outside the cycle.
var ErrFaulted = errors.New("cycle: undefined state")

const (
	// ShortWait precedes the luminosity report in Base and the catch-up temperature report.
	ShortWait = 5 * time.Second
	// LongWait precedes the first temperature report of Base and PendingDualReport.
	LongWait = 10 * time.Second
	// LuminosityPeriod is the spacing of luminosity reports.
	LuminosityPeriod = ShortWait + LongWait
)

// State is the position in the report cycle.
type State uint8

const (
	Base State = iota
	PendingTemperatureCatchup
	PendingDualReport
)

// Valid reports whether s is part of the cycle.
func (s State) Valid() bool {
	return s <= PendingDualReport
}

func (s State) String() string {
	switch s {
	case Base:
		return "base"
	case PendingTemperatureCatchup:
		return "pending-temperature-catchup"
	case PendingDualReport:
		return "pending-dual-report"
	default:
		return fmt.Sprintf("fault(%d)", uint8(s))
	}
}

type action struct {
	wait    time.Duration
	channel sensor.Channel
}

type step struct {
	actions []action
	next    State
}

var steps = [...]step{
	Base: {
		actions: []action{{LongWait, sensor.Temperature}, {ShortWait, sensor.Luminosity}},
		next:    PendingTemperatureCatchup,
	},
	PendingTemperatureCatchup: {
		actions: []action{{ShortWait, sensor.Temperature}},
		next:    PendingDualReport,
	},
	PendingDualReport: {
		actions: []action{{LongWait, sensor.Temperature}, {0, sensor.Luminosity}},
		next:    Base,
	},
}

// Sampler converts one value from a channel.
type Sampler interface {
	Sample(ctx context.Context, ch sensor.Channel) (sensor.Raw, error)
}

// Sender transmits one complete message.
type Sender interface {
	Send(ctx context.Context, p []byte) error
}

// Report describes a single line handed to the Sender.
type Report struct {
	State   State
	Channel sensor.Channel
	Raw     sensor.Raw
	Text    string
	Elapsed time.Duration
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock used for the waits. Defaults to clock.Real.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithObserver registers fn to be called after every transmitted report.
func WithObserver(fn func(Report)) Option {
	return func(s *Scheduler) { s.observer = fn }
}

// WithState overrides the initial state.
func WithState(state State) Option {
	return func(s *Scheduler) { s.state = state }
}

// WithStallTimeout bounds every sample and send. Zero waits forever.
func WithStallTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.stallTimeout = d }
}

// Scheduler runs the report cycle. It is not safe for concurrent use; the
// cycle is a single sequential thread of control.
type Scheduler struct {
	sampler Sampler
	sender  Sender

	clock        clock.Clock
	log          logSink
	observer     func(Report)
	stallTimeout time.Duration

	state State
	start time.Time
	line  []byte
}

// New creates a Scheduler starting in Base.
func New(sampler Sampler, sender Sender, opts ...Option) *Scheduler {
	s := &Scheduler{
		sampler: sampler,
		sender:  sender,
		clock:   clock.Real{},
		log:     newLogSink(),
		state:   Base,
		line:    make([]byte, 0, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.start = s.clock.Now()
	return s
}

// State returns the current state.
func (s *Scheduler) State() State {
	return s.state
}

// Run steps through the cycle until ctx is done, a peripheral fails or the
// scheduler faults.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.started(s.state)
	for {
		if err := s.Step(ctx); err != nil {
			s.log.stopped(s.state, err)
			return err
		}
	}
}

// Step performs the actions of the current state and advances to the next one.
// The state only changes after every action of the step succeeded.
func (s *Scheduler) Step(ctx context.Context) error {
	if !s.state.Valid() {
		return s.fault(ctx)
	}

	st := steps[s.state]
	for _, a := range st.actions {
		if a.wait > 0 {
			if err := s.clock.Sleep(ctx, a.wait); err != nil {
				return fmt.Errorf("wait before %s report: %w", a.channel, err)
			}
		}
		if err := s.report(ctx, a.channel); err != nil {
			return err
		}
	}

	s.log.transition(s.state, st.next)
	s.state = st.next
	return nil
}

func (s *Scheduler) report(ctx context.Context, ch sensor.Channel) error {
	sctx, cancel := s.bounded(ctx)
	raw, err := s.sampler.Sample(sctx, ch)
	cancel()
	if err != nil {
		return fmt.Errorf("sample %s: %w", ch, err)
	}

	s.line = format.AppendReading(s.line[:0], ch, raw)
	return s.send(ctx, ch, raw)
}

func (s *Scheduler) fault(ctx context.Context) error {
	s.log.fault(s.state)

	s.line = format.AppendReading(s.line[:0], sensor.Invalid, 0)
	if err := s.send(ctx, sensor.Invalid, 0); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrFaulted, s.state)
}

func (s *Scheduler) send(ctx context.Context, ch sensor.Channel, raw sensor.Raw) error {
	tctx, cancel := s.bounded(ctx)
	err := s.sender.Send(tctx, s.line)
	cancel()
	if err != nil {
		return fmt.Errorf("send %s report: %w", ch, err)
	}

	r := Report{
		State:   s.state,
		Channel: ch,
		Raw:     raw,
		Text:    string(s.line),
		Elapsed: s.clock.Now().Sub(s.start),
	}
	s.log.report(r)
	if s.observer != nil {
		s.observer(r)
	}
	return nil
}

func (s *Scheduler) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.stallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.stallTimeout)
}

//go:build !tinygo

package cycle

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// WithLogger sets the logger. Defaults to a disabled logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = logSink{l} }
}

type logSink struct {
	log zerolog.Logger
}

func newLogSink() logSink {
	return logSink{zerolog.Nop()}
}

func (l logSink) started(state State) {
	l.log.Info().Stringer("state", state).Msg("report cycle started")
}

func (l logSink) stopped(state State, err error) {
	if errors.Is(err, context.Canceled) {
		l.log.Info().Stringer("state", state).Msg("report cycle stopped")
		return
	}
	l.log.Error().Err(err).Stringer("state", state).Msg("report cycle halted")
}

func (l logSink) transition(from, to State) {
	l.log.Debug().Stringer("from", from).Stringer("to", to).Msg("state transition")
}

func (l logSink) fault(state State) {
	l.log.Error().Stringer("state", state).Msg("undefined cycle state")
}

func (l logSink) report(r Report) {
	l.log.Debug().
		Stringer("state", r.State).
		Stringer("channel", r.Channel).
		Uint16("raw", uint16(r.Raw)).
		Dur("elapsed", r.Elapsed).
		Msg("report sent")
}

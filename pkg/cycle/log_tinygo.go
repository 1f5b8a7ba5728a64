//go:build tinygo

package cycle

// The serial line is the only output on the board, so nothing is logged.
type logSink struct{}

func newLogSink() logSink { return logSink{} }

func (logSink) started(State)         {}
func (logSink) stopped(State, error)  {}
func (logSink) transition(_, _ State) {}
func (logSink) fault(State)           {}
func (logSink) report(Report)         {}

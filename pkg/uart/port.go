package uart

import (
	"bytes"
	"io"
	"sync"
)

// WriterPort adapts an io.Writer that is always ready, such as a host serial port or stdout.
type WriterPort struct {
	w   io.Writer
	buf [1]byte
}

var _ Port = (*WriterPort)(nil)

// NewWriterPort wraps w.
func NewWriterPort(w io.Writer) *WriterPort {
	return &WriterPort{w: w}
}

func (p *WriterPort) Ready() bool { return true }

func (p *WriterPort) WriteByte(b byte) error {
	p.buf[0] = b
	_, err := p.w.Write(p.buf[:])
	return err
}

// Recorder is an in-memory Port. Each byte is accepted only after the ready
// flag has been polled a fixed number of times.
type Recorder struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	busyPolls int
	remaining int
	stalled   bool
}

var _ Port = (*Recorder)(nil)

// NewRecorder creates a Recorder that reports busy for busyPolls polls before each byte.
func NewRecorder(busyPolls int) *Recorder {
	return &Recorder{busyPolls: busyPolls, remaining: busyPolls}
}

// SetStalled holds the ready flag low while stalled is true.
func (r *Recorder) SetStalled(stalled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stalled = stalled
}

func (r *Recorder) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stalled {
		return false
	}
	if r.remaining > 0 {
		r.remaining--
		return false
	}
	return true
}

func (r *Recorder) WriteByte(b byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaining = r.busyPolls
	return r.buf.WriteByte(b)
}

// String returns everything written so far.
func (r *Recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// Reset discards everything written so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Reset()
}

package scope

import (
	"sync"
	"time"

	"github.com/itohio/templumi/pkg/monitor"
	"github.com/itohio/templumi/pkg/sensor"
)

// Point is one plotted reading.
type Point struct {
	Timestamp time.Time
	Value     float64
}

// Stats summarises the readings held for one channel.
type Stats struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	Last  float64
}

// History keeps the most recent readings of every channel and the times the
// board reported a fault. It is safe for concurrent use.
type History struct {
	mu       sync.RWMutex
	capacity int
	series   map[sensor.Channel][]Point
	faults   []time.Time
}

// NewHistory creates a History holding at most capacity readings per channel.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{
		capacity: capacity,
		series:   make(map[sensor.Channel][]Point, len(sensor.Channels())),
	}
}

// Add records r. Fault reports are kept separately from the measurements;
// readings of unknown channels are ignored.
func (h *History) Add(r monitor.Reading) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r.Fault {
		h.faults = appendBounded(h.faults, r.Timestamp, h.capacity)
		return
	}
	if !r.Channel.Valid() {
		return
	}
	h.series[r.Channel] = appendBounded(h.series[r.Channel], Point{Timestamp: r.Timestamp, Value: r.Value()}, h.capacity)
}

// Points copies the readings of ch, oldest first, into dst and returns it.
func (h *History) Points(dst []Point, ch sensor.Channel) []Point {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append(dst[:0], h.series[ch]...)
}

// Faults returns the times the board reported ERROR, oldest first.
func (h *History) Faults() []time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]time.Time(nil), h.faults...)
}

// Stats returns the summary of the readings held for ch.
func (h *History) Stats(ch sensor.Channel) Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	pts := h.series[ch]
	if len(pts) == 0 {
		return Stats{}
	}

	st := Stats{Count: len(pts), Min: pts[0].Value, Max: pts[0].Value, Last: pts[len(pts)-1].Value}
	var sum float64
	for _, p := range pts {
		sum += p.Value
		st.Min = min(st.Min, p.Value)
		st.Max = max(st.Max, p.Value)
	}
	st.Mean = sum / float64(len(pts))
	return st
}

// Reset drops everything recorded so far.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.series)
	h.faults = nil
}

// appendBounded appends v and drops the oldest entries beyond capacity.
func appendBounded[T any](s []T, v T, capacity int) []T {
	if len(s) >= capacity {
		n := copy(s, s[len(s)-capacity+1:])
		s = s[:n]
	}
	return append(s, v)
}

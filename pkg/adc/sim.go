package adc

import (
	"math/rand/v2"
	"sync"

	"github.com/itohio/templumi/pkg/sensor"
)

// Source produces the value a simulated input presents to the converter.
type Source func() sensor.Raw

// Constant returns a Source that always yields raw.
func Constant(raw sensor.Raw) Source {
	return func() sensor.Raw { return raw }
}

// Sequence returns a Source that yields values in order and then repeats the last one.
func Sequence(values ...sensor.Raw) Source {
	var (
		mu sync.Mutex
		i  int
	)
	return func() sensor.Raw {
		mu.Lock()
		defer mu.Unlock()
		if len(values) == 0 {
			return 0
		}
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v
	}
}

// Jitter returns a Source that wanders within ±spread of base, clamped to the 10-bit range.
func Jitter(base, spread sensor.Raw, seed uint64) Source {
	var mu sync.Mutex
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func() sensor.Raw {
		if spread == 0 {
			return base
		}
		mu.Lock()
		offset := rng.IntN(2*int(spread)+1) - int(spread)
		mu.Unlock()

		v := int(base) + offset
		if v < 0 {
			v = 0
		} else if v > int(sensor.MaxRaw) {
			v = int(sensor.MaxRaw)
		}
		return sensor.Raw(v)
	}
}

// Sim is a host-side Unit. A conversion completes after a fixed number of polls
// of the completion flag, or never while the unit is stalled.
type Sim struct {
	mu sync.Mutex

	sources map[uint8]Source
	polls   int
	stalled bool

	selector  uint8
	mask      uint8
	enabled   bool
	inFlight  bool
	remaining int
	flag      bool
	result    uint16

	conversions int
	overlaps    int
}

var _ Unit = (*Sim)(nil)

// NewSim creates a simulated unit whose conversions complete after polls flag reads.
func NewSim(polls int) *Sim {
	if polls < 0 {
		polls = 0
	}
	return &Sim{
		sources: make(map[uint8]Source),
		polls:   polls,
	}
}

// SetSource attaches src to the input of channel ch.
func (s *Sim) SetSource(ch sensor.Channel, src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[ch.Selector()] = src
}

// SetStalled freezes or releases the completion flag.
func (s *Sim) SetStalled(stalled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stalled = stalled
}

func (s *Sim) Select(selector, mask uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		s.overlaps++
	}
	s.selector = selector
	s.mask = mask
	s.enabled = true
}

func (s *Sim) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	if s.inFlight {
		s.overlaps++
	}
	s.inFlight = true
	s.flag = false
	s.remaining = s.polls
}

func (s *Sim) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inFlight || s.stalled {
		return s.flag
	}
	if s.remaining > 0 {
		s.remaining--
		return false
	}
	if !s.flag {
		s.flag = true
		s.conversions++
		if src, ok := s.sources[s.selector]; ok {
			s.result = uint16(src()) & 0x3ff
		} else {
			s.result = 0
		}
	}
	return true
}

func (s *Sim) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flag = false
	s.inFlight = false
}

func (s *Sim) Result() (lo, hi uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint8(s.result), uint8(s.result >> 8)
}

// Selected returns the selector and digital-disable mask of the last Select.
func (s *Sim) Selected() (selector, mask uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selector, s.mask
}

// Conversions returns the number of completed conversions.
func (s *Sim) Conversions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversions
}

// Overlaps returns how many times a conversion was reconfigured or restarted
// while another one was still in flight.
func (s *Sim) Overlaps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlaps
}

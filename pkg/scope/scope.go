package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/templumi/pkg/config"
	"github.com/itohio/templumi/pkg/sensor"
)

var (
	temperatureColor = color.RGBA{R: 255, G: 165, B: 0, A: 255} // Orange
	luminosityColor  = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	faultColor       = color.RGBA{R: 220, G: 40, B: 40, A: 255}
)

// ScopeWidget is a custom Fyne widget that plots the recent readings of one channel.
type ScopeWidget struct {
	widget.BaseWidget

	channel sensor.Channel
	line    color.Color
	window  time.Duration

	// Data (protected by mu)
	mu      sync.RWMutex
	points  []Point // Display buffer, reused for downsampling
	faults  []time.Time
	last    string
	scratch []Point

	// Auto-scaling
	yMin, yMax float64
	xMin, xMax time.Time

	maxDisplayPoints int
}

// New creates a new ScopeWidget for ch.
func New(cfg config.ViewConfig, ch sensor.Channel) *ScopeWidget {
	line := temperatureColor
	if ch == sensor.Luminosity {
		line = luminosityColor
	}
	s := &ScopeWidget{
		channel:          ch,
		line:             line,
		window:           time.Duration(cfg.WindowSeconds) * time.Second,
		points:           make([]Point, 0, cfg.MaxPoints),
		maxDisplayPoints: cfg.MaxPoints,
	}
	s.yMin, s.yMax, s.xMin, s.xMax = autoScale(nil, s.window, time.Now())
	s.ExtendBaseWidget(s)
	return s
}

// Channel returns the channel plotted by the widget.
func (s *ScopeWidget) Channel() sensor.Channel {
	return s.channel
}

// Update redraws the widget from h.
// This should be called from the UI goroutine using fyne.Do().
func (s *ScopeWidget) Update(h *History) {
	s.mu.Lock()

	s.scratch = h.Points(s.scratch, s.channel)
	s.points = Downsample(s.points, s.scratch, s.maxDisplayPoints)
	s.faults = h.Faults()
	s.yMin, s.yMax, s.xMin, s.xMax = autoScale(s.points, s.window, time.Now())
	s.last = ""
	if n := len(s.scratch); n > 0 {
		s.last = formatValue(s.scratch[n-1].Value, 1) + " " + s.channel.Unit()
	}

	s.mu.Unlock()

	// Must be outside the lock, the renderer takes a read lock
	s.Refresh()
}

// autoScale calculates the axis ranges for pts with a 10% vertical margin
// and a horizontal span of at least window.
func autoScale(pts []Point, window time.Duration, now time.Time) (yMin, yMax float64, xMin, xMax time.Time) {
	if len(pts) == 0 {
		return 0, 1, now, now.Add(window)
	}

	yMin, yMax = pts[0].Value, pts[0].Value
	for _, p := range pts {
		yMin = min(yMin, p.Value)
		yMax = max(yMax, p.Value)
	}

	span := yMax - yMin
	if span == 0 {
		span = 1.0
	}
	margin := span * 0.1
	yMin -= margin
	yMax += margin

	xMin = pts[0].Timestamp
	xMax = pts[len(pts)-1].Timestamp
	if xMax.Sub(xMin) < window {
		xMax = xMin.Add(window)
	}
	return yMin, yMax, xMin, xMax
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:   s,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}

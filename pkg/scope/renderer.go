package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

var (
	gridColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	bg      *canvas.Rectangle
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// plotArea is the rectangle inside the axis labels.
type plotArea struct {
	x, y, w, h float32
	yMin, yMax float64
	xMin, xMax time.Time
}

func (a plotArea) pos(t time.Time, v float64) fyne.Position {
	x := a.x + float32(t.Sub(a.xMin).Seconds()/a.xMax.Sub(a.xMin).Seconds())*a.w
	y := a.y + a.h - float32((v-a.yMin)/(a.yMax-a.yMin))*a.h
	return fyne.NewPos(x, y)
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(360, 160)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the plot from the widget data.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	points := r.scope.points
	faults := r.scope.faults
	last := r.scope.last
	area := plotArea{
		yMin: r.scope.yMin,
		yMax: r.scope.yMax,
		xMin: r.scope.xMin,
		xMax: r.scope.xMax,
	}
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.bg}

	const marginLeft, marginRight, marginTop, marginBottom = 60, 20, 20, 30
	area.x = marginLeft
	area.y = marginTop
	area.w = size.Width - marginLeft - marginRight
	area.h = size.Height - marginTop - marginBottom

	r.drawGrid(area)
	r.drawFaults(area, faults)
	r.drawLine(area, points)
	if last != "" {
		r.drawLast(area, last)
	}
}

// drawGrid draws the grid with value and elapsed time labels.
func (r *scopeRenderer) drawGrid(a plotArea) {
	const numHLines, numVLines = 4, 6

	for i := range numHLines + 1 {
		y := a.y + float32(i)*a.h/float32(numHLines)
		r.add(newLine(gridColor, 1, fyne.NewPos(a.x, y), fyne.NewPos(a.x+a.w, y)))

		value := a.yMax - float64(i)*(a.yMax-a.yMin)/float64(numHLines)
		text := canvas.NewText(formatValue(value, 1), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(a.x-5, y-6))
		r.add(text)
	}

	span := a.xMax.Sub(a.xMin)
	for i := range numVLines + 1 {
		x := a.x + float32(i)*a.w/float32(numVLines)
		r.add(newLine(gridColor, 1, fyne.NewPos(x, a.y), fyne.NewPos(x, a.y+a.h)))

		offset := span * time.Duration(i) / numVLines
		text := canvas.NewText(formatValue(offset.Seconds(), 0)+"s", labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, a.y+a.h+5))
		r.add(text)
	}
}

// drawLine draws the readings as connected segments.
func (r *scopeRenderer) drawLine(a plotArea, points []Point) {
	if len(points) < 2 {
		return
	}
	prev := a.pos(points[0].Timestamp, points[0].Value)
	for _, p := range points[1:] {
		next := a.pos(p.Timestamp, p.Value)
		r.add(newLine(r.scope.line, 1.5, prev, next))
		prev = next
	}
}

// drawFaults draws a vertical marker for every fault inside the time range.
func (r *scopeRenderer) drawFaults(a plotArea, faults []time.Time) {
	for _, t := range faults {
		if t.Before(a.xMin) || t.After(a.xMax) {
			continue
		}
		x := a.pos(t, a.yMin).X
		r.add(newLine(faultColor, 1, fyne.NewPos(x, a.y), fyne.NewPos(x, a.y+a.h)))
	}
}

// drawLast draws the latest reading in the top left corner.
func (r *scopeRenderer) drawLast(a plotArea, last string) {
	text := canvas.NewText(last, color.RGBA{R: 200, G: 200, B: 200, A: 255})
	text.TextSize = 11
	text.Alignment = fyne.TextAlignLeading
	text.Move(fyne.NewPos(a.x+10, a.y+5))
	r.add(text)
}

func (r *scopeRenderer) add(o fyne.CanvasObject) {
	r.objects = append(r.objects, o)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

func newLine(c color.Color, width float32, from, to fyne.Position) *canvas.Line {
	line := canvas.NewLine(c)
	line.Position1 = from
	line.Position2 = to
	line.StrokeWidth = width
	return line
}

// formatValue formats v with a comma as the decimal separator, the way the
// board prints its readings.
func formatValue(v float64, decimals int) string {
	b := strconv.AppendFloat(nil, v, 'f', decimals, 64)
	for i, c := range b {
		if c == '.' {
			b[i] = ','
		}
	}
	return string(b)
}

package wiggle

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Chart paddings, shared with the viewer's overlay so pixel coordinates can
// be mapped back to data coordinates.
const (
	PadTop    = 14
	PadLeft   = 16
	PadRight  = 12
	PadBottom = 28
)

// Box is a plot area in image pixels. go-chart shrinks the padded canvas
// further by the measured axis tick labels and names, so the exact area is
// captured during rendering rather than recomputed from the paddings.
type Box struct {
	Left, Top, Right, Bottom int
}

func (b Box) Width() int  { return b.Right - b.Left }
func (b Box) Height() int { return b.Bottom - b.Top }

// boxCapture records the axis-adjusted canvas box go-chart hands every
// series renderer. It draws nothing.
type boxCapture struct{ out *Box }

var _ chart.Series = (*boxCapture)(nil)

func (s *boxCapture) GetName() string           { return "" }
func (s *boxCapture) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (s *boxCapture) GetStyle() chart.Style     { return chart.Style{StrokeWidth: 1} }
func (s *boxCapture) Validate() error           { return nil }

func (s *boxCapture) Render(_ chart.Renderer, canvasBox chart.Box, _, _ chart.Range, _ chart.Style) {
	*s.out = Box{Left: canvasBox.Left, Top: canvasBox.Top, Right: canvasBox.Right, Bottom: canvasBox.Bottom}
}

func traceStyle() chart.Style {
	return chart.Style{
		StrokeWidth: 1,
		StrokeColor: chart.ColorBlack,
	}
}

func markerStyle() chart.Style {
	return chart.Style{
		StrokeWidth: 1,
		StrokeColor: chart.ColorRed,
	}
}

// Chart builds the shared-axis wiggle chart: trace number on X, time on Y
// running downward (values negated, labels positive).
func (p *Plot) Chart(width, height int) chart.Chart {
	tmax := p.TimeAxis[p.npts-1]
	negT := negate(p.TimeAxis)

	series := make([]chart.Series, 0, 2*p.nrcv+len(p.Markers))
	for k, lane := range p.Lanes {
		if p.Fill {
			series = append(series, &lobeFill{
				xs:       lane,
				ys:       negT,
				baseline: float64(k) + 1,
				vertical: true,
				color:    chart.ColorBlack,
			})
		}
		series = append(series, chart.ContinuousSeries{
			XValues: lane,
			YValues: negT,
			Style:   traceStyle(),
		})
	}
	for _, m := range p.Markers {
		series = append(series, chart.ContinuousSeries{
			XValues: []float64{float64(m.Channel) + 0.5, float64(m.Channel) + 1.5},
			YValues: []float64{-m.Position, -m.Position},
			Style:   markerStyle(),
		})
	}
	series = append(series, &boxCapture{out: &p.PlotBox})

	return chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: PadTop, Left: PadLeft, Right: PadRight, Bottom: PadBottom}},
		XAxis: chart.XAxis{
			Name:  "Trace number",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(p.nrcv) + 1},
			Ticks: laneTicks(p.nrcv),
		},
		YAxis: chart.YAxis{
			Name:  p.TimeLabel,
			Range: &chart.ContinuousRange{Min: -tmax, Max: -p.TimeMin},
			Ticks: invertedTimeTicks(p.TimeMin, tmax),
		},
		Series: series,
	}
}

// Render draws the wiggle chart and decodes it back to an image, the same
// way the viewer consumes every chart.
func (p *Plot) Render(width, height int) (image.Image, error) {
	ch := p.Chart(width, height)
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render wiggle: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode wiggle: %w", err)
	}
	return img, nil
}

// ChannelChart builds the small per-channel plot for gather mode: time on X,
// amplitude on Y.
func (g *Gather) ChannelChart(k, width, height int) chart.Chart {
	tmax := g.TimeAxis[g.npts-1]
	s := g.Scales[k]
	if len(g.CellBoxes) != g.nrcv {
		g.CellBoxes = make([]Box, g.nrcv)
	}

	title := "Receiver " + strconv.Itoa(k+1)
	series := []chart.Series{}
	if g.Fill {
		series = append(series, &lobeFill{
			xs:       g.TimeAxis,
			ys:       g.Traces[k],
			baseline: 0,
			vertical: false,
			color:    chart.ColorBlack,
		})
	}
	series = append(series, chart.ContinuousSeries{
		XValues: g.TimeAxis,
		YValues: g.Traces[k],
		Style:   traceStyle(),
	})
	if m := g.markerFor(k); m != nil {
		series = append(series, chart.ContinuousSeries{
			XValues: []float64{m.Position, m.Position},
			YValues: []float64{-s, s},
			Style:   markerStyle(),
		})
		if m.Label != "" {
			title += "   Pick = " + m.Label
		}
	}
	series = append(series, &boxCapture{out: &g.CellBoxes[k]})

	return chart.Chart{
		Title:      title,
		TitleStyle: chart.Style{FontSize: 7},
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: PadTop, Left: PadLeft, Right: PadRight, Bottom: 6}},
		XAxis: chart.XAxis{
			Style: chart.Hidden(),
			Range: &chart.ContinuousRange{Min: g.TimeMin, Max: tmax},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: -s, Max: s},
			Ticks: []chart.Tick{
				{Value: -s, Label: fmt.Sprintf("%.2f", -s)},
				{Value: 0, Label: "0.00"},
				{Value: s, Label: fmt.Sprintf("%.2f", s)},
			},
		},
		Series: series,
	}
}

func (g *Gather) markerFor(k int) *Marker {
	for i := range g.Markers {
		if g.Markers[i].Channel == k {
			return &g.Markers[i]
		}
	}
	return nil
}

// Compose renders every channel chart and lays them out column-major in
// ceil(nrcv/ncolumn) rows, the gather arrangement.
func (g *Gather) Compose(ncolumn, width, height int) (image.Image, error) {
	if ncolumn < 1 {
		ncolumn = 1
	}
	nrows := (g.nrcv + ncolumn - 1) / ncolumn
	cellW, cellH := width/ncolumn, height/nrows
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for k := 0; k < g.nrcv; k++ {
		ch := g.ChannelChart(k, cellW, cellH)
		var buf bytes.Buffer
		if err := ch.Render(chart.PNG, &buf); err != nil {
			return nil, fmt.Errorf("render channel %d: %w", k+1, err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			return nil, fmt.Errorf("decode channel %d: %w", k+1, err)
		}
		row, col := k%nrows, k/nrows
		target := image.Rect(col*cellW, row*cellH, (col+1)*cellW, (row+1)*cellH)
		draw.Draw(out, target, img, img.Bounds().Min, draw.Src)
	}
	return out, nil
}

// GridCell reports the row/column of channel k in a column-major gather with
// the given channel count and column count.
func GridCell(k, nrcv, ncolumn int) (row, col int) {
	if ncolumn < 1 {
		ncolumn = 1
	}
	nrows := (nrcv + ncolumn - 1) / ncolumn
	return k % nrows, k / nrows
}

// lobeFill fills the area between a trace and its baseline wherever the trace
// exceeds it. vertical means the trace runs along the Y axis (wiggle lanes);
// otherwise it runs along the X axis (gather rows).
type lobeFill struct {
	xs, ys   []float64
	baseline float64
	vertical bool
	color    drawing.Color
}

var _ chart.Series = (*lobeFill)(nil)

func (f *lobeFill) GetName() string           { return "" }
func (f *lobeFill) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (f *lobeFill) GetStyle() chart.Style     { return chart.Style{Hidden: false, StrokeWidth: 1} }

func (f *lobeFill) Validate() error {
	if len(f.xs) != len(f.ys) {
		return fmt.Errorf("%w: fill series length mismatch", ErrInvalidValue)
	}
	return nil
}

func (f *lobeFill) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	cx := func(v float64) int { return canvasBox.Left + xrange.Translate(v) }
	cy := func(v float64) int { return canvasBox.Bottom - yrange.Translate(v) }

	value := f.ys
	if f.vertical {
		value = f.xs
	}
	r.SetFillColor(f.color)
	n := len(value)
	for i := 0; i < n; {
		if value[i] <= f.baseline {
			i++
			continue
		}
		j := i
		for j < n && value[j] > f.baseline {
			j++
		}
		// run [i, j) sits above the baseline
		if f.vertical {
			r.MoveTo(cx(f.baseline), cy(f.ys[i]))
			for t := i; t < j; t++ {
				r.LineTo(cx(f.xs[t]), cy(f.ys[t]))
			}
			r.LineTo(cx(f.baseline), cy(f.ys[j-1]))
		} else {
			r.MoveTo(cx(f.xs[i]), cy(f.baseline))
			for t := i; t < j; t++ {
				r.LineTo(cx(f.xs[t]), cy(f.ys[t]))
			}
			r.LineTo(cx(f.xs[j-1]), cy(f.baseline))
		}
		r.Close()
		r.Fill()
		i = j
	}
}

func negate(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = -v
	}
	return out
}

// laneTicks labels the integer lanes, thinning when there are many channels.
func laneTicks(nrcv int) []chart.Tick {
	step := 1
	if nrcv > 12 {
		step = (nrcv + 7) / 8
	}
	ticks := []chart.Tick{{Value: 0, Label: "0"}}
	for k := 1; k <= nrcv; k += step {
		ticks = append(ticks, chart.Tick{Value: float64(k), Label: strconv.Itoa(k)})
	}
	ticks = append(ticks, chart.Tick{Value: float64(nrcv) + 1, Label: ""})
	return ticks
}

// invertedTimeTicks builds nice ticks over [tmin, tmax] and negates the
// positions so the labels stay positive while time runs downward.
func invertedTimeTicks(tmin, tmax float64) []chart.Tick {
	vals := niceTickValues(tmin, tmax, 7)
	ticks := make([]chart.Tick, 0, len(vals))
	for i := len(vals) - 1; i >= 0; i-- {
		ticks = append(ticks, chart.Tick{Value: -vals[i], Label: formatTick(vals[i])})
	}
	return ticks
}

// niceTickValues spans [min, max] with steps from the 1/2/2.5/5 ladder.
func niceTickValues(min, max float64, n int) []float64 {
	if max <= min {
		max = min + 1
	}
	span := max - min
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	candidates := []float64{1, 2, 2.5, 5, 10}
	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range candidates {
		step := c * mag
		count := math.Ceil(span / step)
		if count < 2 {
			count = 2
		}
		if score := math.Abs(count - float64(n)); score < bestScore {
			bestScore = score
			bestStep = step
		}
	}
	start := math.Ceil(min/bestStep) * bestStep
	var out []float64
	for v := start; v <= max+bestStep/2 && len(out) <= n+2; v += bestStep {
		out = append(out, v)
	}
	if len(out) == 0 {
		out = []float64{min, max}
	}
	return out
}

func formatTick(v float64) string {
	av := math.Abs(v)
	switch {
	case v == 0:
		return "0"
	case av >= 100:
		return fmt.Sprintf("%.0f", v)
	case av >= 10:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

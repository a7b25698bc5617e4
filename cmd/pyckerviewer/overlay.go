package main

import (
	"fmt"
	"image/color"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/keurfonluu/pyckerviewer/cmd/pyckerviewer/uihelpers"
	"github.com/keurfonluu/pyckerviewer/src/session"
)

// traceOverlay sits on top of the chart image. It tracks the cursor with a
// crosshair and a position label, and forwards clicks to the session as pick
// interactions.
type traceOverlay struct {
	widget.BaseWidget
	state    *uiState
	mouse    fyne.Position
	hovering bool
}

func newTraceOverlay(state *uiState) *traceOverlay {
	o := &traceOverlay{state: state}
	o.ExtendBaseWidget(o)
	return o
}

// dataAt maps an overlay position to a channel and a time-axis coordinate,
// accounting for the contain-fit placement of the chart image.
func (o *traceOverlay) dataAt(pos fyne.Position) (channel int, coord float64, ok bool) {
	st := o.state
	if st == nil || st.imgCanvas == nil || st.imgCanvas.Image == nil || st.ctrl.CurrentIndex() < 0 {
		return 0, 0, false
	}
	size := o.Size()
	b := st.imgCanvas.Image.Bounds()
	dx, dy, dw, dh, _ := uihelpers.ComputeContainRect(float32(b.Dx()), float32(b.Dy()), size.Width, size.Height)
	if dw <= 0 || dh <= 0 {
		return 0, 0, false
	}
	if pos.X < dx || pos.X > dx+dw || pos.Y < dy || pos.Y > dy+dh {
		return 0, 0, false
	}
	px := float64((pos.X - dx) / dw * float32(b.Dx()))
	py := float64((pos.Y - dy) / dh * float32(b.Dy()))

	ax := st.ctrl.TimeAxis()
	if len(ax) == 0 {
		return 0, 0, false
	}
	tmin := st.ctrl.DisplayMin()
	tmax := ax[len(ax)-1]
	if st.ctrl.Config().Wiggle {
		return uihelpers.WiggleDataAt(px, py, st.plotBox, st.ctrl.NumChannels(), tmin, tmax)
	}
	return uihelpers.GatherDataAt(px, py, float64(b.Dx()), float64(b.Dy()), st.ctrl.NumChannels(), st.gatherColumns, st.cellBoxes, tmin, tmax)
}

// positionText describes the hovered position in both samples and seconds.
func (o *traceOverlay) positionText(channel int, coord float64) string {
	cfg := o.state.ctrl.Config()
	fs := o.state.ctrl.SamplingRate()
	index, seconds := coord, coord
	if cfg.Seconds {
		index *= fs
	} else if fs > 0 {
		seconds /= fs
	}
	return fmt.Sprintf("Trace %d\n%.1f samples\n%.4f s", channel+1, index, seconds)
}

func (o *traceOverlay) MouseDown(ev *desktop.MouseEvent) {
	ch, coord, ok := o.dataAt(ev.Position)
	if !ok {
		return
	}
	rep, err := o.state.ctrl.MouseInteract(ch, coord, buttonFor(ev.Button))
	if err != nil {
		o.state.status.SetText(err.Error())
		return
	}
	if rep != nil {
		// read-only position report
		fmt.Println(rep)
		o.state.status.SetText(rep.String())
		return
	}
	redrawTraces(o.state)
}

func (o *traceOverlay) MouseUp(*desktop.MouseEvent) {}

func (o *traceOverlay) MouseMoved(ev *desktop.MouseEvent) {
	o.hovering = true
	o.mouse = ev.Position
	o.Refresh()
}
func (o *traceOverlay) MouseIn(ev *desktop.MouseEvent) { o.hovering = true; o.Refresh() }
func (o *traceOverlay) MouseOut()                      { o.hovering = false; o.Refresh() }

// buttonFor maps a desktop mouse button to the session interaction button.
func buttonFor(b desktop.MouseButton) session.Button {
	switch b {
	case desktop.MouseButtonSecondary:
		return session.ButtonRight
	case desktop.MouseButtonTertiary:
		return session.ButtonMiddle
	default:
		return session.ButtonLeft
	}
}

func (o *traceOverlay) CreateRenderer() fyne.WidgetRenderer {
	// transparent background keeps the full hit-area for hover events
	bg := canvas.NewRectangle(color.RGBA{})
	lineV := canvas.NewLine(color.RGBA{R: 120, G: 120, B: 120, A: 200})
	lineV.StrokeWidth = 1
	lineH := canvas.NewLine(color.RGBA{R: 120, G: 120, B: 120, A: 200})
	lineH.StrokeWidth = 1
	label := widget.NewRichText()
	label.Wrapping = fyne.TextWrapOff
	labelBG := canvas.NewRectangle(color.RGBA{R: 255, G: 255, B: 255, A: 220})
	objs := []fyne.CanvasObject{bg, lineV, lineH, labelBG, label}
	return &traceOverlayRenderer{o: o, bg: bg, lineV: lineV, lineH: lineH, labelBG: labelBG, label: label, objs: objs}
}

type traceOverlayRenderer struct {
	o       *traceOverlay
	bg      *canvas.Rectangle
	lineV   *canvas.Line
	lineH   *canvas.Line
	labelBG *canvas.Rectangle
	label   *widget.RichText
	objs    []fyne.CanvasObject
}

func (r *traceOverlayRenderer) Destroy() {}

func (r *traceOverlayRenderer) hide() {
	r.lineV.Position1 = fyne.NewPos(-10, -10)
	r.lineV.Position2 = fyne.NewPos(-10, -10)
	r.lineH.Position1 = fyne.NewPos(-10, -10)
	r.lineH.Position2 = fyne.NewPos(-10, -10)
	r.labelBG.Resize(fyne.NewSize(0, 0))
	r.labelBG.Move(fyne.NewPos(-1000, -1000))
	r.label.Move(fyne.NewPos(-1000, -1000))
}

func (r *traceOverlayRenderer) Layout(size fyne.Size) {
	if r.bg != nil {
		r.bg.Resize(size)
		r.bg.Move(fyne.NewPos(0, 0))
	}
	if !r.o.hovering {
		r.hide()
		return
	}
	ch, coord, ok := r.o.dataAt(r.o.mouse)
	if !ok {
		r.hide()
		return
	}
	x, y := r.o.mouse.X, r.o.mouse.Y
	r.lineV.Position1 = fyne.NewPos(x, 0)
	r.lineV.Position2 = fyne.NewPos(x, size.Height)
	r.lineH.Position1 = fyne.NewPos(0, y)
	r.lineH.Position2 = fyne.NewPos(size.Width, y)

	r.label.Segments = []widget.RichTextSegment{
		&widget.TextSegment{Text: r.o.positionText(ch, coord)},
	}
	r.label.Refresh()
	pad := float32(6)
	ts := r.label.MinSize()
	bgW := ts.Width + 2*pad
	bgH := ts.Height + 2*pad
	tx, ty := x+8, y+8
	if tx+bgW > size.Width {
		tx = size.Width - bgW
	}
	if ty+bgH > size.Height {
		ty = size.Height - bgH
	}
	r.labelBG.Resize(fyne.NewSize(bgW, bgH))
	r.labelBG.Move(fyne.NewPos(tx, ty))
	r.label.Move(fyne.NewPos(tx+pad, ty+pad))
}

func (r *traceOverlayRenderer) MinSize() fyne.Size           { return fyne.NewSize(10, 10) }
func (r *traceOverlayRenderer) Objects() []fyne.CanvasObject { return r.objs }
func (r *traceOverlayRenderer) Refresh() {
	r.Layout(r.o.Size())
	r.lineV.StrokeColor = theme.Color(theme.ColorNameDisabled)
	r.lineH.StrokeColor = theme.Color(theme.ColorNameDisabled)
	r.lineV.Refresh()
	r.lineH.Refresh()
	r.labelBG.Refresh()
	r.label.Refresh()
}

var _ desktop.Hoverable = (*traceOverlay)(nil)
var _ desktop.Mouseable = (*traceOverlay)(nil)

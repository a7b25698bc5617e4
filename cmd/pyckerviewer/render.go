package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	fyne "fyne.io/fyne/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/keurfonluu/pyckerviewer/cmd/pyckerviewer/uihelpers"
	"github.com/keurfonluu/pyckerviewer/src/session"
	"github.com/keurfonluu/pyckerviewer/src/wiggle"
)

// redrawTraces renders the current file with the active configuration and
// swaps the chart image in place.
func redrawTraces(state *uiState) {
	if state.ctrl.CurrentIndex() < 0 {
		state.imgCanvas.Image = blank(640, 400)
		state.imgCanvas.Refresh()
		return
	}
	plan, err := state.ctrl.Plot()
	if err != nil {
		session.Errorf("plot %s: %v; showing blank chart", state.ctrl.CurrentFile(), err)
		state.imgCanvas.Image = blank(640, 400)
		state.imgCanvas.Refresh()
		return
	}
	cw, chh := chartSize(state)
	var img image.Image
	if plan.Wiggle != nil {
		img, err = plan.Wiggle.Render(cw, chh)
		state.plotBox = plan.Wiggle.PlotBox
	} else {
		state.gatherColumns = uihelpers.GatherColumns(state.ctrl.NumChannels())
		img, err = plan.Gather.Compose(state.gatherColumns, cw, chh)
		state.cellBoxes = plan.Gather.CellBoxes
	}
	if err != nil {
		session.Errorf("render %s: %v; showing blank chart", state.ctrl.CurrentFile(), err)
		img = blank(cw, chh)
		state.plotBox = wiggle.Box{}
		state.cellBoxes = nil
	} else {
		img = drawAnnotation(img, annotationText(state))
	}
	state.imgCanvas.Image = img
	state.imgCanvas.SetMinSize(fyne.NewSize(float32(cw)/2, float32(chh)/2))
	state.imgCanvas.Refresh()
	if state.overlay != nil {
		state.overlay.Refresh()
	}
}

// chartSize derives the chart pixel size from the window width so traces use
// the available horizontal space.
func chartSize(state *uiState) (int, int) {
	if state == nil || state.window == nil || state.window.Canvas() == nil {
		return 1000, 620
	}
	sz := state.window.Canvas().Size()
	return uihelpers.ComputeChartDimensions(int(sz.Width*0.95) - sidePanelWidth)
}

// annotationText is the trace provenance line stamped onto the chart image.
func annotationText(state *uiState) string {
	if state == nil || state.ctrl == nil || state.ctrl.CurrentIndex() < 0 {
		return ""
	}
	return fmt.Sprintf("%s   start %s   fs %g Hz",
		state.ctrl.CurrentFile(),
		state.ctrl.StartTime().Format("2006-01-02 15:04:05.000"),
		state.ctrl.SamplingRate())
}

// drawAnnotation stamps a small text line near the bottom-left of the image.
func drawAnnotation(img image.Image, text string) image.Image {
	if img == nil || strings.TrimSpace(text) == "" {
		return img
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	pad := 4
	face := basicfont.Face7x13
	textCol := image.NewUniform(color.RGBA{R: 40, G: 40, B: 40, A: 255})
	dr := &font.Drawer{Dst: rgba, Src: textCol, Face: face}
	tw := dr.MeasureString(text).Ceil()
	x := b.Min.X + 8
	y := b.Max.Y - 6
	bg := image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 210})
	rect := image.Rect(x-pad, y-face.Metrics().Ascent.Ceil()-pad, x+tw+pad, y+pad/2)
	draw.Draw(rgba, rect, bg, image.Point{}, draw.Over)
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	dr.DrawString(text)
	return rgba
}

func blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

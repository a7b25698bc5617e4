package uihelpers

import (
	"math"

	"github.com/keurfonluu/pyckerviewer/src/wiggle"
)

// ComputeChartDimensions applies the width/height clamp rules used for the
// trace chart. Input: desired raw width (e.g. available canvas width).
// Returns clamped width and height.
func ComputeChartDimensions(rawW int) (int, int) {
	w := rawW
	if w < 640 {
		w = 640
	}
	h := int(float32(w) * 0.62)
	if h < 400 {
		h = 400
	}
	if h > 900 {
		h = 900
	}
	return w, h
}

// ComputeContainRect returns the rectangle an image of imgW x imgH occupies
// inside a viewW x viewH area under contain-fit scaling, plus the scale.
func ComputeContainRect(imgW, imgH, viewW, viewH float32) (x, y, w, h, scale float32) {
	if imgW <= 0 || imgH <= 0 || viewW <= 0 || viewH <= 0 {
		return 0, 0, viewW, viewH, 1
	}
	sx := viewW / imgW
	sy := viewH / imgH
	scale = sx
	if sy < sx {
		scale = sy
	}
	w = imgW * scale
	h = imgH * scale
	x = (viewW - w) / 2
	y = (viewH - h) / 2
	return x, y, w, h, scale
}

// WiggleDataAt maps a pixel position inside the rendered wiggle image to the
// nearest channel (0-based) and the time coordinate under the cursor. box is
// the plot area the renderer reported for that image; positions outside it
// report ok=false.
func WiggleDataAt(px, py float64, box wiggle.Box, nrcv int, tmin, tmax float64) (channel int, coord float64, ok bool) {
	plotW := float64(box.Width())
	plotH := float64(box.Height())
	if nrcv < 1 || plotW < 1 || plotH < 1 {
		return 0, 0, false
	}
	fx := (px - float64(box.Left)) / plotW
	fy := (py - float64(box.Top)) / plotH
	if fx < 0 || fx > 1 || fy < 0 || fy > 1 {
		return 0, 0, false
	}
	// data x spans [0, nrcv+1]; channel k sits on the lane at k+1
	lane := fx * float64(nrcv+1)
	channel = int(math.Round(lane)) - 1
	if channel < 0 {
		channel = 0
	}
	if channel >= nrcv {
		channel = nrcv - 1
	}
	// time runs downward from tmin at the top
	coord = tmin + fy*(tmax-tmin)
	return channel, coord, true
}

// GatherColumns picks the gather grid column count for a channel count.
func GatherColumns(nrcv int) int {
	if nrcv <= 3 {
		return 1
	}
	return 2
}

// GatherDataAt maps a pixel position inside the composed gather image to the
// channel of the cell under the cursor and the time coordinate along the
// cell's horizontal axis. Cells are laid out column-major; cells holds each
// channel's plot area in cell-local pixels, as reported by the renderer.
func GatherDataAt(px, py, imgW, imgH float64, nrcv, ncolumn int, cells []wiggle.Box, tmin, tmax float64) (channel int, coord float64, ok bool) {
	if nrcv < 1 || imgW < 1 || imgH < 1 {
		return 0, 0, false
	}
	if ncolumn < 1 {
		ncolumn = 1
	}
	nrows := (nrcv + ncolumn - 1) / ncolumn
	cellW := imgW / float64(ncolumn)
	cellH := imgH / float64(nrows)
	col := int(px / cellW)
	row := int(py / cellH)
	if col < 0 || col >= ncolumn || row < 0 || row >= nrows {
		return 0, 0, false
	}
	channel = col*nrows + row
	if channel >= nrcv || channel >= len(cells) {
		return 0, 0, false
	}
	// horizontal position within the cell's plot area
	box := cells[channel]
	cx := px - float64(col)*cellW
	plotW := float64(box.Width())
	if plotW < 1 {
		return 0, 0, false
	}
	fx := (cx - float64(box.Left)) / plotW
	if fx < 0 || fx > 1 {
		return 0, 0, false
	}
	coord = tmin + fx*(tmax-tmin)
	return channel, coord, true
}

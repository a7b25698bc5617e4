// Package wiggle renders multi-channel seismic traces, either as a single
// shared-axis wiggle plot (each channel offset into its own lane) or as a
// gather grid of per-channel plots. Preparation is pure and independent of
// any interactive session.
package wiggle

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrInvalidValue reports a malformed input array or option.
var ErrInvalidValue = errors.New("invalid value")

// Options configures trace preparation.
type Options struct {
	// Perc is the maximum amplitude percentile for clipping, in [0, 1].
	// Only used when Norm is set and Perc < 1.
	Perc float64
	// TimeAxis overrides the default sample-index axis 0..N-1. Must have
	// one entry per sample when set.
	TimeAxis []float64
	// Norm normalizes all channels by a common scale; otherwise each
	// channel is scaled by its own absolute maximum.
	Norm bool
	// Fill fills positive lobes.
	Fill bool
}

// Marker is a pick indicator overlaid on a channel, positioned in time-axis
// units.
type Marker struct {
	Channel  int
	Position float64
	Label    string
}

// Plot is a prepared wiggle plot: channel k occupies the lane around k+1.
type Plot struct {
	// Lanes holds the offset traces: sample i of channel k maps to
	// x = data/scale + k + 1.
	Lanes    [][]float64
	TimeAxis []float64
	// Scale is the common normalization scale when Norm was set, else 0.
	Scale   float64
	Fill    bool
	Markers []Marker
	// TimeMin is the lower display bound of the time axis. Defaults to
	// TimeAxis[0]; the session lowers it to the delay origin.
	TimeMin   float64
	TimeLabel string
	// PlotBox is the plot area of the last Render in image pixels, used
	// by the viewer to map clicks back to data coordinates.
	PlotBox Box

	nrcv, npts int
}

// New validates the input and prepares a wiggle plot.
func New(X [][]float64, opts Options) (*Plot, error) {
	nrcv, npts, taxis, err := validate(X, opts)
	if err != nil {
		return nil, err
	}
	clipped, common := prepare(X, opts)
	lanes := make([][]float64, nrcv)
	for k, tr := range clipped {
		scale := common
		if !opts.Norm {
			scale = absMax(tr)
		}
		if scale == 0 {
			scale = 1 // flat channel stays on its baseline
		}
		lane := make([]float64, npts)
		for i, v := range tr {
			lane[i] = v/scale + float64(k) + 1
		}
		lanes[k] = lane
	}
	return &Plot{
		Lanes:     lanes,
		TimeAxis:  taxis,
		Scale:     common,
		Fill:      opts.Fill,
		TimeMin:   taxis[0],
		TimeLabel: "Time",
		nrcv:      nrcv,
		npts:      npts,
	}, nil
}

// Gather is the grid arrangement: one small plot per channel.
type Gather struct {
	Traces   [][]float64
	TimeAxis []float64
	// Scales holds the vertical scale per channel (all equal when the
	// gather was normalized).
	Scales  []float64
	Fill    bool
	Markers []Marker
	TimeMin float64
	// CellBoxes holds each channel's plot area in cell-local pixels,
	// populated by Compose.
	CellBoxes []Box

	nrcv, npts int
}

// NewGather validates the input and prepares a gather grid, applying the same
// clipping and scaling rules as the wiggle plot.
func NewGather(X [][]float64, opts Options) (*Gather, error) {
	nrcv, npts, taxis, err := validate(X, opts)
	if err != nil {
		return nil, err
	}
	clipped, common := prepare(X, opts)
	scales := make([]float64, nrcv)
	for k, tr := range clipped {
		s := common
		if !opts.Norm {
			s = absMax(tr)
		}
		if s == 0 {
			s = 1
		}
		scales[k] = s
	}
	return &Gather{
		Traces:   clipped,
		TimeAxis: taxis,
		Scales:   scales,
		Fill:     opts.Fill,
		TimeMin:  taxis[0],
		nrcv:     nrcv,
		npts:     npts,
	}, nil
}

// validate checks the rectangular shape of X, the percentile range and the
// time axis length, and returns the effective time axis.
func validate(X [][]float64, opts Options) (nrcv, npts int, taxis []float64, err error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return 0, 0, nil, fmt.Errorf("%w: X must be a non-empty 2-D array", ErrInvalidValue)
	}
	nrcv, npts = len(X), len(X[0])
	for k, row := range X {
		if len(row) != npts {
			return 0, 0, nil, fmt.Errorf("%w: X must be 2-D, row %d has %d samples, want %d", ErrInvalidValue, k, len(row), npts)
		}
	}
	if math.IsNaN(opts.Perc) || opts.Perc < 0 || opts.Perc > 1 {
		return 0, 0, nil, fmt.Errorf("%w: perc must be in [0, 1]", ErrInvalidValue)
	}
	taxis = opts.TimeAxis
	if taxis == nil {
		taxis = make([]float64, npts)
		for i := range taxis {
			taxis[i] = float64(i)
		}
	} else if len(taxis) != npts {
		return 0, 0, nil, fmt.Errorf("%w: time axis has %d entries, want %d", ErrInvalidValue, len(taxis), npts)
	}
	return nrcv, npts, taxis, nil
}

// prepare applies percentile clipping and returns the (possibly clipped)
// traces plus the common scale (0 when not normalizing).
func prepare(X [][]float64, opts Options) ([][]float64, float64) {
	out := make([][]float64, len(X))
	if opts.Norm && opts.Perc < 1 {
		bound := ClipBound(X, opts.Perc)
		for k, row := range X {
			c := make([]float64, len(row))
			for i, v := range row {
				c[i] = math.Max(-bound, math.Min(bound, v))
			}
			out[k] = c
		}
	} else {
		for k, row := range X {
			c := make([]float64, len(row))
			copy(c, row)
			out[k] = c
		}
	}
	var common float64
	if opts.Norm {
		for _, row := range out {
			if m := absMax(row); m > common {
				common = m
			}
		}
	}
	return out, common
}

// ClipBound returns the perc*100-th percentile of the absolute amplitude
// pooled across all channels, with numpy-compatible linear interpolation.
func ClipBound(X [][]float64, perc float64) float64 {
	pool := make([]float64, 0, len(X)*len(X[0]))
	for _, row := range X {
		for _, v := range row {
			pool = append(pool, math.Abs(v))
		}
	}
	sort.Float64s(pool)
	return stat.Quantile(perc, stat.LinInterp, pool, nil)
}

func absMax(x []float64) float64 {
	var m float64
	for _, v := range x {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

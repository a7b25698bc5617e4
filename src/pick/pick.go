// Package pick holds the value objects recording a manually picked arrival
// time on one channel of a seismic record.
package pick

import (
	"fmt"
	"strings"
	"time"
)

// Pick is the observation of an amplitude anomaly in a seismogram at a
// specific point in time. It is not necessarily related to a seismic event.
//
// Index and Time are expected to satisfy
// index ≈ (time − trace start) × sampling rate + shift, but the Pick does not
// enforce or recompute that itself; the session controller keeps them
// consistent.
type Pick struct {
	// Time is the observed onset time of the signal ("pick time").
	Time *time.Time
	// Index is the corresponding sample position on the trace.
	Index *float64
	// SamplingRate of the trace the pick was made on, in Hz.
	SamplingRate *float64
	// TimeErrors carries the onset time uncertainties.
	TimeErrors QuantityError
	// Shift is the signed sample offset that was applied before Index was
	// computed (display delay at pick time).
	Shift *float64
	// PhaseHint is a tentative phase identification.
	PhaseHint *string
}

// New validates and builds a Pick. Any field may be nil.
func New(t *time.Time, index, samplingRate *float64, timeErrors QuantityError, shift *float64, phaseHint *string) (*Pick, error) {
	if samplingRate != nil && *samplingRate <= 0 {
		return nil, fmt.Errorf("%w: sampling_rate must be strictly positive", ErrInvalidValue)
	}
	return &Pick{
		Time:         t,
		Index:        index,
		SamplingRate: samplingRate,
		TimeErrors:   timeErrors,
		Shift:        shift,
		PhaseHint:    phaseHint,
	}, nil
}

// String lists all six fields one per line, names right-aligned.
func (p *Pick) String() string {
	lines := []string{
		field("time", fmtTime(p.Time)),
		field("index", fmtOpt(p.Index)),
		field("sampling_rate", fmtOpt(p.SamplingRate)),
		field("time_errors", p.TimeErrors.String()),
		field("shift", fmtOpt(p.Shift)),
		field("phase_hint", fmtStr(p.PhaseHint)),
	}
	return strings.Join(lines, "\n") + "\n"
}

func field(name, value string) string {
	return fmt.Sprintf("%13s: %s", name, value)
}

func fmtTime(t *time.Time) string {
	if t == nil {
		return "None"
	}
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}

func fmtStr(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}

// Float returns a pointer to v, for optional field construction.
func Float(v float64) *float64 { return &v }

// Str returns a pointer to s, for optional field construction.
func Str(s string) *string { return &s }

// Time returns a pointer to t, for optional field construction.
func Time(t time.Time) *time.Time { return &t }

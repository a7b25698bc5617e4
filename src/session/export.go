package session

import (
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/keurfonluu/pyckerviewer/src/pick"
)

// Absent picks export as this sentinel index in the plain-text format.
const absentIndex = -5e-3

// wirePick is the gob representation of one optional pick. gob cannot carry
// nil pointers, so absence is explicit: Present for the whole pick, boolean
// flags for time and phase, NaN for absent scalars.
type wirePick struct {
	Present      bool
	HasTime      bool
	Time         time.Time
	Index        float64
	SamplingRate float64
	Shift        float64
	TimeErrors   [4]float64
	HasPhase     bool
	PhaseHint    string
}

func toWire(p *pick.Pick) wirePick {
	if p == nil {
		return wirePick{}
	}
	w := wirePick{
		Present:      true,
		Index:        orNaN(p.Index),
		SamplingRate: orNaN(p.SamplingRate),
		Shift:        orNaN(p.Shift),
		TimeErrors:   p.TimeErrors.ToArray(),
	}
	if p.Time != nil {
		w.HasTime = true
		w.Time = *p.Time
	}
	if p.PhaseHint != nil {
		w.HasPhase = true
		w.PhaseHint = *p.PhaseHint
	}
	return w
}

func fromWire(w wirePick) (*pick.Pick, error) {
	if !w.Present {
		return nil, nil
	}
	qe, err := pick.NewQuantityError(
		fromNaN(w.TimeErrors[0]),
		fromNaN(w.TimeErrors[1]),
		fromNaN(w.TimeErrors[2]),
		fromNaN(w.TimeErrors[3]),
	)
	if err != nil {
		return nil, err
	}
	var t *time.Time
	if w.HasTime {
		t = pick.Time(w.Time)
	}
	var phase *string
	if w.HasPhase {
		phase = pick.Str(w.PhaseHint)
	}
	return pick.New(t, fromNaN(w.Index), fromNaN(w.SamplingRate), qe, fromNaN(w.Shift), phase)
}

func anyPick(slots []*pick.Pick) bool {
	for _, p := range slots {
		if p != nil {
			return true
		}
	}
	return false
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func fromNaN(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return pick.Float(v)
}

// ExportCurrentPick writes the current file's picks as plain text: one
// sample-index value per channel, three decimals, -0.005 for absent picks.
func (c *Controller) ExportCurrentPick(w io.Writer) error {
	if c.picks == nil || c.current < 0 || !anyPick(c.picks[c.current]) {
		return ErrNoDataToExport
	}
	for _, p := range c.picks[c.current] {
		v := absentIndex
		if p != nil && p.Index != nil {
			v = *p.Index
		}
		if _, err := fmt.Fprintf(w, "%.3f\n", v); err != nil {
			return fmt.Errorf("export current pick: %w", err)
		}
	}
	return nil
}

// ExportAllPicks serializes the whole per-file pick array, including absent
// entries, as a self-describing gob blob.
func (c *Controller) ExportAllPicks(w io.Writer) error {
	if c.picks == nil {
		return ErrNoDataToExport
	}
	picked := false
	for _, slots := range c.picks {
		if anyPick(slots) {
			picked = true
			break
		}
	}
	if !picked {
		return ErrNoDataToExport
	}
	blob := make([][]wirePick, len(c.picks))
	for i, slots := range c.picks {
		rows := make([]wirePick, len(slots))
		for k, p := range slots {
			rows[k] = toWire(p)
		}
		blob[i] = rows
	}
	if err := gob.NewEncoder(w).Encode(blob); err != nil {
		return fmt.Errorf("export all picks: %w", err)
	}
	return nil
}

// DecodePicks reads a blob written by ExportAllPicks into the in-memory pick
// layout, without requiring a session.
func DecodePicks(r io.Reader) ([][]*pick.Pick, error) {
	var blob [][]wirePick
	if err := gob.NewDecoder(r).Decode(&blob); err != nil {
		return nil, fmt.Errorf("decode picks: %w", err)
	}
	picks := make([][]*pick.Pick, len(blob))
	for i, rows := range blob {
		if len(rows) == 0 {
			// file never visited, its slots stay unallocated
			continue
		}
		slots := make([]*pick.Pick, len(rows))
		for k, wp := range rows {
			p, err := fromWire(wp)
			if err != nil {
				return nil, fmt.Errorf("decode picks: file %d channel %d: %w", i, k, err)
			}
			slots[k] = p
		}
		picks[i] = slots
	}
	return picks, nil
}

// ImportAllPicks reads a blob written by ExportAllPicks. The blob's outer
// length must equal the current file-list length; otherwise the import fails
// with ErrShapeMismatch and the existing picks are untouched.
func (c *Controller) ImportAllPicks(r io.Reader) error {
	if c.picks == nil {
		return fmt.Errorf("%w: no directory imported", ErrNoFileSelected)
	}
	picks, err := DecodePicks(r)
	if err != nil {
		return fmt.Errorf("import all picks: %w", err)
	}
	if len(picks) != len(c.picks) {
		return fmt.Errorf("%w: blob holds %d files, session has %d", ErrShapeMismatch, len(picks), len(c.picks))
	}
	c.picks = picks
	return nil
}

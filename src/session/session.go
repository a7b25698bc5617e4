// Package session holds the interactive core of the viewer: the currently
// loaded multi-channel trace, the per-file pick bookkeeping, display
// configuration, and the time/index conversion logic that ties mouse
// coordinates, sample indexes and absolute times together.
package session

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/keurfonluu/pyckerviewer/src/dsp"
	"github.com/keurfonluu/pyckerviewer/src/pick"
	"github.com/keurfonluu/pyckerviewer/src/seisio"
	"github.com/keurfonluu/pyckerviewer/src/wiggle"
)

// State is the controller's lifecycle position.
type State int

const (
	Empty State = iota
	DirectoryLoaded
	FileLoaded
	Rendered
)

// Button identifies the mouse button of an interaction.
type Button int

const (
	ButtonLeft   Button = 1 // create / overwrite pick
	ButtonMiddle Button = 2 // clear pick
	ButtonRight  Button = 3 // read-only position report
)

// Reader abstracts the external waveform collaborators: directory listing
// and per-format file loading.
type Reader interface {
	ReadDir(dirname string) ([]string, error)
	ReadFile(path string) (seisio.Stream, error)
}

// DiskReader is the production Reader backed by seisio.
type DiskReader struct{}

func (DiskReader) ReadDir(dirname string) ([]string, error) { return seisio.ReadDir(dirname) }
func (DiskReader) ReadFile(path string) (seisio.Stream, error) {
	return seisio.ReadFile(path)
}

// Config is the display and filter configuration. Every field maps to one
// menu toggle or form value on the interactive surface.
type Config struct {
	Wiggle    bool // shared-axis wiggle plot; false = gather grid
	Fill      bool
	Normalize bool
	Perc      float64 // clip percentile in [0, 1]

	EnforceRate  bool // keep SamplingRate instead of the file's value
	SamplingRate float64

	Lowpass     bool
	LowpassCut  float64 // Hz
	Highpass    bool
	HighpassCut float64 // Hz

	Delay      bool
	DelayValue float64
	DelayUnit  Unit

	Seconds bool // time axis in seconds; false = samples
}

// DefaultConfig mirrors the viewer's startup settings.
func DefaultConfig() Config {
	return Config{
		Wiggle:    true,
		Perc:      1,
		DelayUnit: UnitSamples,
	}
}

// Controller is the trace session state machine. It is driven from the UI
// event loop only and is not safe for concurrent use.
type Controller struct {
	reader Reader

	dirname string
	files   []string
	current int // index into files, -1 when none selected

	traces [][]float64
	start  time.Time
	picks  [][]*pick.Pick // outer: files, inner: channels; nil = absent

	cfg   Config
	state State
}

// New builds an empty controller around the given collaborators.
func New(reader Reader) *Controller {
	return &Controller{
		reader:  reader,
		current: -1,
		cfg:     DefaultConfig(),
	}
}

func (c *Controller) State() State       { return c.state }
func (c *Controller) Config() Config     { return c.cfg }
func (c *Controller) SetConfig(v Config) { c.cfg = v }

func (c *Controller) Dirname() string { return c.dirname }
func (c *Controller) Files() []string { return c.files }

// CurrentIndex returns the selected file index, -1 when none.
func (c *Controller) CurrentIndex() int { return c.current }

// CurrentFile returns the selected file name, empty when none.
func (c *Controller) CurrentFile() string {
	if c.current < 0 {
		return ""
	}
	return c.files[c.current]
}

func (c *Controller) StartTime() time.Time  { return c.start }
func (c *Controller) SamplingRate() float64 { return c.cfg.SamplingRate }
func (c *Controller) Picks() [][]*pick.Pick { return c.picks }
func (c *Controller) Traces() [][]float64   { return c.traces }

// NumChannels of the loaded trace, 0 when none.
func (c *Controller) NumChannels() int { return len(c.traces) }

// NumSamples of the loaded trace, 0 when none.
func (c *Controller) NumSamples() int {
	if len(c.traces) == 0 {
		return 0
	}
	return len(c.traces[0])
}

// ImportDirectory lists the compatible waveform files in path. With zero
// compatible files it fails with ErrEmptyDirectory, clears the stored path
// and keeps the previous session intact.
func (c *Controller) ImportDirectory(path string) error {
	names, err := c.reader.ReadDir(path)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		c.dirname = ""
		return ErrEmptyDirectory
	}
	c.dirname = path
	c.files = names
	c.picks = make([][]*pick.Pick, len(names))
	c.current = -1
	c.traces = nil
	c.start = time.Time{}
	c.state = DirectoryLoaded
	Infof("imported %d files from %s", len(names), path)
	return nil
}

// SelectFile loads the named file from the imported directory.
func (c *Controller) SelectFile(name string) error {
	for i, f := range c.files {
		if f == name {
			return c.SelectIndex(i)
		}
	}
	return fmt.Errorf("%w: %q is not in the imported directory", ErrInvalidValue, name)
}

// SelectIndex loads the i-th file: reads the stream, detrends every channel,
// records start time and sampling rate, allocates the pick slots on the
// first visit, and applies the configured filters.
func (c *Controller) SelectIndex(i int) error {
	if len(c.files) == 0 {
		return ErrNoFileSelected
	}
	if i < 0 || i >= len(c.files) {
		return fmt.Errorf("%w: file index %d out of range", ErrInvalidValue, i)
	}
	st, err := c.reader.ReadFile(filepath.Join(c.dirname, c.files[i]))
	if err != nil {
		return err
	}
	if len(st) == 0 {
		return fmt.Errorf("%w: %s holds no traces", ErrInvalidValue, c.files[i])
	}
	traces := make([][]float64, len(st))
	for k, tr := range st {
		traces[k] = dsp.Detrend(tr.Data)
	}
	c.traces = traces
	c.start = st[0].StartTime
	if !c.cfg.EnforceRate {
		c.cfg.SamplingRate = st[0].SamplingRate
	}
	c.current = i
	c.ensurePickSlots()
	c.state = FileLoaded
	return c.filterTraces()
}

// Apply re-reads the current file and re-applies the filters, picking up
// configuration changes.
func (c *Controller) Apply() error {
	if c.current < 0 {
		return ErrNoFileSelected
	}
	return c.SelectIndex(c.current)
}

// Next moves to the following file in the list; a request beyond the end is
// a no-op. Reports whether the selection moved.
func (c *Controller) Next() (bool, error) {
	if c.current < 0 || c.current >= len(c.files)-1 {
		return false, nil
	}
	return true, c.SelectIndex(c.current + 1)
}

// Previous moves to the preceding file; clamped at the start of the list.
func (c *Controller) Previous() (bool, error) {
	if c.current <= 0 {
		return false, nil
	}
	return true, c.SelectIndex(c.current - 1)
}

// filterTraces validates both cutoffs against the sampling rate first, so a
// failure leaves every channel unmodified.
func (c *Controller) filterTraces() error {
	fs := c.cfg.SamplingRate
	if c.cfg.Lowpass && c.cfg.LowpassCut > fs {
		return fmt.Errorf("%w: lowpass cutoff frequency greater than sampling rate", ErrInvalidValue)
	}
	if c.cfg.Highpass && c.cfg.HighpassCut > fs {
		return fmt.Errorf("%w: highpass cutoff frequency greater than sampling rate", ErrInvalidValue)
	}
	if !c.cfg.Lowpass && !c.cfg.Highpass {
		return nil
	}
	for k, tr := range c.traces {
		out := tr
		var err error
		if c.cfg.Lowpass {
			out, err = dsp.Lowpass(out, c.cfg.LowpassCut, fs)
			if err != nil {
				return err
			}
		}
		if c.cfg.Highpass {
			out, err = dsp.Highpass(out, c.cfg.HighpassCut, fs)
			if err != nil {
				return err
			}
		}
		c.traces[k] = out
	}
	return nil
}

// DelaySamples converts the configured delay to samples; 0 when the delay
// option is off.
func (c *Controller) DelaySamples() float64 {
	if !c.cfg.Delay {
		return 0
	}
	d, err := DelayToSamples(c.cfg.DelayValue, c.cfg.DelayUnit, c.cfg.SamplingRate)
	if err != nil {
		Warnf("delay conversion: %v", err)
		return 0
	}
	return d
}

// TimeAxis builds the display axis: sample indexes shifted left by the delay,
// divided by the sampling rate in seconds mode.
func (c *Controller) TimeAxis() []float64 {
	npts := c.NumSamples()
	tmin := -c.DelaySamples()
	t := make([]float64, npts)
	for i := range t {
		t[i] = tmin + float64(i)
	}
	if c.cfg.Seconds {
		for i := range t {
			t[i] /= c.cfg.SamplingRate
		}
	}
	return t
}

// DisplayMin is the lower bound of the visible time axis: the delay origin
// clamped at zero.
func (c *Controller) DisplayMin() float64 {
	tmin := -c.DelaySamples()
	if tmin < 0 {
		tmin = 0
	}
	if c.cfg.Seconds {
		tmin /= c.cfg.SamplingRate
	}
	return tmin
}

// TimeLabel names the time axis for the current display mode.
func (c *Controller) TimeLabel() string {
	if c.cfg.Seconds {
		return "Time (s)"
	}
	return "Time (samples)"
}

// PickMarkers converts the current file's picks to display positions using
// the same delay shift and seconds conversion as the time axis.
func (c *Controller) PickMarkers() []wiggle.Marker {
	if c.current < 0 || c.picks[c.current] == nil {
		return nil
	}
	fs := c.cfg.SamplingRate
	var out []wiggle.Marker
	for k, p := range c.picks[c.current] {
		if p == nil || p.Index == nil || p.Time == nil {
			continue
		}
		fsPick := fs
		if p.SamplingRate != nil {
			fsPick = *p.SamplingRate
		}
		var shift float64
		if p.Shift != nil {
			shift = *p.Shift
		}
		idx := p.Time.Sub(c.start).Seconds()*fsPick + shift
		idx -= c.DelaySamples()
		var seconds float64
		if c.cfg.Seconds {
			idx /= fs
			seconds = idx
		} else {
			seconds = idx / fs
		}
		out = append(out, wiggle.Marker{Channel: k, Position: idx, Label: FormatTime(seconds)})
	}
	return out
}

// RenderPlan is the prepared plot for the current file: exactly one of
// Wiggle or Gather is set, per the plot-type flag.
type RenderPlan struct {
	Wiggle *wiggle.Plot
	Gather *wiggle.Gather
}

// Plot prepares the wiggle or gather plot of the loaded traces with the pick
// markers attached, and moves the session to Rendered.
func (c *Controller) Plot() (*RenderPlan, error) {
	if c.current < 0 {
		return nil, ErrNoFileSelected
	}
	opts := wiggle.Options{
		Perc:     c.cfg.Perc,
		TimeAxis: c.TimeAxis(),
		Norm:     c.cfg.Normalize,
		Fill:     c.cfg.Fill,
	}
	markers := c.PickMarkers()
	plan := &RenderPlan{}
	if c.cfg.Wiggle {
		p, err := wiggle.New(c.traces, opts)
		if err != nil {
			return nil, err
		}
		p.TimeMin = c.DisplayMin()
		p.TimeLabel = c.TimeLabel()
		p.Markers = markers
		plan.Wiggle = p
	} else {
		g, err := wiggle.NewGather(c.traces, opts)
		if err != nil {
			return nil, err
		}
		g.TimeMin = c.DisplayMin()
		g.Markers = markers
		plan.Gather = g
	}
	c.state = Rendered
	return plan, nil
}

// ClickReport is the read-only result of a right-button interaction: the
// clicked position in both sample-index and second units.
type ClickReport struct {
	Channel int // 1-based, as displayed
	Index   float64
	Seconds float64
}

func (r ClickReport) String() string {
	return fmt.Sprintf("%d %.3f %v", r.Channel, r.Index, r.Seconds)
}

// ensurePickSlots grows the current file's pick slice to the channel count,
// keeping any picks already there. Imported blobs carry nil or shorter
// slices for files the exporting session never visited.
func (c *Controller) ensurePickSlots() {
	n := c.NumChannels()
	if len(c.picks[c.current]) < n {
		grown := make([]*pick.Pick, n)
		copy(grown, c.picks[c.current])
		c.picks[c.current] = grown
	}
}

// MouseInteract handles a click on a channel's trace at the given data
// coordinate (time-axis units). Left creates or overwrites the channel's
// pick, middle clears it, right reports the position without mutating.
func (c *Controller) MouseInteract(channel int, coord float64, button Button) (*ClickReport, error) {
	if c.current < 0 {
		return nil, ErrNoFileSelected
	}
	if channel < 0 || channel >= c.NumChannels() {
		return nil, fmt.Errorf("%w: channel %d out of range", ErrInvalidValue, channel)
	}
	c.ensurePickSlots()
	fs := c.cfg.SamplingRate
	switch button {
	case ButtonLeft:
		index := coord
		if c.cfg.Seconds {
			index *= fs
		}
		tm := c.start.Add(time.Duration(index / fs * float64(time.Second)))
		shift := c.DelaySamples()
		p, err := pick.New(pick.Time(tm), pick.Float(index), pick.Float(fs), pick.QuantityError{}, pick.Float(shift), nil)
		if err != nil {
			return nil, err
		}
		c.picks[c.current][channel] = p
		return nil, nil
	case ButtonMiddle:
		c.picks[c.current][channel] = nil
		return nil, nil
	case ButtonRight:
		index, seconds := coord, coord
		if c.cfg.Seconds {
			index *= fs
		} else {
			seconds /= fs
		}
		return &ClickReport{Channel: channel + 1, Index: index, Seconds: seconds}, nil
	default:
		return nil, fmt.Errorf("%w: unknown mouse button %d", ErrInvalidValue, int(button))
	}
}

package session

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keurfonluu/pyckerviewer/src/seisio"
)

type stubReader struct {
	names   []string
	streams map[string]seisio.Stream
}

func (s stubReader) ReadDir(string) ([]string, error) { return s.names, nil }

func (s stubReader) ReadFile(path string) (seisio.Stream, error) {
	st, ok := s.streams[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("no stream for %s", path)
	}
	return st, nil
}

var t0 = time.Date(2022, 6, 1, 8, 0, 0, 0, time.UTC)

// twoChannelReader returns a stub with two files of 2x200 samples at 500 Hz.
func twoChannelReader() stubReader {
	mk := func(bias float64) seisio.Stream {
		var st seisio.Stream
		for k := 0; k < 2; k++ {
			data := make([]float64, 200)
			for i := range data {
				data[i] = bias + float64(i%7)
			}
			st = append(st, seisio.Trace{StartTime: t0, SamplingRate: 500, Data: data})
		}
		return st
	}
	return stubReader{
		names:   []string{"a.su", "b.su"},
		streams: map[string]seisio.Stream{"a.su": mk(3), "b.su": mk(-1)},
	}
}

func loadedController(t *testing.T) *Controller {
	t.Helper()
	c := New(twoChannelReader())
	require.NoError(t, c.ImportDirectory("/data"))
	require.NoError(t, c.SelectIndex(0))
	return c
}

func TestDelayToSamples(t *testing.T) {
	cases := []struct {
		val  float64
		unit Unit
		fs   float64
		want float64
	}{
		{7, UnitSamples, 1000, 7},
		{2, UnitSeconds, 250, 500},
		{5, UnitMilliseconds, 1000, 5},
		{500, UnitMicroseconds, 2000, 1},
	}
	for _, tc := range cases {
		got, err := DelayToSamples(tc.val, tc.unit, tc.fs)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, got, 1e-12, "%v %s", tc.val, tc.unit)
	}
	_, err := DelayToSamples(1, Unit("fortnights"), 100)
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "2.50 s", FormatTime(2.5))
	assert.Equal(t, "1.00 s", FormatTime(1))
	assert.Equal(t, "500.00 ms", FormatTime(0.5))
	assert.Equal(t, "120.00 us", FormatTime(1.2e-4))
	assert.Equal(t, "50.00 ns", FormatTime(5e-8))
	assert.Equal(t, "", FormatTime(0))
	assert.Equal(t, "", FormatTime(-0.3))
	assert.Equal(t, "", FormatTime(1e-12))
}

func TestImportDirectory(t *testing.T) {
	c := New(twoChannelReader())
	require.NoError(t, c.ImportDirectory("/data"))
	assert.Equal(t, DirectoryLoaded, c.State())
	assert.Equal(t, []string{"a.su", "b.su"}, c.Files())
	assert.Equal(t, -1, c.CurrentIndex())
	assert.Len(t, c.Picks(), 2)
}

func TestImportDirectory_Empty(t *testing.T) {
	c := New(twoChannelReader())
	require.NoError(t, c.ImportDirectory("/data"))
	require.NoError(t, c.SelectIndex(0))

	c.reader = stubReader{names: nil}
	err := c.ImportDirectory("/empty")
	require.ErrorIs(t, err, ErrEmptyDirectory)
	assert.Equal(t, "", c.Dirname())
	// previous session is kept
	assert.Equal(t, []string{"a.su", "b.su"}, c.Files())
	assert.Equal(t, 0, c.CurrentIndex())
}

func TestSelectIndex_DetrendsAndAllocates(t *testing.T) {
	c := loadedController(t)
	assert.Equal(t, FileLoaded, c.State())
	assert.Equal(t, 500.0, c.SamplingRate())
	assert.True(t, c.StartTime().Equal(t0))
	require.Len(t, c.Picks()[0], 2)

	// channel mean removed
	var sum float64
	for _, v := range c.Traces()[0] {
		sum += v
	}
	assert.InDelta(t, 0, sum/float64(len(c.Traces()[0])), 1e-9)
}

func TestSelectIndex_PicksAllocatedOnce(t *testing.T) {
	c := loadedController(t)
	_, err := c.MouseInteract(1, 50, ButtonLeft)
	require.NoError(t, err)
	require.NotNil(t, c.Picks()[0][1])

	// revisiting the file keeps the existing picks
	require.NoError(t, c.SelectIndex(1))
	require.NoError(t, c.SelectIndex(0))
	assert.NotNil(t, c.Picks()[0][1])
}

func TestSelectIndex_EnforcedRate(t *testing.T) {
	c := New(twoChannelReader())
	require.NoError(t, c.ImportDirectory("/data"))
	cfg := c.Config()
	cfg.EnforceRate = true
	cfg.SamplingRate = 1234
	c.SetConfig(cfg)
	require.NoError(t, c.SelectIndex(0))
	assert.Equal(t, 1234.0, c.SamplingRate())
}

func TestApply_NoFileSelected(t *testing.T) {
	c := New(twoChannelReader())
	require.ErrorIs(t, c.Apply(), ErrNoFileSelected)
	require.NoError(t, c.ImportDirectory("/data"))
	require.ErrorIs(t, c.Apply(), ErrNoFileSelected)
}

func TestFilter_CutoffAboveSamplingRate(t *testing.T) {
	c := loadedController(t)
	before := append([]float64(nil), c.Traces()[0]...)

	cfg := c.Config()
	cfg.Lowpass = true
	cfg.LowpassCut = 600 // > 500 Hz
	c.SetConfig(cfg)
	err := c.Apply()
	require.ErrorIs(t, err, ErrInvalidValue)
	assert.Equal(t, before, c.Traces()[0], "traces must stay unmodified")
}

func TestFilter_Applied(t *testing.T) {
	c := loadedController(t)
	before := append([]float64(nil), c.Traces()[0]...)

	cfg := c.Config()
	cfg.Lowpass = true
	cfg.LowpassCut = 20
	cfg.Highpass = true
	cfg.HighpassCut = 2
	c.SetConfig(cfg)
	require.NoError(t, c.Apply())
	assert.NotEqual(t, before, c.Traces()[0])
}

func TestNextPrevious_Clamped(t *testing.T) {
	c := New(twoChannelReader())
	require.NoError(t, c.ImportDirectory("/data"))

	// nothing selected yet: both are no-ops
	moved, err := c.Next()
	require.NoError(t, err)
	assert.False(t, moved)

	require.NoError(t, c.SelectIndex(0))
	moved, err = c.Previous()
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = c.Next()
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 1, c.CurrentIndex())

	moved, err = c.Next()
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 1, c.CurrentIndex())
}

func TestDelaySamples(t *testing.T) {
	c := loadedController(t)
	cfg := c.Config()
	cfg.Delay = true
	cfg.DelayValue = 5
	cfg.DelayUnit = UnitMilliseconds
	cfg.SamplingRate = 1000
	cfg.EnforceRate = true
	c.SetConfig(cfg)
	assert.InDelta(t, 5, c.DelaySamples(), 1e-12)

	cfg.Delay = false
	c.SetConfig(cfg)
	assert.Equal(t, 0.0, c.DelaySamples())
}

func TestTimeAxis(t *testing.T) {
	c := loadedController(t)
	ax := c.TimeAxis()
	require.Len(t, ax, 200)
	assert.Equal(t, 0.0, ax[0])
	assert.Equal(t, 199.0, ax[199])

	cfg := c.Config()
	cfg.Delay = true
	cfg.DelayValue = 10
	cfg.DelayUnit = UnitSamples
	c.SetConfig(cfg)
	ax = c.TimeAxis()
	assert.Equal(t, -10.0, ax[0])
	assert.Equal(t, 0.0, c.DisplayMin())

	cfg.Seconds = true
	c.SetConfig(cfg)
	ax = c.TimeAxis()
	assert.InDelta(t, -10.0/500, ax[0], 1e-12)
}

func TestMouseInteract_PickRoundTrip(t *testing.T) {
	c := loadedController(t)
	cfg := c.Config()
	cfg.Seconds = true
	c.SetConfig(cfg)

	_, err := c.MouseInteract(2, 0.2, ButtonLeft)
	require.ErrorIs(t, err, ErrInvalidValue) // only 2 channels

	_, err = c.MouseInteract(1, 0.2, ButtonLeft)
	require.NoError(t, err)
	p := c.Picks()[0][1]
	require.NotNil(t, p)
	assert.InDelta(t, 100, *p.Index, 1e-9)
	assert.Equal(t, 0.0, *p.Shift)
	assert.True(t, p.Time.Equal(t0.Add(200*time.Millisecond)), "got %v", p.Time)
	assert.Equal(t, 500.0, *p.SamplingRate)
}

func TestMouseInteract_MiddleClears(t *testing.T) {
	c := loadedController(t)
	_, err := c.MouseInteract(0, 42, ButtonLeft)
	require.NoError(t, err)
	require.NotNil(t, c.Picks()[0][0])

	_, err = c.MouseInteract(0, 10, ButtonMiddle)
	require.NoError(t, err)
	assert.Nil(t, c.Picks()[0][0])
}

func TestMouseInteract_RightReports(t *testing.T) {
	c := loadedController(t)
	rep, err := c.MouseInteract(1, 100, ButtonRight)
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Equal(t, 2, rep.Channel)
	assert.Equal(t, 100.0, rep.Index)
	assert.InDelta(t, 0.2, rep.Seconds, 1e-12)
	assert.Nil(t, c.Picks()[0][1], "right click must not mutate")
	assert.Equal(t, "2 100.000 0.2", rep.String())
}

func TestMouseInteract_WithDelayStoresShift(t *testing.T) {
	c := loadedController(t)
	cfg := c.Config()
	cfg.Delay = true
	cfg.DelayValue = 5
	cfg.DelayUnit = UnitMilliseconds
	c.SetConfig(cfg) // 5 ms at 500 Hz = 2.5 samples

	_, err := c.MouseInteract(0, 80, ButtonLeft)
	require.NoError(t, err)
	p := c.Picks()[0][0]
	require.NotNil(t, p)
	assert.InDelta(t, 2.5, *p.Shift, 1e-12)
}

func TestPickMarkers(t *testing.T) {
	c := loadedController(t)
	_, err := c.MouseInteract(1, 100, ButtonLeft)
	require.NoError(t, err)

	ms := c.PickMarkers()
	require.Len(t, ms, 1)
	assert.Equal(t, 1, ms[0].Channel)
	assert.InDelta(t, 100, ms[0].Position, 1e-9)
	assert.Equal(t, "200.00 ms", ms[0].Label) // 100 samples at 500 Hz

	// seconds mode converts the marker position
	cfg := c.Config()
	cfg.Seconds = true
	c.SetConfig(cfg)
	ms = c.PickMarkers()
	require.Len(t, ms, 1)
	assert.InDelta(t, 0.2, ms[0].Position, 1e-9)
}

func TestPlot_ModesAndState(t *testing.T) {
	c := loadedController(t)
	plan, err := c.Plot()
	require.NoError(t, err)
	require.NotNil(t, plan.Wiggle)
	assert.Nil(t, plan.Gather)
	assert.Equal(t, Rendered, c.State())

	cfg := c.Config()
	cfg.Wiggle = false
	c.SetConfig(cfg)
	plan, err = c.Plot()
	require.NoError(t, err)
	require.NotNil(t, plan.Gather)
	assert.Nil(t, plan.Wiggle)
}

func TestExportCurrentPick(t *testing.T) {
	c := loadedController(t)
	_, err := c.MouseInteract(0, 12.3456, ButtonLeft)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.ExportCurrentPick(&buf))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "12.346", lines[0])
	assert.Equal(t, "-0.005", lines[1])
}

func TestExportCurrentPick_NothingLoaded(t *testing.T) {
	c := New(twoChannelReader())
	require.ErrorIs(t, c.ExportCurrentPick(&bytes.Buffer{}), ErrNoDataToExport)
}

func TestExportCurrentPick_NothingPicked(t *testing.T) {
	c := loadedController(t)
	require.ErrorIs(t, c.ExportCurrentPick(&bytes.Buffer{}), ErrNoDataToExport)
}

func TestExportImportAllPicks_RoundTrip(t *testing.T) {
	c := loadedController(t)
	_, err := c.MouseInteract(0, 40, ButtonLeft)
	require.NoError(t, err)
	_, err = c.MouseInteract(1, 77.5, ButtonLeft)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.ExportAllPicks(&buf))

	// round trip into a fresh session over the same directory
	c2 := New(twoChannelReader())
	require.NoError(t, c2.ImportDirectory("/data"))
	require.NoError(t, c2.ImportAllPicks(&buf))
	require.Len(t, c2.Picks(), 2)
	require.NotNil(t, c2.Picks()[0])
	require.NotNil(t, c2.Picks()[0][0])
	assert.InDelta(t, 40, *c2.Picks()[0][0].Index, 1e-9)
	assert.InDelta(t, 77.5, *c2.Picks()[0][1].Index, 1e-9)
	assert.Nil(t, c2.Picks()[1], "unvisited file slots stay unallocated")
	assert.True(t, c2.Picks()[0][0].Time.Equal(*c.Picks()[0][0].Time))
}

func TestExportAllPicks_NothingPicked(t *testing.T) {
	c := New(twoChannelReader())
	require.NoError(t, c.ImportDirectory("/data"))
	require.ErrorIs(t, c.ExportAllPicks(&bytes.Buffer{}), ErrNoDataToExport)
}

func TestImportAllPicks_ShapeMismatch(t *testing.T) {
	c := loadedController(t)
	_, err := c.MouseInteract(0, 40, ButtonLeft)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, c.ExportAllPicks(&buf))

	one := stubReader{
		names:   []string{"a.su"},
		streams: twoChannelReader().streams,
	}
	c2 := New(one)
	require.NoError(t, c2.ImportDirectory("/data"))
	require.NoError(t, c2.SelectIndex(0))
	_, err = c2.MouseInteract(1, 9, ButtonLeft)
	require.NoError(t, err)

	err = c2.ImportAllPicks(&buf)
	require.ErrorIs(t, err, ErrShapeMismatch)
	// existing picks untouched
	require.NotNil(t, c2.Picks()[0][1])
	assert.InDelta(t, 9, *c2.Picks()[0][1].Index, 1e-9)
}

func TestMouseInteract_AfterImportOnUnvisitedFile(t *testing.T) {
	// export a blob where only the first file was ever visited
	c := loadedController(t)
	_, err := c.MouseInteract(0, 40, ButtonLeft)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, c.ExportAllPicks(&buf))

	// import it while the second file is the one loaded; its slot comes
	// back nil and picking must still work
	c2 := New(twoChannelReader())
	require.NoError(t, c2.ImportDirectory("/data"))
	require.NoError(t, c2.SelectIndex(1))
	require.NoError(t, c2.ImportAllPicks(&buf))
	require.Nil(t, c2.Picks()[1])

	_, err = c2.MouseInteract(0, 50, ButtonLeft)
	require.NoError(t, err)
	require.Len(t, c2.Picks()[1], 2)
	require.NotNil(t, c2.Picks()[1][0])
	assert.InDelta(t, 50, *c2.Picks()[1][0].Index, 1e-9)

	// clearing the other, still-empty channel is a no-op
	_, err = c2.MouseInteract(1, 10, ButtonMiddle)
	require.NoError(t, err)
	assert.Nil(t, c2.Picks()[1][1])
}

func TestSelectIndex_GrowsShortImportedPickSlots(t *testing.T) {
	// exporter sees the same files with a single channel each
	one := twoChannelReader()
	for name, st := range one.streams {
		one.streams[name] = st[:1]
	}
	c := New(one)
	require.NoError(t, c.ImportDirectory("/data"))
	require.NoError(t, c.SelectIndex(0))
	_, err := c.MouseInteract(0, 40, ButtonLeft)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, c.ExportAllPicks(&buf))

	// the two-channel session imports the one-channel blob
	c2 := loadedController(t)
	require.NoError(t, c2.ImportAllPicks(&buf))
	require.Len(t, c2.Picks()[0], 1)

	// reselecting grows the slots to the channel count and keeps the
	// imported pick
	require.NoError(t, c2.SelectIndex(0))
	require.Len(t, c2.Picks()[0], 2)
	require.NotNil(t, c2.Picks()[0][0])
	assert.InDelta(t, 40, *c2.Picks()[0][0].Index, 1e-9)

	_, err = c2.MouseInteract(1, 60, ButtonLeft)
	require.NoError(t, err)
	require.NotNil(t, c2.Picks()[0][1])
}

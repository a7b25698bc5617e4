package pick

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuantityError_RoundTrip(t *testing.T) {
	q, err := NewQuantityError(Float(0.5), Float(0.2), Float(0.8), Float(95))
	require.NoError(t, err)
	assert.Equal(t, 0.5, *q.Uncertainty)
	assert.Equal(t, 0.2, *q.LowerUncertainty)
	assert.Equal(t, 0.8, *q.UpperUncertainty)
	assert.Equal(t, 95.0, *q.ConfidenceLevel)
}

func TestNewQuantityError_AllAbsent(t *testing.T) {
	q, err := NewQuantityError(nil, nil, nil, nil)
	require.NoError(t, err)
	arr := q.ToArray()
	for i, v := range arr {
		assert.True(t, math.IsNaN(v), "element %d should be NaN", i)
	}
}

func TestNewQuantityError_NegativeUncertainty(t *testing.T) {
	_, err := NewQuantityError(Float(-1), nil, nil, nil)
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestNewQuantityError_ConfidenceOutOfRange(t *testing.T) {
	_, err := NewQuantityError(nil, nil, nil, Float(150))
	require.ErrorIs(t, err, ErrInvalidValue)
	_, err = NewQuantityError(nil, nil, nil, Float(-0.1))
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestQuantityError_ToArrayOrder(t *testing.T) {
	q, err := NewQuantityError(Float(1), Float(2), Float(3), Float(4))
	require.NoError(t, err)
	assert.Equal(t, [4]float64{1, 2, 3, 4}, q.ToArray())
}

func TestQuantityError_String(t *testing.T) {
	q, err := NewQuantityError(Float(0.1), Float(0.05), Float(0.2), nil)
	require.NoError(t, err)
	s := q.String()
	assert.Contains(t, s, "uncertainty: 0.1")
	assert.Contains(t, s, "lower: 0.05")
	assert.Contains(t, s, "upper: 0.2")

	// lower/upper only rendered together
	q2, err := NewQuantityError(Float(0.1), Float(0.05), nil, nil)
	require.NoError(t, err)
	assert.NotContains(t, q2.String(), "lower")
}

func TestNewPick_RoundTrip(t *testing.T) {
	t0 := time.Date(2020, 3, 14, 15, 9, 26, 0, time.UTC)
	p, err := New(Time(t0), Float(100), Float(500), QuantityError{}, Float(0), Str("P"))
	require.NoError(t, err)
	assert.True(t, p.Time.Equal(t0))
	assert.Equal(t, 100.0, *p.Index)
	assert.Equal(t, 500.0, *p.SamplingRate)
	assert.Equal(t, 0.0, *p.Shift)
	assert.Equal(t, "P", *p.PhaseHint)
}

func TestNewPick_AllAbsent(t *testing.T) {
	p, err := New(nil, nil, nil, QuantityError{}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, p.Time)
	assert.Nil(t, p.Index)
	assert.Nil(t, p.SamplingRate)
	assert.Nil(t, p.Shift)
	assert.Nil(t, p.PhaseHint)
}

func TestNewPick_BadSamplingRate(t *testing.T) {
	_, err := New(nil, nil, Float(0), QuantityError{}, nil, nil)
	require.ErrorIs(t, err, ErrInvalidValue)
	_, err = New(nil, nil, Float(-250), QuantityError{}, nil, nil)
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestPick_StringLayout(t *testing.T) {
	p, err := New(nil, Float(42), Float(1000), QuantityError{}, nil, nil)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(p.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	names := []string{"time", "index", "sampling_rate", "time_errors", "shift", "phase_hint"}
	for i, line := range lines {
		head := strings.SplitN(line, ":", 2)[0]
		assert.Equal(t, 13, len(head), "name column should be right-aligned to width 13: %q", line)
		assert.Equal(t, names[i], strings.TrimSpace(head))
	}
	assert.Contains(t, lines[1], "42")
}

package session

import (
	"fmt"
	"math"
)

// Unit is a delay value unit.
type Unit string

const (
	UnitSamples      Unit = "samples"
	UnitSeconds      Unit = "s"
	UnitMilliseconds Unit = "ms"
	UnitMicroseconds Unit = "us"
)

// Units lists the selectable delay units in display order.
var Units = []Unit{UnitSamples, UnitSeconds, UnitMilliseconds, UnitMicroseconds}

// DelayToSamples converts a delay value in the given unit to samples at the
// given sampling rate.
func DelayToSamples(val float64, unit Unit, fs float64) (float64, error) {
	switch unit {
	case UnitSamples:
		return val, nil
	case UnitSeconds:
		return val * fs, nil
	case UnitMilliseconds:
		return val * fs * 1e-3, nil
	case UnitMicroseconds:
		return val * fs * 1e-6, nil
	default:
		return 0, fmt.Errorf("%w: unknown delay unit %q", ErrInvalidValue, unit)
	}
}

// FormatTime renders an observed time in seconds with a human unit: seconds
// when >= 1 s, otherwise ms/us/ns by decimal order of magnitude, two
// decimals. Non-positive values render empty, matching how pick labels are
// only shown for usable positions.
func FormatTime(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return ""
	}
	base := math.Floor(math.Log10(seconds))
	switch {
	case base >= 0:
		return fmt.Sprintf("%.2f s", seconds)
	case base >= -3:
		return fmt.Sprintf("%.2f ms", seconds*1e3)
	case base >= -6:
		return fmt.Sprintf("%.2f us", seconds*1e6)
	case base >= -9:
		return fmt.Sprintf("%.2f ns", seconds*1e9)
	default:
		return ""
	}
}

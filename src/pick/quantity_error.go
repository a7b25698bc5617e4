package pick

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidValue reports a field that fails its range or type check at
// construction time.
var ErrInvalidValue = errors.New("invalid value")

// QuantityError holds the uncertainty metadata of a scalar measurement.
// Absent fields are nil.
type QuantityError struct {
	// Uncertainty is the absolute value of symmetric deviation from the
	// main value.
	Uncertainty *float64
	// LowerUncertainty is the deviation from the main value towards
	// smaller values.
	LowerUncertainty *float64
	// UpperUncertainty is the deviation from the main value towards
	// larger values.
	UpperUncertainty *float64
	// ConfidenceLevel is given in percent, in [0, 100].
	ConfidenceLevel *float64
}

// NewQuantityError validates and builds a QuantityError. Any argument may be
// nil to leave the field absent.
func NewQuantityError(uncertainty, lower, upper, confidence *float64) (QuantityError, error) {
	if uncertainty != nil && *uncertainty < 0 {
		return QuantityError{}, fmt.Errorf("%w: uncertainty must be a positive scalar", ErrInvalidValue)
	}
	if confidence != nil && (*confidence < 0 || *confidence > 100) {
		return QuantityError{}, fmt.Errorf("%w: confidence_level must be a scalar in [0, 100]", ErrInvalidValue)
	}
	return QuantityError{
		Uncertainty:      uncertainty,
		LowerUncertainty: lower,
		UpperUncertainty: upper,
		ConfidenceLevel:  confidence,
	}, nil
}

// ToArray emits the four fields in fixed order [uncertainty,
// lower_uncertainty, upper_uncertainty, confidence_level], NaN for absent
// fields.
func (q QuantityError) ToArray() [4]float64 {
	return [4]float64{
		orNaN(q.Uncertainty),
		orNaN(q.LowerUncertainty),
		orNaN(q.UpperUncertainty),
		orNaN(q.ConfidenceLevel),
	}
}

func (q QuantityError) String() string {
	s := fmt.Sprintf("uncertainty: %s", fmtOpt(q.Uncertainty))
	if q.LowerUncertainty != nil && q.UpperUncertainty != nil {
		s += fmt.Sprintf(", lower: %s, upper: %s", fmtOpt(q.LowerUncertainty), fmtOpt(q.UpperUncertainty))
	}
	return "QuantityError(" + s + ")"
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func fmtOpt(v *float64) string {
	if v == nil {
		return "None"
	}
	return fmt.Sprintf("%g", *v)
}

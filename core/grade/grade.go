// Package grade converts between percentages and the 0-4.0 GPA scale.
//
// The mapping is piecewise linear with breakpoints at 60, 70, 80 and 90 percent:
//
//	pct >= 90       -> 4.0
//	80 <= pct < 90  -> 3.0 + (pct-80)/10
//	70 <= pct < 80  -> 2.0 + (pct-70)/10
//	60 <= pct < 70  -> 1.0 + (pct-60)/10
//	pct < 60        -> 0.0
//
// Inputs outside [0, 100] (percentages) and [0, 4] (GPA) are clamped.
package grade

import (
	"math"

	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
)

const (
	MaxGPA        = 4.0
	MaxPercentage = 100.0
)

// PercentageToGPA maps a percentage to a GPA. pct is clamped to [0, 100].
func PercentageToGPA(pct float64) float64 {
	pct = clamp(pct, 0, MaxPercentage)
	switch {
	case pct >= 90:
		return 4.0
	case pct >= 80:
		return 3.0 + (pct-80)/10
	case pct >= 70:
		return 2.0 + (pct-70)/10
	case pct >= 60:
		return 1.0 + (pct-60)/10
	default:
		return 0.0
	}
}

// GPAToPercentage is the inverse of PercentageToGPA. gpa is clamped to [0, 4].
// GPA 4.0 maps to 90 (the lowest percentage reaching it) and GPA 0 maps to 0.
func GPAToPercentage(gpa float64) float64 {
	gpa = clamp(gpa, 0, MaxGPA)
	switch {
	case gpa >= 4.0:
		return 90
	case gpa >= 3.0:
		return 80 + (gpa-3.0)*10
	case gpa >= 2.0:
		return 70 + (gpa-2.0)*10
	case gpa >= 1.0:
		return 60 + (gpa-1.0)*10
	default:
		return 0
	}
}

// Letter returns the letter grade of a percentage.
func Letter(pct float64) string {
	switch pct = clamp(pct, 0, MaxPercentage); {
	case pct >= 90:
		return "A"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C"
	case pct >= 60:
		return "D"
	default:
		return "F"
	}
}

// ValidatePercentage rejects percentages outside [0, 100] for callers that must not clamp.
func ValidatePercentage(pct float64) error {
	if math.IsNaN(pct) || pct < 0 || pct > MaxPercentage {
		return core.NewValidationError(errors.Errorf("percentage must be between 0 and %.0f", MaxPercentage))
	}
	return nil
}

// ValidateGPA rejects GPAs outside [0, 4] for callers that must not clamp.
func ValidateGPA(gpa float64) error {
	if math.IsNaN(gpa) || gpa < 0 || gpa > MaxGPA {
		return core.NewValidationError(errors.Errorf("gpa must be between 0 and %.1f", MaxGPA))
	}
	return nil
}

// WeightedPercentage returns sum(obtained)/sum(total)*100, or 0 when total is 0.
// Modules with a larger total weigh more than modules with a smaller one.
func WeightedPercentage(obtained, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return obtained / total * 100
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}

package glmodel

import (
	"fmt"
	"strings"
)

// ValidationError describes input which cannot be used. Taxon,
// Position (1-based, 0 if not applicable) and Parameter locate the
// problem when they are set.
type ValidationError struct {
	Taxon     string
	Position  int
	Parameter string
	Msg       string
}

func (e *ValidationError) Error() string {
	var loc []string
	if e.Taxon != "" {
		loc = append(loc, "taxon "+e.Taxon)
	}
	if e.Position > 0 {
		loc = append(loc, fmt.Sprintf("position %d", e.Position))
	}
	if e.Parameter != "" {
		loc = append(loc, "parameter "+e.Parameter)
	}
	if len(loc) == 0 {
		return "validation error: " + e.Msg
	}
	return fmt.Sprintf("validation error (%s): %s", strings.Join(loc, ", "), e.Msg)
}

// checkRange returns a ValidationError if v is outside of [min, max]
// or is NaN.
func checkRange(name string, v, min, max float64) error {
	if !(v >= min && v <= max) {
		return &ValidationError{
			Parameter: name,
			Msg:       fmt.Sprintf("value %g is outside of [%g, %g]", v, min, max),
		}
	}
	return nil
}

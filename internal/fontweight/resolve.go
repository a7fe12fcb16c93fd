// Package fontweight reproduces how Google Docs combines a declared font
// weight with the bold flag to pick the weight it renders.
package fontweight

import "fmt"

const (
	Min     = 100
	Max     = 900
	Step    = 100
	Default = 400 // weight of regular text
	Bold    = 700 // weight bold regular text renders at
)

// InvalidWeightError reports a weight outside {100, 200, ..., 900}.
type InvalidWeightError struct {
	Weight int
}

func (e *InvalidWeightError) Error() string {
	return fmt.Sprintf("invalid font weight %d: must be a multiple of %d in [%d, %d]", e.Weight, Step, Min, Max)
}

// Validate checks that w is in the weight domain.
func Validate(w int) error {
	if w < Min || w > Max || w%Step != 0 {
		return &InvalidWeightError{Weight: w}
	}
	return nil
}

// Resolve maps a declared weight and the bold flag to the rendered weight.
// Bold lifts weights below 400 to 400 and weights in [400, 700) to 700;
// weights of 700 and above are rendered as declared.
func Resolve(weight int, bold bool) (int, error) {
	if err := Validate(weight); err != nil {
		return 0, err
	}
	if !bold || weight >= Bold {
		return weight, nil
	}
	if weight < Default {
		return Default, nil
	}
	return Bold, nil
}

// MustResolve is Resolve for weights already known to be valid.
func MustResolve(weight int, bold bool) int {
	w, err := Resolve(weight, bold)
	if err != nil {
		panic(err)
	}
	return w
}

// Ambiguous reports whether the declared weight cannot be recovered from the
// rendered one: several declared weights collapse onto the same rendered
// weight once bold is applied.
func Ambiguous(weight int, bold bool) bool {
	return bold && weight < Bold && weight != Default
}

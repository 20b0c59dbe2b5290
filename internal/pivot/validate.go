package pivot

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrInvalidSelection wraps every problem reported by Selection.Validate.
var ErrInvalidSelection = errors.New("invalid selection")

// Validate reports every malformed entry of the selection at once. Aggregate
// does not require a valid selection; callers that build queries from it do.
func (s Selection) Validate() error {
	var err error
	check := func(axis string, attrs []string) {
		for i, a := range attrs {
			if _, _, ok := SplitAttribute(a); !ok {
				err = multierr.Append(err, fmt.Errorf("%w: %s[%d] %q is not <dimension>.<attribute>", ErrInvalidSelection, axis, i, a))
			}
		}
	}
	check("rowsDimensions", s.Rows)
	check("colsDimensions", s.Cols)
	for i, m := range s.Measures {
		if m == "" {
			err = multierr.Append(err, fmt.Errorf("%w: measures[%d] is empty", ErrInvalidSelection, i))
		}
	}
	for i, f := range s.Filters {
		if f.Dimension == "" || f.Attribute == "" {
			err = multierr.Append(err, fmt.Errorf("%w: filters[%d] has no dimension or attribute", ErrInvalidSelection, i))
		}
		switch f.Comparison {
		case CompareEqual, CompareNotEqual:
		default:
			err = multierr.Append(err, fmt.Errorf("%w: filters[%d] unsupported comparison %q", ErrInvalidSelection, i, f.Comparison))
		}
	}
	return err
}

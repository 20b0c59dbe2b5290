package engine

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"pivotd/internal/pivot"
)

// Schema binds CSV columns to dimension attributes and measures.
//
//	delimiter: ","
//	dimensions:
//	  Region:
//	    Country: country
//	    Name: region
//	measures:
//	  Revenue: total_price
type Schema struct {
	Delimiter  string                       `yaml:"delimiter"`
	Dimensions map[string]map[string]string `yaml:"dimensions"`
	Measures   map[string]string            `yaml:"measures"`
}

// LoadSchema reads and validates a YAML schema file.
func LoadSchema(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return ParseSchema(b)
}

func ParseSchema(b []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Schema) Validate() error {
	var err error
	if len(s.Delimiter) > 1 {
		err = multierr.Append(err, fmt.Errorf("delimiter %q must be a single byte", s.Delimiter))
	}
	if len(s.Dimensions) == 0 {
		err = multierr.Append(err, errors.New("schema declares no dimensions"))
	}
	for dim, attrs := range s.Dimensions {
		if len(attrs) == 0 {
			err = multierr.Append(err, fmt.Errorf("dimension %q has no attributes", dim))
		}
		for attr, col := range attrs {
			if _, _, ok := pivot.SplitAttribute(dim + "." + attr); !ok {
				err = multierr.Append(err, fmt.Errorf("attribute %q of dimension %q is malformed", attr, dim))
			}
			if col == "" {
				err = multierr.Append(err, fmt.Errorf("attribute %s.%s has no column", dim, attr))
			}
		}
	}
	for m, col := range s.Measures {
		if m == "" || col == "" {
			err = multierr.Append(err, fmt.Errorf("measure %q has no column", m))
		}
	}
	return err
}

func (s *Schema) delimiter() byte {
	if s.Delimiter == "" {
		return ','
	}
	return s.Delimiter[0]
}

// Attributes returns the qualified attribute names, sorted.
func (s *Schema) Attributes() []string {
	var out []string
	for dim, attrs := range s.Dimensions {
		for attr := range attrs {
			out = append(out, dim+"."+attr)
		}
	}
	sort.Strings(out)
	return out
}

// MeasureNames returns the measure names, sorted.
func (s *Schema) MeasureNames() []string {
	out := make([]string, 0, len(s.Measures))
	for m := range s.Measures {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func (s *Schema) column(qualified string) string {
	dim, attr, _ := pivot.SplitAttribute(qualified)
	return s.Dimensions[dim][attr]
}

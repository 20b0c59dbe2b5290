package pivot

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field is one cell of a DataRow. A field is either a measure field (Measure
// set, Number holding the value) or a dimension field (Attribute set, Value
// holding the member).
type Field struct {
	Measure   string
	Number    float64
	Attribute string
	Value     string
}

// MeasureField builds a measure field.
func MeasureField(measure string, v float64) Field {
	return Field{Measure: measure, Number: v}
}

// DimensionField builds a dimension field; attribute is "<dimension>.<attribute>".
func DimensionField(attribute, v string) Field {
	return Field{Attribute: attribute, Value: v}
}

func (f Field) IsMeasure() bool   { return f.Measure != "" }
func (f Field) IsDimension() bool { return f.Measure == "" && f.Attribute != "" }

type fieldJSON struct {
	Measure   string          `json:"measure,omitempty"`
	Attribute string          `json:"attribute,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON writes {measure, value:number} or {attribute, value:string}.
func (f Field) MarshalJSON() ([]byte, error) {
	out := fieldJSON{Measure: f.Measure, Attribute: f.Attribute}
	var err error
	if f.IsMeasure() {
		out.Attribute = ""
		out.Value, err = json.Marshal(f.Number)
	} else {
		out.Value, err = json.Marshal(f.Value)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the two tagged shapes. A value that is missing, null
// or of the wrong JSON type leaves the field malformed rather than failing
// the whole document.
func (f *Field) UnmarshalJSON(b []byte) error {
	var in fieldJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*f = Field{}
	if len(in.Value) == 0 || string(in.Value) == "null" {
		return nil
	}
	switch {
	case in.Measure != "":
		var n float64
		if err := json.Unmarshal(in.Value, &n); err != nil {
			return nil
		}
		f.Measure, f.Number = in.Measure, n
	case in.Attribute != "":
		var s string
		if err := json.Unmarshal(in.Value, &s); err != nil {
			// Numeric members such as years arrive unquoted.
			var n json.Number
			if err := json.Unmarshal(in.Value, &n); err != nil {
				return nil
			}
			s = n.String()
		}
		f.Attribute, f.Value = in.Attribute, s
	}
	return nil
}

// DataRow is one source record: a combination of dimension members carrying
// one or more measure values.
type DataRow []Field

// Comparisons understood by Filter.
const (
	CompareEqual    = "="
	CompareNotEqual = "!="
)

type Filter struct {
	Dimension  string `json:"dimension"`
	Attribute  string `json:"attribute"`
	Comparison string `json:"comparison"`
	Value      string `json:"value"`
}

// QualifiedAttribute returns "<dimension>.<attribute>".
func (f Filter) QualifiedAttribute() string {
	return f.Dimension + "." + f.Attribute
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %s", f.QualifiedAttribute(), f.Comparison, f.Value)
}

// Selection is the pivot layout. It is treated as a value: nothing in this
// package modifies the slices it holds.
type Selection struct {
	Rows     []string `json:"rowsDimensions"`
	Cols     []string `json:"colsDimensions"`
	Measures []string `json:"measures"`
	Filters  []Filter `json:"filters,omitempty"`
}

// FiltersString describes the filters as "A.b = x AND C.d = y".
func (s Selection) FiltersString() string {
	parts := make([]string, len(s.Filters))
	for i, f := range s.Filters {
		parts[i] = f.String()
	}
	return strings.Join(parts, " AND ")
}

// Ambiguous lists attributes placed on both axes, in row order.
func (s Selection) Ambiguous() []string {
	cols := make(map[string]struct{}, len(s.Cols))
	for _, c := range s.Cols {
		cols[c] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, r := range s.Rows {
		if _, ok := cols[r]; !ok {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Attributes returns row attributes followed by column attributes.
func (s Selection) Attributes() []string {
	out := make([]string, 0, len(s.Rows)+len(s.Cols))
	out = append(out, s.Rows...)
	return append(out, s.Cols...)
}

// SplitAttribute splits "<dimension>.<attribute>" at the first dot.
func SplitAttribute(qualified string) (dimension, attribute string, ok bool) {
	dimension, attribute, ok = strings.Cut(qualified, ".")
	if !ok || dimension == "" || attribute == "" {
		return "", "", false
	}
	return dimension, attribute, true
}

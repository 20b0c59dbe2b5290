package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
)

var (
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrUnknownMeasure   = errors.New("unknown measure")
)

var storeSeq atomic.Uint64

// ColumnStore holds the dataset in Struct-of-Arrays format.
type ColumnStore struct {
	Schema *Schema
	Rows   int

	// Dictionary encoded dimension columns, indexed like Attributes.
	Attributes []string
	DimIDs     [][]int32
	Dicts      [][]string // ID -> member

	// Measure columns, indexed like MeasureNames.
	MeasureNames []string
	Measures     [][]float64

	// SkippedRows counts body lines that could not be parsed.
	SkippedRows int

	// id distinguishes stores for the lifetime of the process.
	id           uint64
	attrIndex    map[string]int
	measureIndex map[string]int
}

func newColumnStore(schema *Schema) *ColumnStore {
	cs := &ColumnStore{
		Schema:       schema,
		id:           storeSeq.Add(1),
		Attributes:   schema.Attributes(),
		MeasureNames: schema.MeasureNames(),
		attrIndex:    make(map[string]int),
		measureIndex: make(map[string]int),
	}
	cs.DimIDs = make([][]int32, len(cs.Attributes))
	cs.Dicts = make([][]string, len(cs.Attributes))
	cs.Measures = make([][]float64, len(cs.MeasureNames))
	for i, a := range cs.Attributes {
		cs.attrIndex[a] = i
	}
	for i, m := range cs.MeasureNames {
		cs.measureIndex[m] = i
	}
	return cs
}

func (cs *ColumnStore) attribute(name string) (int, bool) {
	i, ok := cs.attrIndex[name]
	return i, ok
}

func (cs *ColumnStore) measure(name string) (int, bool) {
	i, ok := cs.measureIndex[name]
	return i, ok
}

// Elements returns the distinct members of attribute, sorted.
func (cs *ColumnStore) Elements(attribute string) ([]string, error) {
	i, ok := cs.attribute(attribute)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	out := append([]string(nil), cs.Dicts[i]...)
	sort.Strings(out)
	return out, nil
}

// Dimensions groups attribute names by dimension, as the pivot UI lists them.
func (cs *ColumnStore) Dimensions() map[string][]string {
	out := make(map[string][]string, len(cs.Schema.Dimensions))
	for dim, attrs := range cs.Schema.Dimensions {
		names := make([]string, 0, len(attrs))
		for a := range attrs {
			names = append(names, a)
		}
		sort.Strings(names)
		out[dim] = names
	}
	return out
}

package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pivotd/internal/metrics"
	"pivotd/internal/pivot"
)

// Query answers a pivot selection from the store: rows passing the filters
// are grouped by the row and column attributes of sel and the selected
// measures are summed per group. One DataRow is returned per group, ordered
// by member values.
func (cs *ColumnStore) Query(ctx context.Context, sel pivot.Selection) ([]pivot.DataRow, error) {
	start := time.Now()
	defer func() { metrics.QueryDuration.Observe(time.Since(start).Seconds()) }()

	if err := sel.Validate(); err != nil {
		return nil, err
	}

	var attrs []int
	var names []string
	seen := make(map[string]struct{})
	for _, a := range sel.Attributes() {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		i, ok := cs.attribute(a)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, a)
		}
		attrs = append(attrs, i)
		names = append(names, a)
	}

	measures := make([]int, 0, len(sel.Measures))
	for _, m := range sel.Measures {
		i, ok := cs.measure(m)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMeasure, m)
		}
		measures = append(measures, i)
	}

	preds, err := cs.compileFilters(sel.Filters)
	if err != nil {
		return nil, err
	}

	groups, err := cs.groupBy(ctx, attrs, measures, preds)
	if err != nil {
		return nil, err
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		for k, attr := range attrs {
			va, vb := cs.Dicts[attr][a.ids[k]], cs.Dicts[attr][b.ids[k]]
			if va != vb {
				return va < vb
			}
		}
		return false
	})

	out := make([]pivot.DataRow, len(ordered))
	for i, g := range ordered {
		row := make(pivot.DataRow, 0, len(attrs)+len(measures))
		for k, attr := range attrs {
			row = append(row, pivot.DimensionField(names[k], cs.Dicts[attr][g.ids[k]]))
		}
		for k, m := range sel.Measures {
			row = append(row, pivot.MeasureField(m, g.sums[k]))
		}
		out[i] = row
	}
	return out, nil
}

func (cs *ColumnStore) compileFilters(filters []pivot.Filter) ([]predicate, error) {
	preds := make([]predicate, 0, len(filters))
	for _, f := range filters {
		attr, ok := cs.attribute(f.QualifiedAttribute())
		if !ok {
			return nil, fmt.Errorf("filter: %w: %q", ErrUnknownAttribute, f.QualifiedAttribute())
		}
		p := predicate{attr: attr, id: -1, negate: f.Comparison == pivot.CompareNotEqual}
		for id, v := range cs.Dicts[attr] {
			if v == f.Value {
				p.id = int32(id)
				break
			}
		}
		preds = append(preds, p)
	}
	return preds, nil
}

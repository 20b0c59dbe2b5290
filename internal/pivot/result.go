package pivot

import (
	"strconv"
	"strings"
)

// Lookup returns the measures of the (row, col) cell. ok is false when no
// input row produced that pair.
func (r *Result) Lookup(row, col Key) (Measures, bool) {
	cols, ok := r.CrossTab[row.Encode()]
	if !ok {
		return nil, false
	}
	m, ok := cols[col.Encode()]
	return m, ok
}

// Value returns one measure of the (row, col) cell.
func (r *Result) Value(row, col Key, measure string) (float64, bool) {
	m, ok := r.Lookup(row, col)
	if !ok {
		return 0, false
	}
	v, ok := m[measure]
	return v, ok
}

// Format renders a measure value, or NoData when the cell or measure is absent.
func (r *Result) Format(row, col Key, measure string) string {
	v, ok := r.Value(row, col, measure)
	if !ok {
		return NoData
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Selector describes the (row, col) cell as "Attr=value;" pairs, row
// attributes first. It is what a write-back collaborator receives to
// identify the edited cell. Unset slots are left out.
func (r *Result) Selector(row, col Key) string {
	var b strings.Builder
	write := func(attrs []string, k Key) {
		for i, s := range k {
			if !s.Set || i >= len(attrs) {
				continue
			}
			b.WriteString(attrs[i])
			b.WriteByte('=')
			b.WriteString(s.Value)
			b.WriteByte(';')
		}
	}
	write(r.Selection.Rows, row)
	write(r.Selection.Cols, col)
	return b.String()
}

// Cell is one populated cross-tab entry.
type Cell struct {
	Row      Key
	Col      Key
	Measures Measures
}

// Cells returns the populated cells in row-key then column-key order.
func (r *Result) Cells() []Cell {
	var out []Cell
	for _, rk := range r.RowKeys {
		cols := r.CrossTab[rk.Encode()]
		for _, ck := range r.ColKeys {
			if m, ok := cols[ck.Encode()]; ok {
				out = append(out, Cell{Row: rk, Col: ck, Measures: m})
			}
		}
	}
	return out
}

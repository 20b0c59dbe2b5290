package pivot

import (
	"sort"
)

// NoData is how a cell with no contributing row is rendered.
const NoData = "-"

// Measures holds the measure values of one cross-tab cell.
type Measures map[string]float64

// Stats counts the input problems Aggregate tolerated.
type Stats struct {
	Rows             int `json:"rows"`
	MalformedFields  int `json:"malformedFields"`
	AmbiguousFields  int `json:"ambiguousFields"`
	OverwrittenCells int `json:"overwrittenCells"`
}

// Result is the cross-tab built by Aggregate.
type Result struct {
	Selection        Selection
	RowKeys          []Key
	ColKeys          []Key
	ValueToAttribute map[string]string
	// CrossTab is indexed by encoded row key then encoded column key.
	CrossTab map[string]map[string]Measures
	Stats    Stats
}

// Aggregate builds the row/column cross-tab of rows for the layout in sel.
//
// Every row contributes one cell: its row key is its values for sel.Rows and
// its column key its values for sel.Cols, positions without a value staying
// unset. When two rows land on the same cell the later one replaces the
// earlier one; measures are never summed here. An attribute present on both
// axes fills the row slot only. Malformed fields are skipped. Aggregate never
// fails and does not retain rows or sel's slices.
func Aggregate(rows []DataRow, sel Selection) *Result {
	rowPos := positions(sel.Rows)
	colPos := positions(sel.Cols)

	res := &Result{
		Selection:        sel,
		ValueToAttribute: make(map[string]string),
		CrossTab:         make(map[string]map[string]Measures),
	}
	rowSeen := make(map[string]struct{})
	colSeen := make(map[string]struct{})

	for _, row := range rows {
		res.Stats.Rows++
		rk := newKey(len(sel.Rows))
		ck := newKey(len(sel.Cols))
		measures := make(Measures)

		for _, f := range row {
			switch {
			case f.IsMeasure():
				measures[f.Measure] = f.Number
				continue
			case !f.IsDimension():
				res.Stats.MalformedFields++
				continue
			}
			if i, ok := rowPos[f.Attribute]; ok {
				rk[i] = Slot{Value: f.Value, Set: true}
				if _, both := colPos[f.Attribute]; both {
					res.Stats.AmbiguousFields++
				}
			} else if i, ok := colPos[f.Attribute]; ok {
				ck[i] = Slot{Value: f.Value, Set: true}
			}
			res.ValueToAttribute[f.Value] = f.Attribute
		}

		re, ce := rk.Encode(), ck.Encode()
		if _, ok := rowSeen[re]; !ok {
			rowSeen[re] = struct{}{}
			res.RowKeys = append(res.RowKeys, rk)
		}
		if _, ok := colSeen[ce]; !ok {
			colSeen[ce] = struct{}{}
			res.ColKeys = append(res.ColKeys, ck)
		}

		cols, ok := res.CrossTab[re]
		if !ok {
			cols = make(map[string]Measures)
			res.CrossTab[re] = cols
		}
		if _, dup := cols[ce]; dup {
			res.Stats.OverwrittenCells++
		}
		cols[ce] = measures
	}

	sortKeys(res.RowKeys)
	sortKeys(res.ColKeys)
	return res
}

// positions maps each attribute to its first index in attrs.
func positions(attrs []string) map[string]int {
	m := make(map[string]int, len(attrs))
	for i, a := range attrs {
		if _, ok := m[a]; !ok {
			m[a] = i
		}
	}
	return m
}

func sortKeys(keys []Key) {
	encoded := make([]string, len(keys))
	for i, k := range keys {
		encoded[i] = k.Encode()
	}
	sort.Sort(byEncoding{keys: keys, enc: encoded})
}

type byEncoding struct {
	keys []Key
	enc  []string
}

func (b byEncoding) Len() int           { return len(b.keys) }
func (b byEncoding) Less(i, j int) bool { return b.enc[i] < b.enc[j] }
func (b byEncoding) Swap(i, j int) {
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
	b.enc[i], b.enc[j] = b.enc[j], b.enc[i]
}

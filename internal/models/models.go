package models

import "pivotd/internal/pivot"

// PivotRequest carries a result set to aggregate as-is.
type PivotRequest struct {
	Rows      []pivot.DataRow `json:"rows"`
	Selection pivot.Selection `json:"selection"`
}

// QueryRequest asks the server to query its dataset before aggregating.
type QueryRequest struct {
	Selection pivot.Selection `json:"selection"`
}

type PivotResponse struct {
	RowsDimensions   []string          `json:"rowsDimensions"`
	ColsDimensions   []string          `json:"colsDimensions"`
	Measures         []string          `json:"measures"`
	Filters          string            `json:"filters"`
	RowKeys          []pivot.Key       `json:"rowKeys"`
	ColKeys          []pivot.Key       `json:"colKeys"`
	ValueToAttribute map[string]string `json:"valueToAttribute"`
	Cells            []Cell            `json:"cells"`
	NoData           string            `json:"noData"`
	Stats            pivot.Stats       `json:"stats"`
}

type Cell struct {
	Row      pivot.Key      `json:"row"`
	Col      pivot.Key      `json:"col"`
	Selector string         `json:"selector"`
	Measures pivot.Measures `json:"measures"`
}

// NewPivotResponse flattens a cross-tab for JSON consumers.
func NewPivotResponse(res *pivot.Result) *PivotResponse {
	out := &PivotResponse{
		RowsDimensions:   nonNil(res.Selection.Rows),
		ColsDimensions:   nonNil(res.Selection.Cols),
		Measures:         nonNil(res.Selection.Measures),
		Filters:          res.Selection.FiltersString(),
		RowKeys:          make([]pivot.Key, 0, len(res.RowKeys)),
		ColKeys:          make([]pivot.Key, 0, len(res.ColKeys)),
		ValueToAttribute: res.ValueToAttribute,
		Cells:            make([]Cell, 0),
		NoData:           pivot.NoData,
		Stats:            res.Stats,
	}
	out.RowKeys = append(out.RowKeys, res.RowKeys...)
	out.ColKeys = append(out.ColKeys, res.ColKeys...)
	for _, c := range res.Cells() {
		out.Cells = append(out.Cells, Cell{
			Row:      c.Row,
			Col:      c.Col,
			Selector: res.Selector(c.Row, c.Col),
			Measures: c.Measures,
		})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type SchemaResponse struct {
	Dimensions map[string][]string `json:"dimensions"`
	Attributes []string            `json:"attributes"`
	Measures   []string            `json:"measures"`
	Rows       int                 `json:"rows"`
}

type ElementsPage struct {
	Attribute string   `json:"attribute"`
	Data      []string `json:"data"`
	Total     int      `json:"total"`
	Limit     int      `json:"limit"`
	Offset    int      `json:"offset"`
}

type Health struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pivotd/internal/pivot"
)

func TestQuery(t *testing.T) {
	cs := mustStore(t, 3)

	sel := pivot.Selection{
		Rows:     []string{"Region.Country"},
		Cols:     []string{"Date.Year"},
		Measures: []string{"Revenue", "Quantity"},
	}
	rows, err := cs.Query(context.Background(), sel)
	require.NoError(t, err)

	// Germany 2021: T1 + T6, Germany 2022: T3 + T4, France 2021: T2.
	assert.Equal(t, []pivot.DataRow{
		{pivot.DimensionField("Region.Country", "France"), pivot.DimensionField("Date.Year", "2021"), pivot.MeasureField("Revenue", 20), pivot.MeasureField("Quantity", 1)},
		{pivot.DimensionField("Region.Country", "Germany"), pivot.DimensionField("Date.Year", "2021"), pivot.MeasureField("Revenue", 26), pivot.MeasureField("Quantity", 3)},
		{pivot.DimensionField("Region.Country", "Germany"), pivot.DimensionField("Date.Year", "2022"), pivot.MeasureField("Revenue", 6), pivot.MeasureField("Quantity", 4)},
	}, rows)

	res := pivot.Aggregate(rows, sel)
	assert.Equal(t, []pivot.Key{pivot.KeyOf("France"), pivot.KeyOf("Germany")}, res.RowKeys)
	assert.Equal(t, []pivot.Key{pivot.KeyOf("2021"), pivot.KeyOf("2022")}, res.ColKeys)
	assert.Equal(t, pivot.NoData, res.Format(pivot.KeyOf("France"), pivot.KeyOf("2022"), "Revenue"))
}

func TestQueryFilters(t *testing.T) {
	cs := mustStore(t, 2)
	base := pivot.Selection{Rows: []string{"Product.Name"}, Measures: []string{"Quantity"}}

	eq := base
	eq.Filters = []pivot.Filter{{Dimension: "Region", Attribute: "Country", Comparison: "=", Value: "Germany"}}
	rows, err := cs.Query(context.Background(), eq)
	require.NoError(t, err)
	assert.Equal(t, []pivot.DataRow{
		{pivot.DimensionField("Product.Name", "Widget_A"), pivot.MeasureField("Quantity", 4)},
		{pivot.DimensionField("Product.Name", "Widget_B"), pivot.MeasureField("Quantity", 3)},
	}, rows)

	ne := base
	ne.Filters = []pivot.Filter{{Dimension: "Region", Attribute: "Country", Comparison: "!=", Value: "Germany"}}
	rows, err = cs.Query(context.Background(), ne)
	require.NoError(t, err)
	assert.Equal(t, []pivot.DataRow{
		{pivot.DimensionField("Product.Name", "Widget_B"), pivot.MeasureField("Quantity", 1)},
	}, rows)

	none := base
	none.Filters = []pivot.Filter{{Dimension: "Region", Attribute: "Country", Comparison: "=", Value: "Spain"}}
	rows, err = cs.Query(context.Background(), none)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestQueryNoAxes(t *testing.T) {
	cs := mustStore(t, 4)
	rows, err := cs.Query(context.Background(), pivot.Selection{Measures: []string{"Quantity"}})
	require.NoError(t, err)
	assert.Equal(t, []pivot.DataRow{{pivot.MeasureField("Quantity", 8)}}, rows)
}

func TestQueryAmbiguousAttributeGroupedOnce(t *testing.T) {
	cs := mustStore(t, 1)
	sel := pivot.Selection{Rows: []string{"Region.Country"}, Cols: []string{"Region.Country"}, Measures: []string{"Quantity"}}
	rows, err := cs.Query(context.Background(), sel)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 2)
}

func TestQueryErrors(t *testing.T) {
	cs := mustStore(t, 1)
	ctx := context.Background()

	_, err := cs.Query(ctx, pivot.Selection{Rows: []string{"Region.Planet"}})
	assert.ErrorIs(t, err, ErrUnknownAttribute)

	_, err = cs.Query(ctx, pivot.Selection{Measures: []string{"Profit"}})
	assert.ErrorIs(t, err, ErrUnknownMeasure)

	_, err = cs.Query(ctx, pivot.Selection{Rows: []string{"Region"}})
	assert.ErrorIs(t, err, pivot.ErrInvalidSelection)

	_, err = cs.Query(ctx, pivot.Selection{Filters: []pivot.Filter{{Dimension: "Moon", Attribute: "Phase", Comparison: "="}}})
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestElements(t *testing.T) {
	cs := mustStore(t, 2)

	got, err := cs.Elements("Region.Name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bavaria", "Hesse", "Normandy"}, got)

	_, err = cs.Elements("Region.Planet")
	assert.ErrorIs(t, err, ErrUnknownAttribute)

	assert.Equal(t, map[string][]string{
		"Date":    {"Year"},
		"Product": {"Name"},
		"Region":  {"Country", "Name"},
	}, cs.Dimensions())
}

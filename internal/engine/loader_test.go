package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSchema = `
dimensions:
  Region:
    Country: country
    Name: region
  Product:
    Name: product_name
  Date:
    Year: year
measures:
  Revenue: total_price
  Quantity: quantity
`

var testCSV = []byte(`transaction_id,year,country,region,product_name,quantity,total_price
T1,2021,Germany,Bavaria,Widget_A,2,21.00
T2,2021,France,Normandy,Widget_B,1,20.00
T3,2022,Germany,Hesse,Widget_A,1,10.50
T4,2022,Germany,Bavaria,Widget_B,3,-4.5
bad,line
T5,2022,France,Normandy,Widget_A,x,1
T6,2021,Germany,Bavaria,Widget_A,1,5
`)

func mustSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := ParseSchema([]byte(testSchema))
	require.NoError(t, err)
	return s
}

func mustStore(t *testing.T, workers int) *ColumnStore {
	t.Helper()
	cs, err := ParseColumnar(context.Background(), testCSV, mustSchema(t), workers)
	require.NoError(t, err)
	return cs
}

func TestParseColumnar(t *testing.T) {
	cs := mustStore(t, 1)

	assert.Equal(t, 5, cs.Rows)
	assert.Equal(t, 2, cs.SkippedRows)
	assert.Equal(t, []string{"Date.Year", "Product.Name", "Region.Country", "Region.Name"}, cs.Attributes)
	assert.Equal(t, []string{"Quantity", "Revenue"}, cs.MeasureNames)

	rev, _ := cs.measure("Revenue")
	assert.Equal(t, []float64{21, 20, 10.5, -4.5, 5}, cs.Measures[rev])

	country, _ := cs.attribute("Region.Country")
	assert.Equal(t, []string{"Germany", "France"}, cs.Dicts[country])
	assert.Equal(t, []int32{0, 1, 0, 0, 0}, cs.DimIDs[country])
}

func TestParseColumnarWorkersAgree(t *testing.T) {
	one := mustStore(t, 1)
	for _, workers := range []int{2, 3, 7, 64} {
		many := mustStore(t, workers)
		require.Equal(t, one.Rows, many.Rows, "workers=%d", workers)
		assert.Equal(t, one.SkippedRows, many.SkippedRows, "workers=%d", workers)
		assert.Equal(t, one.Measures, many.Measures, "workers=%d", workers)

		// Dictionary ids may differ, decoded members may not.
		for d := range one.Attributes {
			for r := 0; r < one.Rows; r++ {
				assert.Equal(t, one.Dicts[d][one.DimIDs[d][r]], many.Dicts[d][many.DimIDs[d][r]])
			}
		}
	}
}

func TestParseColumnarTrimsMembers(t *testing.T) {
	cs, err := ParseColumnar(context.Background(), []byte(`transaction_id,year,country,region,product_name,quantity,total_price
T1,2021, Germany ,Bavaria,Widget_A, 2 ,21.00
T2,2021,Germany,Bavaria,Widget_A,1,1
`), mustSchema(t), 1)
	require.NoError(t, err)
	require.Equal(t, 2, cs.Rows)

	country, _ := cs.attribute("Region.Country")
	assert.Equal(t, []string{"Germany"}, cs.Dicts[country])
	assert.Equal(t, []int32{0, 0}, cs.DimIDs[country])
}

func TestParseColumnarMissingColumn(t *testing.T) {
	s, err := ParseSchema([]byte(`
dimensions:
  Region:
    Name: nope
measures:
  Revenue: total_price
`))
	require.NoError(t, err)
	_, err = ParseColumnar(context.Background(), testCSV, s, 2)
	assert.ErrorContains(t, err, `column "nope" not in header`)
}

func TestParseColumnarHeaderOnly(t *testing.T) {
	cs, err := ParseColumnar(context.Background(), []byte("transaction_id,year,country,region,product_name,quantity,total_price"), mustSchema(t), 4)
	require.NoError(t, err)
	assert.Zero(t, cs.Rows)
}

func TestParseColumnarCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ParseColumnar(ctx, testCSV, mustSchema(t), 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadColumnar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, testCSV, 0o600))

	cs, err := LoadColumnar(context.Background(), zap.NewNop(), path, mustSchema(t))
	require.NoError(t, err)
	assert.Equal(t, 5, cs.Rows)

	_, err = LoadColumnar(context.Background(), zap.NewNop(), filepath.Join(t.TempDir(), "missing.csv"), mustSchema(t))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseMeasure(t *testing.T) {
	f, ok := parseMeasure([]byte("123.45"))
	require.True(t, ok)
	assert.Equal(t, 123.45, f)

	_, ok = parseMeasure([]byte(""))
	assert.False(t, ok)
	_, ok = parseMeasure([]byte("1,5"))
	assert.False(t, ok)
}

func TestAlignChunk(t *testing.T) {
	content := []byte("aa\nbbb\ncc\n")
	s, e := alignChunk(content, 0, 4)
	assert.Equal(t, 0, s)
	assert.Equal(t, 7, e)
	s, e = alignChunk(content, 4, 8)
	assert.Equal(t, 7, s)
	assert.Equal(t, 10, e)
	s, e = alignChunk(content, 3, 3)
	assert.Equal(t, 3, s)
	assert.Equal(t, 3, e)
}

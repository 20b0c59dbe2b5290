package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestParseSchema(t *testing.T) {
	s := mustSchema(t)
	assert.Equal(t, byte(','), s.delimiter())
	assert.Equal(t, []string{"Date.Year", "Product.Name", "Region.Country", "Region.Name"}, s.Attributes())
	assert.Equal(t, []string{"Quantity", "Revenue"}, s.MeasureNames())
	assert.Equal(t, "region", s.column("Region.Name"))
}

func TestParseSchemaInvalid(t *testing.T) {
	_, err := ParseSchema([]byte(`
delimiter: "::"
dimensions:
  Empty: {}
  Region:
    Name: ""
measures:
  Revenue: ""
`))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)

	_, err = ParseSchema([]byte(`dimensions: [`))
	assert.ErrorContains(t, err, "parse schema")
}

func TestLoadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("delimiter: \";\"\n"+testSchema), 0o600))

	s, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, byte(';'), s.delimiter())
}

package pivot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyEncode(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{"empty", Key{}, ""},
		{"single", KeyOf("North"), "North"},
		{"pair", KeyOf("North", "Oslo"), "North;Oslo"},
		{"delimiter in value", KeyOf("a;b"), `a\;b`},
		{"escape in value", KeyOf(`a\b`), `a\\b`},
		{"unset", Key{{}, {Value: "x", Set: true}}, `\?;x`},
		{"empty value", KeyOf(""), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.Encode())
		})
	}
}

func TestKeyEncodingIsInjective(t *testing.T) {
	keys := []Key{
		KeyOf("a;b"),
		KeyOf("a", "b"),
		KeyOf("0", "1"),
		{{}, {Value: "1", Set: true}},
		KeyOf(`\?`, "1"),
		KeyOf(`\`, "?"),
		KeyOf(`\;`),
	}
	seen := make(map[string]Key)
	for _, k := range keys {
		enc := k.Encode()
		prev, dup := seen[enc]
		require.False(t, dup, "%v and %v both encode to %q", prev, k, enc)
		seen[enc] = k
		assert.Equal(t, k, decodeKey(enc, len(k)))
	}
}

func TestDecodeKeyArity(t *testing.T) {
	assert.Equal(t, Key{}, decodeKey("", 0))
	assert.Equal(t, KeyOf(""), decodeKey("", 1))
	assert.Equal(t, Key{{}, {}}, decodeKey(`\?;\?`, 2))
}

func TestKeyJSON(t *testing.T) {
	k := Key{{Value: "North", Set: true}, {}}
	b, err := json.Marshal(k)
	require.NoError(t, err)
	assert.JSONEq(t, `["North", null]`, string(b))

	var back Key
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, k, back)
}

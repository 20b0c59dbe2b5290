package pivot

import (
	"encoding/json"
	"strings"
)

const (
	keySep     = ';'
	keyEscape  = '\\'
	unsetToken = `\?`
)

// Slot is one position of a Key. A slot that was never filled keeps its
// position with Set == false.
type Slot struct {
	Value string
	Set   bool
}

// Key is a composite row or column key: one slot per attribute of the axis,
// in selection order.
type Key []Slot

func newKey(n int) Key {
	return make(Key, n)
}

// KeyOf builds a fully set key from values.
func KeyOf(values ...string) Key {
	k := make(Key, len(values))
	for i, v := range values {
		k[i] = Slot{Value: v, Set: true}
	}
	return k
}

// Values returns the slot values; unset slots yield "".
func (k Key) Values() []string {
	out := make([]string, len(k))
	for i, s := range k {
		out[i] = s.Value
	}
	return out
}

// Encode returns the canonical string form of the key. Slots are joined with
// ';', '\' and ';' inside values are escaped with '\', and unset slots are
// written as `\?`, which no escaped value can produce. Distinct keys of the
// same arity always encode differently.
func (k Key) Encode() string {
	var b strings.Builder
	for i, s := range k {
		if i > 0 {
			b.WriteByte(keySep)
		}
		if !s.Set {
			b.WriteString(unsetToken)
			continue
		}
		for j := 0; j < len(s.Value); j++ {
			c := s.Value[j]
			if c == keySep || c == keyEscape {
				b.WriteByte(keyEscape)
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

// decodeKey parses the output of Encode. An empty string decodes to a single
// set slot holding ""; callers that know the arity should use it to tell this
// apart from the empty key.
func decodeKey(s string, arity int) Key {
	if arity == 0 {
		return Key{}
	}
	var (
		k   Key
		cur strings.Builder
		raw bool
	)
	flush := func() {
		if raw {
			k = append(k, Slot{})
		} else {
			k = append(k, Slot{Value: cur.String(), Set: true})
		}
		cur.Reset()
		raw = false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == keyEscape && i+1 < len(s) && s[i+1] == '?':
			raw = true
			i++
		case c == keyEscape && i+1 < len(s):
			cur.WriteByte(s[i+1])
			i++
		case c == keySep:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return k
}

// MarshalJSON writes the key as an array with null for unset slots.
func (k Key) MarshalJSON() ([]byte, error) {
	out := make([]*string, len(k))
	for i := range k {
		if k[i].Set {
			v := k[i].Value
			out[i] = &v
		}
	}
	return json.Marshal(out)
}

func (k *Key) UnmarshalJSON(b []byte) error {
	var in []*string
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*k = make(Key, len(in))
	for i, v := range in {
		if v != nil {
			(*k)[i] = Slot{Value: *v, Set: true}
		}
	}
	return nil
}

package quotation

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// object is a decoded JSON object keyed by exact field name.
type object map[string]json.RawMessage

// lookup returns the first of names present with a non-null value.
func (o object) lookup(names ...string) (json.RawMessage, bool) {
	for _, n := range names {
		if n == "" {
			continue
		}
		raw, ok := o[n]
		if !ok || isNull(raw) {
			continue
		}
		return raw, true
	}
	return nil, false
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// textOf reads a JSON scalar as text. Numbers keep their literal form and
// booleans become "true"/"false". Objects and arrays read as empty.
func textOf(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[':
		return ""
	default:
		return string(raw)
	}
}

// numberOf reads a JSON number or numeric string. Anything else is zero.
func numberOf(raw json.RawMessage) decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return decimal.Zero
	}
	var s string
	switch {
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Zero
		}
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		s = string(raw)
	default:
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// flagOf is true for JSON true and the strings "SI" and "Si".
func flagOf(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x == "SI" || x == "Si"
	}
	return false
}

// objectsOf reads a JSON array of objects. A non-array reads as empty and
// non-object elements read as empty objects.
func objectsOf(raw json.RawMessage) []object {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	out := make([]object, 0, len(elems))
	for _, e := range elems {
		var o object
		if err := json.Unmarshal(e, &o); err != nil || o == nil {
			o = object{}
		}
		out = append(out, o)
	}
	return out
}

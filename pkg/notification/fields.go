package notification

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

var jsonNull = []byte("null")

// Text is a string field that also accepts a JSON number or boolean, keeping
// its literal form ("id": 42 decodes as "42"). Objects and arrays decode as
// empty.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, jsonNull):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case b[0] == '{', b[0] == '[':
		*t = ""
	default:
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string {
	return string(t)
}

// OptionalInt is an integer that may be absent. Whole numbers and numeric
// strings are accepted; any other value leaves it unset so the caller's
// default applies.
type OptionalInt struct {
	Value int
	Set   bool
}

// IntValue returns a set OptionalInt.
func IntValue(v int) OptionalInt {
	return OptionalInt{Value: v, Set: true}
}

func (o *OptionalInt) UnmarshalJSON(b []byte) error {
	*o = OptionalInt{}
	raw := strings.TrimSpace(string(b))
	if raw == "" || raw == "null" {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil
	}
	*o = IntValue(int(f))
	return nil
}

// Or returns the value, or def when unset.
func (o OptionalInt) Or(def int) int {
	if !o.Set {
		return def
	}
	return o.Value
}

// OptionalBool is a boolean that may be absent. JSON booleans and the strings
// "true"/"false" are accepted; anything else leaves it unset.
type OptionalBool struct {
	Value bool
	Set   bool
}

// BoolValue returns a set OptionalBool.
func BoolValue(v bool) OptionalBool {
	return OptionalBool{Value: v, Set: true}
}

func (o *OptionalBool) UnmarshalJSON(b []byte) error {
	*o = OptionalBool{}
	raw := strings.TrimSpace(string(b))
	if raw != "" && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		*o = BoolValue(v)
	}
	return nil
}

// Or returns the value, or def when unset.
func (o OptionalBool) Or(def bool) bool {
	if !o.Set {
		return def
	}
	return o.Value
}

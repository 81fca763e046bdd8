package valueobject

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidBool is returned for values that are neither a JSON boolean nor a
// recognised boolean string.
var ErrInvalidBool = errors.New("valueobject: invalid boolean value")

// Bool accepts a JSON boolean or the strings browsers and form encoders send
// for checkboxes. Anything else fails to decode instead of silently becoming false.
type Bool bool

var boolWords = map[string]bool{
	"true": true, "t": true, "1": true, "yes": true, "y": true, "on": true,
	"false": false, "f": false, "0": false, "no": false, "n": false, "off": false,
}

// ParseBool applies the same rules as UnmarshalJSON to a raw string.
func ParseBool(s string) (Bool, error) {
	v, ok := boolWords[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return false, ErrInvalidBool
	}
	return Bool(v), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch string(data) {
	case "true":
		*b = true
		return nil
	case "false", "null":
		*b = false
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ErrInvalidBool
		}
		v, err := ParseBool(s)
		if err != nil {
			return err
		}
		*b = v
		return nil
	}

	if string(data) == "1" || string(data) == "0" {
		*b = data[0] == '1'
		return nil
	}

	return ErrInvalidBool
}

// Bool returns the plain value.
func (b Bool) Bool() bool {
	return bool(b)
}

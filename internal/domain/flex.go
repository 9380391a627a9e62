package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

var jsonNull = []byte("null")

// FlexString decodes a JSON string, number or boolean into its text form.
// null, objects and arrays decode to "".
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, jsonNull), data[0] == '{', data[0] == '[':
		*s = ""
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
	default:
		*s = FlexString(data)
	}
	return nil
}

func (s FlexString) String() string { return string(s) }

// FlexNumber holds a numeric upstream value that may arrive as a JSON number
// or a numeric string. The zero value is an absent number.
type FlexNumber struct {
	text   string
	quoted bool
}

// Number builds a FlexNumber from a Go float, mainly for tests and fixtures.
func Number(f float64) FlexNumber {
	return FlexNumber{text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// NumberString builds a FlexNumber as if the upstream had sent a JSON string.
func NumberString(s string) FlexNumber {
	return FlexNumber{text: s, quoted: true}
}

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, jsonNull), data[0] == '{', data[0] == '[':
		*n = FlexNumber{}
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*n = FlexNumber{text: strings.TrimSpace(v), quoted: true}
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*n = FlexNumber{}
	default:
		*n = FlexNumber{text: string(data)}
	}
	return nil
}

func (n FlexNumber) MarshalJSON() ([]byte, error) {
	f, ok := n.Float()
	if !ok {
		return jsonNull, nil
	}
	return json.Marshal(f)
}

// Present reports whether the upstream sent a non-empty value.
func (n FlexNumber) Present() bool { return n.text != "" }

// Float parses the value. Non-finite values are rejected.
func (n FlexNumber) Float() (float64, bool) {
	if n.text == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(n.text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FloatOr returns the parsed value or def.
func (n FlexNumber) FloatOr(def float64) float64 {
	if f, ok := n.Float(); ok {
		return f
	}
	return def
}

// Int parses an integer. A JSON number with a fractional part is truncated;
// a quoted string must be a plain integer.
func (n FlexNumber) Int() (int, bool) {
	if n.text == "" {
		return 0, false
	}
	if i, err := strconv.Atoi(n.text); err == nil {
		return i, true
	}
	if n.quoted {
		return 0, false
	}
	f, ok := n.Float()
	if !ok {
		return 0, false
	}
	return int(f), true
}

// IntOr returns the parsed integer or def.
func (n FlexNumber) IntOr(def int) int {
	if i, ok := n.Int(); ok {
		return i
	}
	return def
}

// FlexBool decodes a JSON boolean, the strings "true"/"false", or 0/1.
// Anything else decodes to false.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	v, err := strconv.ParseBool(strings.ToLower(s))
	*b = FlexBool(err == nil && v)
	return nil
}

// FlexStrings decodes either a JSON array of strings or a single string.
type FlexStrings []string

func (s *FlexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, jsonNull):
		*s = nil
	case data[0] == '[':
		var raw []FlexString
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			if v != "" {
				out = append(out, string(v))
			}
		}
		*s = out
	default:
		var v FlexString
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		if v == "" {
			*s = nil
			return nil
		}
		*s = FlexStrings{string(v)}
	}
	return nil
}

// Lenient decodes an optional nested block. A block of the wrong shape
// decodes to the zero value instead of rejecting the enclosing record.
type Lenient[T any] struct {
	V T
}

func (l *Lenient[T]) UnmarshalJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		*l = Lenient[T]{}
		return nil
	}
	l.V = v
	return nil
}

func (l Lenient[T]) MarshalJSON() ([]byte, error) { return json.Marshal(l.V) }

// LenientList decodes an optional list element by element. Anything other
// than an array decodes to an empty list, and elements of the wrong shape
// are dropped.
type LenientList[T any] []T

func (l *LenientList[T]) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		*l = nil
		return nil
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// UpstreamID keeps an identifier in the JSON type the upstream sent it in:
// numbers encode back as numbers and strings as strings. Any other value,
// and the empty string, is an absent id that encodes as null.
type UpstreamID struct {
	text   string
	quoted bool
}

// NumericID builds an UpstreamID as if the upstream had sent a JSON number.
func NumericID(text string) UpstreamID { return UpstreamID{text: text} }

// TextID builds an UpstreamID as if the upstream had sent a JSON string.
func TextID(text string) UpstreamID { return UpstreamID{text: text, quoted: true} }

func (id *UpstreamID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		*id = UpstreamID{}
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*id = UpstreamID{text: v, quoted: true}
	case data[0] == '-', data[0] >= '0' && data[0] <= '9':
		*id = UpstreamID{text: string(data)}
	default:
		*id = UpstreamID{}
	}
	return nil
}

func (id UpstreamID) MarshalJSON() ([]byte, error) {
	switch {
	case id.text == "":
		return jsonNull, nil
	case id.quoted:
		return json.Marshal(id.text)
	default:
		return []byte(id.text), nil
	}
}

// String returns the id's text form, used for document keys.
func (id UpstreamID) String() string { return id.text }

func (id UpstreamID) IsZero() bool { return id.text == "" }

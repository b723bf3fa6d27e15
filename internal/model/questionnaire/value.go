package questionnaire

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is a coerced answer: a number for numeric questions, a lowercased
// string for choice questions.
type Value struct {
	num     float64
	str     string
	numeric bool
}

// NumberValue wraps a numeric answer.
func NumberValue(n float64) Value {
	return Value{num: n, numeric: true}
}

// StringValue wraps a choice answer.
func StringValue(s string) Value {
	return Value{str: s}
}

// IsNumber reports whether the value came from a numeric question.
func (v Value) IsNumber() bool {
	return v.numeric
}

// Float returns the numeric answer and whether the value is numeric.
func (v Value) Float() (float64, bool) {
	return v.num, v.numeric
}

// Text returns the choice answer and whether the value is a string.
func (v Value) Text() (string, bool) {
	return v.str, !v.numeric
}

func (v Value) String() string {
	if v.numeric {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

// MarshalJSON encodes the value as a bare JSON number or string.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.numeric {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}

// UnmarshalJSON accepts a JSON number or string.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch typed := raw.(type) {
	case float64:
		*v = NumberValue(typed)
	case string:
		*v = StringValue(typed)
	default:
		return fmt.Errorf("unsupported answer value %s", string(data))
	}
	return nil
}

// Responses maps question keys to accepted answers.
type Responses map[string]Value

// Clone returns an independent copy.
func (r Responses) Clone() Responses {
	out := make(Responses, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

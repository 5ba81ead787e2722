package narrative

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueType defines the storage type for a dataset cell
type ValueType string

const (
	ValueTypeNumber  ValueType = "number"
	ValueTypeText    ValueType = "text"
	ValueTypeMissing ValueType = "missing"
)

// Value represents a typed dataset cell: a number, a text label, or missing
type Value struct {
	Type    ValueType `json:"type"`
	Number  *float64  `json:"number,omitempty"`
	TextVal *string   `json:"text,omitempty"`
}

// NewNumber creates a numeric value
func NewNumber(n float64) Value {
	return Value{Type: ValueTypeNumber, Number: &n}
}

// NewText creates a text value. Empty text is treated as missing.
func NewText(s string) Value {
	if s == "" {
		return NewMissing()
	}
	return Value{Type: ValueTypeText, TextVal: &s}
}

// NewMissing creates a missing value
func NewMissing() Value {
	return Value{Type: ValueTypeMissing}
}

// IsMissing reports whether the cell holds no usable value
func (v Value) IsMissing() bool {
	return v.Type == ValueTypeMissing || v.Type == ""
}

// Float returns the numeric content. Text cells that parse as numbers are accepted.
func (v Value) Float() (float64, bool) {
	switch v.Type {
	case ValueTypeNumber:
		if v.Number == nil {
			return 0, false
		}
		return *v.Number, true
	case ValueTypeText:
		if v.TextVal == nil {
			return 0, false
		}
		if f, err := strconv.ParseFloat(*v.TextVal, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Text returns the label form of the value; numbers are formatted without trailing zeros
func (v Value) Text() (string, bool) {
	switch v.Type {
	case ValueTypeText:
		if v.TextVal == nil {
			return "", false
		}
		return *v.TextVal, true
	case ValueTypeNumber:
		if v.Number == nil {
			return "", false
		}
		return strconv.FormatFloat(*v.Number, 'f', -1, 64), true
	}
	return "", false
}

// String returns a human-readable form for logs
func (v Value) String() string {
	if s, ok := v.Text(); ok {
		return s
	}
	return "<missing>"
}

// MarshalJSON writes the bare cell content (number, string or null)
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Type {
	case ValueTypeNumber:
		if v.Number != nil {
			return json.Marshal(*v.Number)
		}
	case ValueTypeText:
		if v.TextVal != nil {
			return json.Marshal(*v.TextVal)
		}
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a bare number, string or null
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = NewMissing()
	case float64:
		*v = NewNumber(t)
	case string:
		*v = NewText(t)
	default:
		return fmt.Errorf("unsupported cell value %v", raw)
	}
	return nil
}

package excel

import (
	"math"
	"strconv"
	"strings"

	"gonarrative/domain/narrative"
)

// CoercionConfig controls how raw cells become typed values
type CoercionConfig struct {
	NumericThreshold float64  `json:"numeric_threshold"` // share of non-blank cells that must parse for a numeric column
	MissingTokens    []string `json:"missing_tokens"`    // cells treated as missing, case-insensitive
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold: 0.8,
		MissingTokens:    []string{"", "na", "n/a", "null", "-", "..", "x"},
	}
}

// TypeCoercer turns string cells into narrative values, one column at a time
type TypeCoercer struct {
	config  CoercionConfig
	missing map[string]bool
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	missing := make(map[string]bool, len(config.MissingTokens))
	for _, tok := range config.MissingTokens {
		missing[strings.ToLower(strings.TrimSpace(tok))] = true
	}
	return &TypeCoercer{config: config, missing: missing}
}

// IsMissing reports whether a raw cell is a missing-value marker
func (c *TypeCoercer) IsMissing(raw string) bool {
	return c.missing[strings.ToLower(strings.TrimSpace(raw))]
}

// IsNumericColumn decides whether enough non-missing cells parse as numbers
func (c *TypeCoercer) IsNumericColumn(cells []string) bool {
	valid, numeric := 0, 0
	for _, cell := range cells {
		if c.IsMissing(cell) {
			continue
		}
		valid++
		if _, ok := ParseNumber(cell); ok {
			numeric++
		}
	}
	if valid == 0 {
		return false
	}
	return float64(numeric)/float64(valid) >= c.config.NumericThreshold
}

// Coerce converts one cell given its column's type. Cells of a numeric
// column that do not parse become missing rather than text.
func (c *TypeCoercer) Coerce(raw string, numeric bool) narrative.Value {
	if c.IsMissing(raw) {
		return narrative.NewMissing()
	}
	if numeric {
		if v, ok := ParseNumber(raw); ok {
			return narrative.NewNumber(v)
		}
		return narrative.NewMissing()
	}
	return narrative.NewText(strings.TrimSpace(raw))
}

// ParseNumber parses a published-statistics number: thousands separators,
// currency symbols, trailing percent signs and (123) negatives are accepted.
// A percent cell keeps its printed magnitude, so "12.5%" is 12.5.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
		negative = true
	}

	for _, symbol := range []string{"£", "$", "€", "GBP", "USD", "EUR"} {
		s = strings.ReplaceAll(s, symbol, "")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// Package dataset holds the in-memory table model: tagged cell values,
// typed columns and the readers that build tables from CSV and XLSX input.
package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the content of a Value.
type Kind int

const (
	// KindMissing marks an absent cell.
	KindMissing Kind = iota
	// KindNumber marks a finite floating point cell.
	KindNumber
	// KindText marks any other cell.
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Value is a single cell: Number, Text or Missing. Every value remembers the
// trimmed text it was produced from, so a number-looking cell of a
// categorical column keeps its original spelling.
type Value struct {
	kind Kind
	num  float64
	raw  string
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f, raw: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Text returns a text Value.
func Text(s string) Value {
	return Value{kind: KindText, raw: s}
}

// Missing returns the missing Value.
func Missing() Value {
	return Value{kind: KindMissing}
}

// Kind returns the tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is missing.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric content of v. ok is false for Text and Missing.
func (v Value) Float() (f float64, ok bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Text returns the raw text of v. Missing values return "".
func (v Value) Text() string { return v.raw }

// AsText converts a Number into a Text with the same spelling.
func (v Value) AsText() Value {
	if v.kind == KindNumber {
		return Value{kind: KindText, raw: v.raw}
	}
	return v
}

func (v Value) String() string {
	if v.kind == KindMissing {
		return "<missing>"
	}
	return v.raw
}

// DefaultMissingTokens are the cell spellings read as missing, in addition
// to the empty string.
var DefaultMissingTokens = []string{
	"#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// Coercer turns raw cell text into Values.
type Coercer struct {
	missing map[string]struct{}
}

// NewCoercer creates a Coercer that treats the empty string and every token
// in missingTokens as missing. A nil slice selects DefaultMissingTokens.
func NewCoercer(missingTokens []string) *Coercer {
	if missingTokens == nil {
		missingTokens = DefaultMissingTokens
	}
	c := &Coercer{missing: make(map[string]struct{}, len(missingTokens))}
	for _, tok := range missingTokens {
		c.missing[tok] = struct{}{}
	}
	return c
}

var defaultCoercer = NewCoercer(nil)

// Coerce converts raw using DefaultMissingTokens.
func Coerce(raw string) Value {
	return defaultCoercer.Coerce(raw)
}

// Coerce trims raw and returns Missing for empty or missing tokens, Number
// when the text parses as a finite float, and Text otherwise.
func (c *Coercer) Coerce(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Missing()
	}
	if _, ok := c.missing[s]; ok {
		return Missing()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Value{kind: KindNumber, num: f, raw: s}
	}
	return Text(s)
}

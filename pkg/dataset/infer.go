package dataset

import (
	"strconv"
	"strings"
	"time"
)

// Thresholds for raw column type inference. A column is promoted when at
// least this share of its non-empty cells parses as the candidate type.
const (
	numericRatio  = 0.8
	datetimeRatio = 0.7
)

// Categorical promotion: low distinct ratio with a small absolute count.
const (
	categoryUniqueRatio = 0.1
	categoryMaxUnique   = 20
)

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
}

// ParseNumber parses a numeric cell, tolerating currency symbols,
// thousand separators and percent signs.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer(",", "", "$", "", "%", "", "€", "", "£", "").Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseDatetime tries the supported layouts in order.
func ParseDatetime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsMissingToken reports whether a raw cell denotes a missing value.
func IsMissingToken(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "na", "n/a", "nan", "null", "none", "-":
		return true
	}
	return false
}

// InferColumn builds a typed column from raw string cells.
//
// Non-empty cells are tested against numeric and datetime parsers; if
// neither dominates, the column stays textual and is promoted to category
// when its distinct ratio is low. Cells that do not parse as the chosen
// type become nulls.
func InferColumn(name string, raw []string) *Column {
	nonEmpty := 0
	numeric := 0
	dates := 0
	distinct := make(map[string]struct{})
	for _, s := range raw {
		if IsMissingToken(s) {
			continue
		}
		nonEmpty++
		distinct[strings.TrimSpace(s)] = struct{}{}
		if _, ok := ParseNumber(s); ok {
			numeric++
		}
		if _, ok := ParseDatetime(s); ok {
			dates++
		}
	}

	typ := TypeString
	switch {
	case nonEmpty == 0:
		typ = TypeString
	case float64(numeric)/float64(nonEmpty) >= numericRatio:
		typ = TypeNumeric
	case float64(dates)/float64(nonEmpty) >= datetimeRatio:
		typ = TypeDatetime
	default:
		ratio := float64(len(distinct)) / float64(nonEmpty)
		if ratio < categoryUniqueRatio && len(distinct) < categoryMaxUnique {
			typ = TypeCategory
		}
	}

	col := &Column{Name: name, Type: typ, Values: make([]Value, len(raw))}
	for i, s := range raw {
		col.Values[i] = CoerceRaw(s, typ)
	}
	return col
}

// CoerceRaw converts one raw cell to the target type, yielding null on
// missing tokens or parse failure.
func CoerceRaw(raw string, typ Type) Value {
	if IsMissingToken(raw) {
		return NullValue()
	}
	switch typ {
	case TypeNumeric:
		if f, ok := ParseNumber(raw); ok {
			return NumberValue(f)
		}
		return NullValue()
	case TypeDatetime:
		if t, ok := ParseDatetime(raw); ok {
			return TimeValue(t)
		}
		return NullValue()
	default:
		return StringValue(strings.TrimSpace(raw))
	}
}

// Coerce converts an already-typed value to the target type, yielding
// null when the conversion is not possible. Used by explicit type
// changes in the transformation pipeline.
func Coerce(v Value, from, to Type) Value {
	if from == to {
		return v
	}
	if v.Null {
		return NullValue()
	}
	switch to {
	case TypeNumeric:
		switch from {
		case TypeDatetime:
			return NumberValue(float64(v.Time.Unix()))
		default:
			return CoerceRaw(v.Str, TypeNumeric)
		}
	case TypeDatetime:
		if from == TypeNumeric {
			return TimeValue(time.Unix(int64(v.Num), 0).UTC())
		}
		return CoerceRaw(v.Str, TypeDatetime)
	case TypeString, TypeCategory:
		return StringValue(v.Render(from))
	}
	return NullValue()
}

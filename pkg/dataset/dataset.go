// Package dataset provides the in-memory tabular representation shared by
// the profiler, transformation pipeline and training engine, plus the
// filesystem-backed dataset store.
//
// Datasets are immutable by convention: transformations clone first and
// return a new Dataset, they never mutate a loaded one in place.
package dataset

import (
	"fmt"
	"math"
	"time"
)

// Type is the inferred or declared type of a column.
type Type string

const (
	TypeString   Type = "string"
	TypeNumeric  Type = "numeric"
	TypeDatetime Type = "datetime"
	TypeCategory Type = "category"
)

// ParseType validates a user-supplied type name.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeString, TypeNumeric, TypeDatetime, TypeCategory:
		return Type(s), nil
	}
	return "", fmt.Errorf("unknown column type %q", s)
}

// Value is a single cell. Exactly one representation is meaningful
// depending on the owning column's Type; Null marks a missing cell.
type Value struct {
	Null bool
	Str  string
	Num  float64
	Time time.Time
}

// StringValue builds a non-null string cell.
func StringValue(s string) Value { return Value{Str: s} }

// NumberValue builds a non-null numeric cell.
func NumberValue(f float64) Value { return Value{Num: f} }

// TimeValue builds a non-null datetime cell.
func TimeValue(t time.Time) Value { return Value{Time: t} }

// NullValue is the missing cell.
func NullValue() Value { return Value{Null: true} }

// Render formats the value for CSV output and report samples.
func (v Value) Render(t Type) string {
	if v.Null {
		return ""
	}
	switch t {
	case TypeNumeric:
		if v.Num == math.Trunc(v.Num) && math.Abs(v.Num) < 1e15 {
			return fmt.Sprintf("%d", int64(v.Num))
		}
		return fmt.Sprintf("%g", v.Num)
	case TypeDatetime:
		return v.Time.Format(time.RFC3339)
	default:
		return v.Str
	}
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name   string
	Type   Type
	Values []Value
}

// Clone deep-copies the column.
func (c *Column) Clone() *Column {
	vals := make([]Value, len(c.Values))
	copy(vals, c.Values)
	return &Column{Name: c.Name, Type: c.Type, Values: vals}
}

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v.Null {
			n++
		}
	}
	return n
}

// IsNumeric reports whether the column holds numeric cells.
func (c *Column) IsNumeric() bool { return c.Type == TypeNumeric }

// Float64s returns the column as a float slice with NaN for nulls.
// Only meaningful for numeric columns.
func (c *Column) Float64s() []float64 {
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		if v.Null {
			out[i] = math.NaN()
		} else {
			out[i] = v.Num
		}
	}
	return out
}

// Dataset is a column-major table identified by name.
type Dataset struct {
	Name      string
	Separator string
	Columns   []*Column
}

// New creates an empty dataset.
func New(name string) *Dataset {
	return &Dataset{Name: name, Separator: ","}
}

// Rows returns the row count. All columns hold the same number of cells.
func (d *Dataset) Rows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Values)
}

// ColumnNames returns column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, or nil.
func (d *Dataset) Column(name string) *Column {
	for _, c := range d.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool { return d.Column(name) != nil }

// Clone deep-copies the dataset.
func (d *Dataset) Clone() *Dataset {
	cols := make([]*Column, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = c.Clone()
	}
	return &Dataset{Name: d.Name, Separator: d.Separator, Columns: cols}
}

// AddColumn appends a column. The caller must supply exactly Rows() cells
// (or any length when the dataset is still empty).
func (d *Dataset) AddColumn(c *Column) error {
	if len(d.Columns) > 0 && len(c.Values) != d.Rows() {
		return fmt.Errorf("column %q has %d rows, dataset has %d", c.Name, len(c.Values), d.Rows())
	}
	if d.HasColumn(c.Name) {
		return fmt.Errorf("column %q already exists", c.Name)
	}
	d.Columns = append(d.Columns, c)
	return nil
}

// ReplaceColumn swaps the named column for its replacement in place,
// preserving column order. Used by one-hot encoding and type conversion.
func (d *Dataset) ReplaceColumn(name string, replacements ...*Column) error {
	idx := -1
	for i, c := range d.Columns {
		if c.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("column %q not found", name)
	}
	for _, r := range replacements {
		if len(r.Values) != d.Rows() {
			return fmt.Errorf("replacement column %q has %d rows, dataset has %d", r.Name, len(r.Values), d.Rows())
		}
	}
	rest := append([]*Column{}, d.Columns[idx+1:]...)
	d.Columns = append(d.Columns[:idx], replacements...)
	d.Columns = append(d.Columns, rest...)
	return nil
}

// DropColumn removes the named column.
func (d *Dataset) DropColumn(name string) error {
	for i, c := range d.Columns {
		if c.Name == name {
			d.Columns = append(d.Columns[:i], d.Columns[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("column %q not found", name)
}

// FilterRows keeps only rows where keep[i] is true, across all columns.
func (d *Dataset) FilterRows(keep []bool) {
	for _, c := range d.Columns {
		filtered := c.Values[:0:0]
		for i, v := range c.Values {
			if keep[i] {
				filtered = append(filtered, v)
			}
		}
		c.Values = filtered
	}
}

// AppendRow appends one cell per column, in column order.
func (d *Dataset) AppendRow(cells []Value) error {
	if len(cells) != len(d.Columns) {
		return fmt.Errorf("row has %d cells, dataset has %d columns", len(cells), len(d.Columns))
	}
	for i, c := range d.Columns {
		c.Values = append(c.Values, cells[i])
	}
	return nil
}

// Row materializes the i-th row in column order.
func (d *Dataset) Row(i int) []Value {
	row := make([]Value, len(d.Columns))
	for j, c := range d.Columns {
		row[j] = c.Values[i]
	}
	return row
}

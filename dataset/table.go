package dataset

import (
	"fmt"
	"sort"

	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

// ColumnKind is the inferred role of a column.
type ColumnKind int

const (
	// Numeric columns hold only Number and Missing values.
	Numeric ColumnKind = iota
	// Categorical columns hold Text and Missing values.
	Categorical
)

func (k ColumnKind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

// Column is a named, typed sequence of values.
// Columns are never modified after construction.
type Column struct {
	Name   string
	Kind   ColumnKind
	Values []Value
}

// InferColumn builds a column whose kind is numeric iff no value is Text.
// An all-missing column is numeric. Number values of a categorical column
// are converted to Text with their original spelling.
func InferColumn(name string, values []Value) *Column {
	kind := Numeric
	for _, v := range values {
		if v.Kind() == KindText {
			kind = Categorical
			break
		}
	}
	if kind == Categorical {
		converted := make([]Value, len(values))
		for i, v := range values {
			converted[i] = v.AsText()
		}
		values = converted
	}
	return &Column{Name: name, Kind: kind, Values: values}
}

// NumericColumn builds a numeric column from floats.
func NumericColumn(name string, values []float64) *Column {
	vs := make([]Value, len(values))
	for i, f := range values {
		vs[i] = Number(f)
	}
	return &Column{Name: name, Kind: Numeric, Values: vs}
}

// Len returns the number of values.
func (c *Column) Len() int { return len(c.Values) }

// MissingCount returns the number of missing values.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Floats returns the numeric values of c with NaN for missing cells.
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		if f, ok := v.Float(); ok {
			out[i] = f
		} else {
			out[i] = nan
		}
	}
	return out
}

// Levels returns the distinct non-missing texts in first-appearance order.
func (c *Column) Levels() []string {
	seen := make(map[string]struct{})
	var levels []string
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		s := v.Text()
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			levels = append(levels, s)
		}
	}
	return levels
}

// SortedLevels returns the distinct non-missing texts in lexical order.
func (c *Column) SortedLevels() []string {
	levels := c.Levels()
	sort.Strings(levels)
	return levels
}

// Table is a column-major table. Tables are immutable: every transformation
// returns a new Table, possibly sharing unchanged columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable assembles columns into a table. All columns must have the same
// length and distinct names.
func NewTable(columns ...*Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, errors.NewDimensionError(fmt.Sprintf("NewTable(%s)", c.Name), t.rows, c.Len(), 0)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, errors.NewSchemaError("NewTable", c.Name, "duplicate column name")
		}
		t.index[c.Name] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.columns) }

// Columns returns the columns in order. The slice must not be modified.
func (t *Table) Columns() []*Column { return t.columns }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Values[i]
	}
	return row
}

// MissingCount returns the number of missing cells in the table.
func (t *Table) MissingCount() int {
	n := 0
	for _, c := range t.columns {
		n += c.MissingCount()
	}
	return n
}

// ReplaceColumns returns a copy of t where each column in replacements
// replaces the column of the same name. Unknown names are an error.
func (t *Table) ReplaceColumns(replacements ...*Column) (*Table, error) {
	cols := make([]*Column, len(t.columns))
	copy(cols, t.columns)
	for _, r := range replacements {
		i, ok := t.index[r.Name]
		if !ok {
			return nil, errors.NewSchemaError("ReplaceColumns", r.Name, "column not found")
		}
		cols[i] = r
	}
	return NewTable(cols...)
}

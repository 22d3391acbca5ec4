// Package preprocessing cleans and encodes tables before analysis and
// model fitting: column classification, missing value imputation,
// categorical encoding and feature scaling.
package preprocessing

import "github.com/YuminosukeSato/tabfit/dataset"

// ColumnSpec partitions column names into numeric and categorical lists.
// Both lists keep the table's column order.
type ColumnSpec struct {
	Numeric     []string
	Categorical []string
}

// Classify assigns every column of t to exactly one list of the returned
// spec according to its inferred kind.
func Classify(t *dataset.Table) ColumnSpec {
	var spec ColumnSpec
	if t == nil {
		return spec
	}
	for _, c := range t.Columns() {
		if c.Kind == dataset.Numeric {
			spec.Numeric = append(spec.Numeric, c.Name)
		} else {
			spec.Categorical = append(spec.Categorical, c.Name)
		}
	}
	return spec
}

// Kind returns the kind of name and whether the spec contains it.
func (s ColumnSpec) Kind(name string) (dataset.ColumnKind, bool) {
	for _, n := range s.Numeric {
		if n == name {
			return dataset.Numeric, true
		}
	}
	for _, n := range s.Categorical {
		if n == name {
			return dataset.Categorical, true
		}
	}
	return 0, false
}

// IsNumeric reports whether name is a numeric column.
func (s ColumnSpec) IsNumeric(name string) bool {
	k, ok := s.Kind(name)
	return ok && k == dataset.Numeric
}

// IsCategorical reports whether name is a categorical column.
func (s ColumnSpec) IsCategorical(name string) bool {
	k, ok := s.Kind(name)
	return ok && k == dataset.Categorical
}

// Subset classifies names, keeping their given order. Names unknown to the
// spec are dropped.
func (s ColumnSpec) Subset(names []string) ColumnSpec {
	var out ColumnSpec
	for _, name := range names {
		k, ok := s.Kind(name)
		switch {
		case !ok:
		case k == dataset.Numeric:
			out.Numeric = append(out.Numeric, name)
		default:
			out.Categorical = append(out.Categorical, name)
		}
	}
	return out
}

// Len returns the total number of columns in the spec.
func (s ColumnSpec) Len() int { return len(s.Numeric) + len(s.Categorical) }

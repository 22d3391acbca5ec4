package preprocessing

import (
	"strings"
	"testing"

	"github.com/YuminosukeSato/tabfit/dataset"
)

func mustReadCSV(t *testing.T, text string) *dataset.Table {
	t.Helper()
	tbl, err := dataset.ReadCSV(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return tbl
}

func column(t *testing.T, tbl *dataset.Table, name string) *dataset.Column {
	t.Helper()
	c, ok := tbl.Column(name)
	if !ok {
		t.Fatalf("column %q not found in %v", name, tbl.Names())
	}
	return c
}

package dataset

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

// ReadCSV parses delimited text with a header row into a Table.
// Empty lines are skipped. Cell text is trimmed before typing.
func ReadCSV(r io.Reader, opts ...ReadOption) (*Table, error) {
	cfg := newReadConfig(opts)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comma = cfg.comma

	header, err := cr.Read()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.NewParseError("csv", 1, "no header row", nil)
		}
		return nil, csvParseError(err)
	}

	var records [][]string
	first := 0
	for {
		rec, err := cr.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvParseError(err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) > len(header) {
			return nil, errors.NewParseError("csv", line,
				fmt.Sprintf("expected %d fields, saw %d", len(header), len(rec)), nil)
		}
		if first == 0 {
			first = line
		}
		records = append(records, rec)
	}
	return FromRecords("csv", header, records, first, NewCoercer(cfg.missingTokens))
}

func csvParseError(err error) error {
	var pe *csv.ParseError
	if stderrors.As(err, &pe) {
		return errors.NewParseError("csv", pe.Line, "", pe.Err)
	}
	return errors.NewParseError("csv", 0, "read failed", err)
}

package dataset

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

// ReadXLSX reads one worksheet of an Excel workbook into a Table. The first
// row is the header.
func ReadXLSX(r io.Reader, opts ...ReadOption) (*Table, error) {
	cfg := newReadConfig(opts)

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.NewParseError("xlsx", 0, "invalid workbook", err)
	}
	defer f.Close()

	sheet := cfg.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.NewParseError("xlsx", 0, "workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.NewParseError("xlsx", 0, "sheet "+sheet+" not readable", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewParseError("xlsx", 1, "no header row", nil)
	}
	header := rows[0]
	records := make([][]string, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) > len(header) {
			return nil, errors.NewParseError("xlsx", i+2,
				fmt.Sprintf("expected %d fields, saw %d", len(header), len(row)), nil)
		}
		// 空行はCSVと同じく読み飛ばす
		if len(row) == 0 {
			continue
		}
		records = append(records, row)
	}
	return FromRecords("xlsx", header, records, 2, NewCoercer(cfg.missingTokens))
}

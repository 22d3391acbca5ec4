package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

// ReadOption configures ReadCSV and ReadXLSX.
type ReadOption func(*readConfig)

type readConfig struct {
	missingTokens []string
	sheet         string
	comma         rune
}

func newReadConfig(opts []ReadOption) *readConfig {
	cfg := &readConfig{comma: ','}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithMissingTokens replaces DefaultMissingTokens. The empty string is
// always missing.
func WithMissingTokens(tokens []string) ReadOption {
	return func(c *readConfig) {
		c.missingTokens = append([]string{}, tokens...)
	}
}

// WithSheet selects the worksheet read by ReadXLSX. The first sheet is
// used by default.
func WithSheet(name string) ReadOption {
	return func(c *readConfig) {
		c.sheet = name
	}
}

// WithComma sets the CSV field delimiter.
func WithComma(r rune) ReadOption {
	return func(c *readConfig) {
		c.comma = r
	}
}

// FromRecords builds a table from a header and string records.
// Short records are padded with missing values; long records are a
// ParseError. Empty header names become "Unnamed: <i>" and repeated names
// get a ".<n>" suffix. firstLine is the 1-based line of records[0] and is
// used only for error reporting.
func FromRecords(source string, header []string, records [][]string, firstLine int, coercer *Coercer) (*Table, error) {
	if len(header) == 0 {
		return nil, errors.NewParseError(source, 1, "no header row", nil)
	}
	if coercer == nil {
		coercer = defaultCoercer
	}
	names := normalizeHeader(header)

	values := make([][]Value, len(names))
	for j := range values {
		values[j] = make([]Value, len(records))
	}
	for i, rec := range records {
		if len(rec) > len(names) {
			return nil, errors.NewParseError(source, firstLine+i,
				fmt.Sprintf("expected %d fields, saw %d", len(names), len(rec)), nil)
		}
		for j := range names {
			if j < len(rec) {
				values[j][i] = coercer.Coerce(rec[j])
			} else {
				values[j][i] = Missing()
			}
		}
	}

	cols := make([]*Column, len(names))
	for j, name := range names {
		cols[j] = InferColumn(name, values[j])
	}
	return NewTable(cols...)
}

func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	counts := make(map[string]int)
	for i, h := range header {
		name := h
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if used[name] {
			base := name
			for {
				counts[base]++
				candidate := fmt.Sprintf("%s.%d", base, counts[base])
				if !used[candidate] {
					name = candidate
					break
				}
			}
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// Format identifies an input encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a file extension or format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "", "csv", "txt", "text/csv":
		return FormatCSV, nil
	case "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX, nil
	default:
		return "", errors.NewParseError("request", 0, fmt.Sprintf("unsupported format %q", name), nil)
	}
}

// Read dispatches to ReadCSV or ReadXLSX.
func Read(r io.Reader, format Format, opts ...ReadOption) (*Table, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r, opts...)
	case FormatXLSX:
		return ReadXLSX(r, opts...)
	default:
		return nil, errors.NewParseError("request", 0, fmt.Sprintf("unsupported format %q", string(format)), nil)
	}
}

package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf picks the table format from an upload's file name.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", &errs.ParseError{Reason: fmt.Sprintf("unsupported file type %q", filepath.Ext(name))}
	}
}

// FromFile parses the upload at path and removes it, whether or not parsing
// succeeds.
func FromFile(path string, format Format) (t Table, err error) {
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("remove upload %s: %w", path, rmErr)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	return Read(f, format)
}

func Read(r io.Reader, format Format) (Table, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r)
	default:
		return nil, &errs.ParseError{Reason: fmt.Sprintf("unsupported format %q", format)}
	}
}

// ReadCSV reads a comma separated table. Rows may have differing widths.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var t Table
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &errs.ParseError{Line: pe.Line, Err: pe.Err}
			}
			return nil, &errs.ParseError{Err: err}
		}
		t = append(t, rec)
	}
	if len(t) == 0 {
		return nil, &errs.ParseError{Reason: "empty file"}
	}
	return t, nil
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(r io.Reader) (Table, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &errs.ParseError{Reason: "unreadable workbook", Err: err}
	}
	defer func() { _ = xl.Close() }()

	sheets := xl.GetSheetList()
	if len(sheets) == 0 {
		return nil, &errs.ParseError{Reason: "workbook has no sheets"}
	}
	rows, err := xl.GetRows(sheets[0])
	if err != nil {
		return nil, &errs.ParseError{Reason: "unreadable sheet", Err: err}
	}
	if len(rows) == 0 {
		return nil, &errs.ParseError{Reason: "empty sheet"}
	}
	return Table(rows), nil
}

// Package spreadsheet reads and writes .xlsx workbooks.
package spreadsheet

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/smkremaja/pkl/core/recap"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	Extension   = ".xlsx"

	maxSheetNameLen = 31
	defaultSheet    = "Sheet1"
)

var (
	ErrNoSheet    = errors.New("workbook has no worksheet")
	ErrEmptySheet = errors.New("worksheet is empty")
)

func sheetName(name string, idx int) string {
	if name == "" {
		name = "Sheet" + strconv.Itoa(idx+1)
	}
	if r := []rune(name); len(r) > maxSheetNameLen {
		name = string(r[:maxSheetNameLen])
	}
	return name
}

// Write writes one worksheet per sheet, in order. A sheet without rows still gets its header row.
func Write(w io.Writer, sheets ...recap.Sheet) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cErr := f.Close(); err == nil && cErr != nil {
			err = errors.Wrap(cErr, "closing workbook")
		}
	}()

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	for i, sh := range sheets {
		name := sheetName(sh.Name, i)
		if i == 0 {
			if err = f.SetSheetName(defaultSheet, name); err != nil {
				return errors.Wrapf(err, "naming sheet %q", name)
			}
		} else if _, err = f.NewSheet(name); err != nil {
			return errors.Wrapf(err, "creating sheet %q", name)
		}

		if len(sh.Headers) > 0 {
			if err = f.SetSheetRow(name, "A1", &sh.Headers); err != nil {
				return errors.Wrap(err, "writing headers")
			}
			if err = f.SetRowStyle(name, 1, 1, boldStyle); err != nil {
				return errors.Wrap(err, "styling headers")
			}
		}
		for r, row := range sh.Rows {
			row := row
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err = f.SetSheetRow(name, cell, &row); err != nil {
				return errors.Wrapf(err, "writing row %d", r+2)
			}
		}
	}
	f.SetActiveSheet(0)

	if _, err = f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

// ReadFirstSheet returns the cell values of the workbook's first worksheet, row by row.
func ReadFirstSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %q", name)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return rows, nil
}

package ingestion

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
	"github.com/tealeg/xlsx/v2"
)

// zipMagic prefixes every OOXML (.xlsx) payload; legacy BIFF (.xls) files
// start with the OLE2 signature instead.
var zipMagic = []byte("PK\x03\x04")

// loadSheet returns the named worksheet as a grid of cell strings. Column
// positions are preserved: a blank cell yields "" rather than being skipped.
func loadSheet(data []byte, name string) (grid [][]string, err error) {
	// Both readers are known to panic on truncated input.
	defer func() {
		if r := recover(); r != nil {
			grid = nil
			err = fmt.Errorf("read workbook: %v", r)
		}
	}()

	if bytes.HasPrefix(data, zipMagic) {
		return loadXLSXSheet(data, name)
	}
	return loadXLSSheet(data, name)
}

func loadXLSXSheet(data []byte, name string) ([][]string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	sheet, ok := f.Sheet[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}

	grid := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			if cell != nil {
				cells[j] = cell.String()
			}
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// maxXLSColumns is the BIFF8 column limit (IV).
const maxXLSColumns = 256

func loadXLSSheet(data []byte, name string) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb == nil {
		return nil, fmt.Errorf("open xls: no workbook stream")
	}
	plainNumberFormats(wb)

	var sheet *xls.WorkSheet
	for i := 0; i < wb.NumSheets(); i++ {
		if s := wb.GetSheet(i); s != nil && s.Name == name {
			sheet = s
			break
		}
	}
	if sheet == nil {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}

	grid := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, rowWidth(row))
		for j := range cells {
			cells[j] = row.Col(j)
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// plainNumberFormats switches every cell style to the General format.
// Row.Col renders integer cells under a custom number format (index >= 164)
// as RFC3339 dates, so a contract count of 12 would read "1900-01-11T00:00:00Z".
// The extractor only needs raw values.
func plainNumberFormats(wb *xls.WorkBook) {
	for _, xf := range wb.Xfs {
		switch x := xf.(type) {
		case *xls.Xf8:
			x.Format = 0
		case *xls.Xf5:
			x.Format = 0
		}
	}
}

// sheetRow returns row i or nil when the sheet stores nothing for it;
// WorkSheet.Row dereferences missing rows.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// rowWidth is the column count from the ROW record. Writers that omit ROW
// records leave it at zero; the cells are then scanned up to the format limit.
func rowWidth(row *xls.Row) int {
	if n := row.LastCol(); n > 0 {
		return n
	}
	width := 0
	for j := 0; j < maxXLSColumns; j++ {
		if row.Col(j) != "" {
			width = j + 1
		}
	}
	return width
}

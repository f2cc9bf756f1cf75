// Package spreadsheet reads the first worksheet of a bank statement export.
package spreadsheet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format, only .xls and .xlsx are accepted")
	ErrEmptyWorkbook     = errors.New("spreadsheet has no header row")
)

// Cell is the trimmed text of one cell. Numeric is set when the workbook
// stores the cell as a number (dates included), which is only known for .xlsx.
type Cell struct {
	Text    string
	Numeric bool
}

// Row maps a header name to a cell of one data row.
type Row map[string]Cell

// Sheet is the header plus data rows of the first worksheet.
type Sheet struct {
	Headers []string
	Rows    []Row
}

// SupportedExtension reports whether the file name has an accepted extension.
func SupportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xls", ".xlsx":
		return true
	}
	return false
}

// Read loads the first worksheet of the file at path.
// The first non-blank row is the header; fully blank rows are dropped.
// Blank header cells are named "Unnamed: <index>".
func Read(path string) (*Sheet, error) {
	var (
		grid [][]Cell
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		grid, err = readXLSX(path)
	case ".xls":
		grid, err = readXLS(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
	if err != nil {
		return nil, err
	}
	return fromGrid(grid)
}

func readXLSX(path string) ([][]Cell, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	sheetName := sheets[0]

	// Raw values keep date cells as Excel serial numbers and numbers unformatted.
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	grid := make([][]Cell, len(rows))
	for r, values := range rows {
		cells := make([]Cell, len(values))
		for c, v := range values {
			cells[c].Text = strings.TrimSpace(v)
			if cells[c].Text == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			cellType, err := f.GetCellType(sheetName, name)
			if err != nil {
				return nil, fmt.Errorf("failed to read type of cell %s: %w", name, err)
			}
			switch cellType {
			case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
				cells[c].Numeric = true
			}
		}
		grid[r] = cells
	}
	return grid, nil
}

func readXLS(path string) (grid [][]Cell, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xls file: %w", err)
	}
	defer f.Close()

	// The BIFF decoder panics on some malformed records.
	defer func() {
		if r := recover(); r != nil {
			grid, err = nil, fmt.Errorf("failed to decode xls file: %v", r)
		}
	}()

	wb, err := xls.OpenReader(f, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls file: %w", err)
	}
	if wb == nil {
		return nil, errors.New("failed to open xls file: no workbook stream")
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyWorkbook
	}

	var values [][]string
	if sheet.MaxRow > 0 {
		values = wb.ReadAllCells(int(sheet.MaxRow) + 1)
	} else {
		values = singleRow(sheet)
	}

	grid = make([][]Cell, len(values))
	for r, row := range values {
		cells := make([]Cell, len(row))
		for c, v := range row {
			cells[c].Text = strings.TrimSpace(v)
		}
		grid[r] = cells
	}
	return grid, nil
}

// singleRow reads a sheet whose only possible row is the first one.
// ReadAllCells skips such sheets and WorkSheet.Row dereferences missing rows.
func singleRow(sheet *xls.WorkSheet) (values [][]string) {
	defer func() {
		if recover() != nil {
			values = nil
		}
	}()
	row := sheet.Row(0)
	cells := make([]string, row.LastCol())
	for j := row.FirstCol(); j < row.LastCol(); j++ {
		cells[j] = row.Col(j)
	}
	return [][]string{cells}
}

func fromGrid(grid [][]Cell) (*Sheet, error) {
	start := -1
	for i, cells := range grid {
		if !blank(cells) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrEmptyWorkbook
	}

	// Trailing blank header cells are dropped by the readers, so size the
	// header by the widest row.
	width := 0
	for _, cells := range grid[start:] {
		width = max(width, len(cells))
	}
	headers := make([]string, width)
	for i := range headers {
		if i < len(grid[start]) {
			headers[i] = grid[start][i].Text
		}
		if headers[i] == "" {
			headers[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}

	sheet := &Sheet{Headers: headers}
	for _, cells := range grid[start+1:] {
		if blank(cells) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if _, seen := row[h]; seen {
				continue
			}
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = Cell{}
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

func blank(cells []Cell) bool {
	for _, c := range cells {
		if c.Text != "" {
			return false
		}
	}
	return true
}

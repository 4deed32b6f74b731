package refdata

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads the first sheet of an XLSX workbook as a table.
func LoadXLSX(path string) (*Table, error) {
	name := filepath.Base(path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrMissingInput, name)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read sheet %s: %v", ErrMissingInput, name, sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s: empty sheet", ErrMissingInput, name)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	t := &Table{Name: name, Header: header, Encoding: "xlsx"}
	for _, record := range rows[1:] {
		if len(record) == 0 {
			continue
		}
		if len(record) > len(header) {
			t.Skipped++
			continue
		}
		row := make([]string, len(header))
		for i := range record {
			row[i] = strings.TrimSpace(record[i])
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// ConvertXLSXToCSV writes the first sheet of an XLSX workbook as CSV.
func ConvertXLSXToCSV(xlsxPath, csvPath string) error {
	t, err := LoadXLSX(xlsxPath)
	if err != nil {
		return err
	}
	return WriteCSVFile(csvPath, t)
}

package vbcs

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

// Writer streams records in the upload schema.
type Writer struct {
	cw          *csv.Writer
	wroteHeader bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

// Write emits the header on first use, then the record.
func (w *Writer) Write(r Record) error {
	if !w.wroteHeader {
		if err := w.cw.Write(Header); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	return w.cw.Write(r.Fields())
}

// Flush writes the header even when no record was written.
func (w *Writer) Flush() error {
	if !w.wroteHeader {
		if err := w.cw.Write(Header); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	w.cw.Flush()
	return w.cw.Error()
}

// WriteRecords writes a complete file body.
func WriteRecords(out io.Writer, records []Record) error {
	w := NewWriter(out)
	for _, r := range records {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteFile writes records to path, creating the parent directory.
func WriteFile(path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteRecords(f, records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a VBCS file written by WriteFile or exported from the template.
func ReadFile(path string) ([]Record, error) {
	t, err := refdata.LoadRequired(path, "Item_Name", "Customername", "Adjustmentamount")
	if err != nil {
		return nil, err
	}
	return RecordsFromTable(t)
}

// ReadRecords parses a VBCS CSV stream.
func ReadRecords(r io.Reader) ([]Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	t, err := refdata.Parse("vbcs", raw)
	if err != nil {
		return nil, err
	}
	return RecordsFromTable(t)
}

// RecordsFromTable maps columns by header name.
func RecordsFromTable(t *refdata.Table) ([]Record, error) {
	idx := make([]int, FieldCount)
	for i := 0; i < FieldCount; i++ {
		idx[i] = exactIndex(t.Header, Header[i])
	}
	get := func(row []string, field int) string { return refdata.Cell(row, idx[field]) }

	out := make([]Record, 0, len(t.Rows))
	for n, row := range t.Rows {
		var amount Amount
		if s := get(row, 11); s != "" {
			a, err := ParseAmount(s)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: bad Adjustmentamount %q: %w", t.Name, n+2, s, err)
			}
			amount = a
		}
		out = append(out, Record{
			PriceListName:      get(row, 0),
			PricingUOM:         get(row, 1),
			BaselinePrice:      get(row, 2),
			ChargeStartDate:    get(row, 3),
			ChargeEndDate:      get(row, 4),
			Item:               get(row, 5),
			Customer:           get(row, 6),
			CustomerNumber:     get(row, 7),
			ShipTo:             get(row, 8),
			CustomerSiteNumber: get(row, 9),
			AdjustmentType:     get(row, 10),
			AdjustmentAmount:   amount,
			AdjustmentBasis:    get(row, 12),
			Precedence:         get(row, 13),
			Market:             get(row, 14),
			Age:                get(row, 15),
			Spec:               get(row, 16),
			Grade:              get(row, 17),
			AdjustmentStart:    get(row, 18),
			AdjustmentEnd:      get(row, 19),
			Status:             get(row, 20),
		})
	}
	return out, nil
}

// exactIndex matches header names literally; the loose matcher in refdata
// would fold distinct upload columns together.
func exactIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// Dedup drops exact duplicate records, keeping the first.
func Dedup(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		k := r.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

// File is the default name of the combined observations file.
const File = "inflation_data.csv"

// Header is the observations file layout.
var Header = []string{"Date", "Value", "Series", "Source"}

const dateLayout = "2006-01-02"

func WriteCSV(w io.Writer, obs []Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, o := range obs {
		rec := []string{
			o.Date.Format(dateLayout),
			strconv.FormatFloat(o.Value, 'f', -1, 64),
			o.Series,
			string(o.Source),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteFile(path string, obs []Observation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteCSV(f, obs); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadFile loads an observations file. Rows with unparsable dates or values
// are skipped.
func ReadFile(path string) ([]Observation, error) {
	t, err := refdata.LoadRequired(path, Header...)
	if err != nil {
		return nil, err
	}
	return fromTable(t), nil
}

// ReadCSV parses observations from r.
func ReadCSV(r io.Reader) ([]Observation, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	t, err := refdata.Parse(File, raw)
	if err != nil {
		return nil, err
	}
	if missing := t.Missing(Header...); len(missing) > 0 {
		return nil, refdata.MissingColumns(File, missing)
	}
	return fromTable(t), nil
}

func fromTable(t *refdata.Table) []Observation {
	dateIdx, valueIdx := t.Index("Date"), t.Index("Value")
	seriesIdx, sourceIdx := t.Index("Series"), t.Index("Source")

	obs := make([]Observation, 0, len(t.Rows))
	for _, row := range t.Rows {
		d := parseDate(refdata.Cell(row, dateIdx))
		v, ok := refdata.ParseFloat(refdata.Cell(row, valueIdx))
		if d.IsZero() || !ok {
			continue
		}
		obs = append(obs, Observation{
			Date:   d,
			Value:  v,
			Series: refdata.Cell(row, seriesIdx),
			Source: Source(refdata.Cell(row, sourceIdx)),
		})
	}
	return obs
}

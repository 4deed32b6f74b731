package forecast

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

// File is the default name of the forecast output.
const File = "future_data.csv"

// Header is the forecast file layout.
var Header = []string{"Date", "Series", "Baseline", "Upper", "Lower"}

const dateLayout = "2006-01-02"

func WriteCSV(w io.Writer, points []Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, p := range points {
		if err := cw.Write([]string{p.Date.Format(dateLayout), p.Series, f(p.Baseline), f(p.Upper), f(p.Lower)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteFile(path string, points []Point) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, points); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func ReadCSV(r io.Reader) ([]Point, error) {
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

	dateIdx, seriesIdx := t.Index("Date"), t.Index("Series")
	baseIdx, upperIdx, lowerIdx := t.Index("Baseline"), t.Index("Upper"), t.Index("Lower")
	num := func(row []string, idx int) float64 {
		v, _ := refdata.ParseFloat(refdata.Cell(row, idx))
		return v
	}

	points := make([]Point, 0, len(t.Rows))
	for i, row := range t.Rows {
		d, err := time.Parse(dateLayout, refdata.Cell(row, dateIdx))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid date: %w", i+2, err)
		}
		points = append(points, Point{
			Date:     d,
			Series:   refdata.Cell(row, seriesIdx),
			Baseline: num(row, baseIdx),
			Upper:    num(row, upperIdx),
			Lower:    num(row, lowerIdx),
		})
	}
	return points, nil
}

func ReadFile(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// NeedsRegeneration reports whether the forecast at forecastPath is missing,
// empty or older than the observation file it was built from.
func NeedsRegeneration(sourcePath, forecastPath string) (bool, error) {
	src, err := os.Stat(sourcePath)
	if err != nil {
		return false, fmt.Errorf("failed to stat source: %w", err)
	}
	dst, err := os.Stat(forecastPath)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if dst.Size() == 0 {
		return true, nil
	}
	rows, err := hasRows(forecastPath)
	if err != nil {
		return false, err
	}
	if !rows {
		return true, nil
	}
	return src.ModTime().After(dst.ModTime()), nil
}

// hasRows reports whether a CSV file holds anything after its header.
func hasRows(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	for i := 0; i < 2; i++ {
		if _, err := r.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	return true, nil
}

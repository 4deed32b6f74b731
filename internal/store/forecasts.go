package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/forecast"
)

type forecastRow struct {
	Series      string  `db:"series"`
	Date        string  `db:"forecast_date"`
	Baseline    float64 `db:"baseline"`
	Upper       float64 `db:"upper_bound"`
	Lower       float64 `db:"lower_bound"`
	HistoryHash string  `db:"history_hash"`
}

const insertForecasts = `
	INSERT INTO forecasts (series, forecast_date, baseline, upper_bound, lower_bound, history_hash)
	VALUES (:series, :forecast_date, :baseline, :upper_bound, :lower_bound, :history_hash)`

// ReplaceForecasts stores points as the current forecast, tagged with the
// hash of the history they were computed from.
func (s *Store) ReplaceForecasts(ctx context.Context, points []forecast.Point, historyHash string) error {
	records := make([]forecastRow, len(points))
	for i, p := range points {
		records[i] = forecastRow{
			Series:      p.Series,
			Date:        p.Date.Format(dateLayout),
			Baseline:    p.Baseline,
			Upper:       p.Upper,
			Lower:       p.Lower,
			HistoryHash: historyHash,
		}
	}

	err := s.write(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM forecasts`); err != nil {
			return err
		}
		return insertAll(ctx, tx, insertForecasts, records)
	})
	if err != nil {
		return fmt.Errorf("failed to replace forecasts: %w", err)
	}
	return nil
}

// Forecasts returns stored points sorted by series and date. An empty name
// returns every series.
func (s *Store) Forecasts(ctx context.Context, name string) ([]forecast.Point, error) {
	query := `SELECT series, forecast_date, baseline, upper_bound, lower_bound, history_hash FROM forecasts`
	var args []interface{}
	if name != "" {
		query += ` WHERE series = ?`
		args = append(args, name)
	}
	query = s.db.Rebind(query + ` ORDER BY series, forecast_date`)

	var records []forecastRow
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load forecasts: %w", err)
	}

	points := make([]forecast.Point, 0, len(records))
	for _, r := range records {
		d, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("forecast %s has bad date %q: %w", r.Series, r.Date, err)
		}
		points = append(points, forecast.Point{Date: d, Series: r.Series, Baseline: r.Baseline, Upper: r.Upper, Lower: r.Lower})
	}
	return points, nil
}

// ForecastHash returns the history hash of the stored forecast, or "" when
// none is stored.
func (s *Store) ForecastHash(ctx context.Context) (string, error) {
	var hash string
	err := s.db.GetContext(ctx, &hash, `SELECT history_hash FROM forecasts LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read forecast hash: %w", err)
	}
	return hash, nil
}

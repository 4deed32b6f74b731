package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/series"
)

const dateLayout = "2006-01-02"

type observationRow struct {
	Series   string  `db:"series"`
	Source   string  `db:"source"`
	Date     string  `db:"obs_date"`
	Value    float64 `db:"value"`
	Position int     `db:"position"`
}

const insertObservations = `
	INSERT INTO observations (series, source, obs_date, value, position)
	VALUES (:series, :source, :obs_date, :value, :position)`

// ReplaceObservations stores obs as the current indicator history snapshot.
func (s *Store) ReplaceObservations(ctx context.Context, obs []series.Observation) error {
	records := make([]observationRow, len(obs))
	for i, o := range obs {
		records[i] = observationRow{
			Series:   o.Series,
			Source:   string(o.Source),
			Date:     o.Date.Format(dateLayout),
			Value:    o.Value,
			Position: i,
		}
	}

	err := s.write(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM observations`); err != nil {
			return err
		}
		return insertAll(ctx, tx, insertObservations, records)
	})
	if err != nil {
		return fmt.Errorf("failed to replace observations: %w", err)
	}
	return nil
}

// Observations returns the history, optionally narrowed to some series, in
// the order it was stored.
func (s *Store) Observations(ctx context.Context, names ...string) ([]series.Observation, error) {
	query := `SELECT series, source, obs_date, value, position FROM observations`
	var args []interface{}
	if len(names) > 0 {
		q, a, err := sqlx.In(query+` WHERE series IN (?)`, names)
		if err != nil {
			return nil, err
		}
		query, args = q, a
	}
	query = s.db.Rebind(query + ` ORDER BY position`)

	var records []observationRow
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load observations: %w", err)
	}

	obs := make([]series.Observation, 0, len(records))
	for _, r := range records {
		d, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("observation %s has bad date %q: %w", r.Series, r.Date, err)
		}
		obs = append(obs, series.Observation{Date: d, Value: r.Value, Series: r.Series, Source: series.Source(r.Source)})
	}
	return obs, nil
}

// SeriesNames lists the stored series alphabetically.
func (s *Store) SeriesNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, `SELECT DISTINCT series FROM observations ORDER BY series`); err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	return names, nil
}

// Package gradestore keeps a local history of grade samples pulled
// from the portal, so trends survive the portal's own retention window.
package gradestore

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"
	"time"

	"homework-backend/lib/timezone"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

type Sample struct {
	Course string
	Date   time.Time
	// Percent is nil when the portal displays a sample without a
	// numeric grade.
	Percent *float64
}

// Push records samples, replacing any previously stored sample for the
// same course and day.
func (s Store) Push(ctx context.Context, taken time.Time, samples []Sample) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, sample := range samples {
		day := time.Date(
			sample.Date.Year(), sample.Date.Month(), sample.Date.Day(),
			0, 0, 0, 0, timezone.Location,
		)
		percent := sql.NullFloat64{}
		if sample.Percent != nil {
			percent = sql.NullFloat64{Float64: *sample.Percent, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO grade_sample (course, date, percent, recorded_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (course, date) DO UPDATE SET
				percent = excluded.percent,
				recorded_at = excluded.recorded_at
		`, sample.Course, day.Unix(), percent, taken.Unix())
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Pull returns stored samples on or after the given day, oldest first
// within each course. courseFilter narrows by case-insensitive
// substring match; empty matches everything.
func (s Store) Pull(ctx context.Context, courseFilter string, after time.Time) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT course, date, percent FROM grade_sample
		WHERE date >= ?
		ORDER BY course, date
	`, after.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	filter := strings.ToLower(courseFilter)
	var samples []Sample
	for rows.Next() {
		var course string
		var date int64
		var percent sql.NullFloat64
		if err := rows.Scan(&course, &date, &percent); err != nil {
			return nil, err
		}
		if filter != "" && !strings.Contains(strings.ToLower(course), filter) {
			continue
		}
		sample := Sample{
			Course: course,
			Date:   time.Unix(date, 0).In(timezone.Location),
		}
		if percent.Valid {
			value := percent.Float64
			sample.Percent = &value
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

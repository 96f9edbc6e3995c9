package portal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ListCourseGrades enumerates the grades overview and returns the grade
// samples recorded on or after cutoff. courseFilter, when non-empty, is
// a case-insensitive substring match on the course name.
//
// Unlike assignments, a history row whose date fails to parse is
// excluded outright: a grade sample is meaningless without a date. A
// percent that fails numeric parsing keeps the row with a null percent.
func ListCourseGrades(ctx context.Context, adapter Adapter, courseFilter string, cutoff time.Time) ([]GradeSample, error) {
	ctx, span := tracer.Start(ctx, "ListCourseGrades")
	defer span.End()

	span.SetAttributes(
		attribute.String("course_filter", courseFilter),
		attribute.String("cutoff", cutoff.Format(DateFormat)),
	)

	cards, err := adapter.GradeCards(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to enumerate course cards")
		return nil, fmt.Errorf("list grade cards: %w", err)
	}

	filter := strings.ToLower(courseFilter)
	samples := []GradeSample{}
	for _, card := range cards {
		course := "Unknown"
		if name, ok := card.Name(ctx); ok {
			course = name
		}
		if filter != "" && !strings.Contains(strings.ToLower(course), filter) {
			continue
		}

		rows, err := card.HistoryRows(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to enumerate history rows")
			return nil, fmt.Errorf("list history rows of %q: %w", course, err)
		}

		for _, row := range rows {
			dateText, ok := row.Field(ctx, FieldDate)
			if !ok {
				continue
			}
			date, ok := ParseDate(dateText)
			if !ok {
				slog.DebugContext(ctx, "skipping history row with unparsable date",
					"course", course, "date", dateText)
				continue
			}
			if date.Before(cutoff) {
				continue
			}

			var percent *float64
			if pctText, ok := row.Field(ctx, FieldPercent); ok {
				percent = ParsePercent(pctText)
			}
			samples = append(samples, GradeSample{
				Course:       course,
				Date:         date,
				GradePercent: percent,
			})
		}
	}

	span.SetAttributes(
		attribute.Int("cards", len(cards)),
		attribute.Int("samples", len(samples)),
	)
	return samples, nil
}

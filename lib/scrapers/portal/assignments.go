package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ListMissingAssignments enumerates the assignments view and returns
// the rows whose status starts with "missing" and whose due date, if
// present, is not before cutoff. A row without a due date is kept: no
// due date means it cannot have fallen out of the window. Results stay
// in document order; the portal's own presentation order carries
// meaning and is not second-guessed here.
func ListMissingAssignments(ctx context.Context, adapter Adapter, cutoff time.Time) ([]Assignment, error) {
	ctx, span := tracer.Start(ctx, "ListMissingAssignments")
	defer span.End()

	span.SetAttributes(attribute.String("cutoff", cutoff.Format(DateFormat)))

	rows, err := adapter.AssignmentRows(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to enumerate assignment rows")
		return nil, fmt.Errorf("list assignment rows: %w", err)
	}

	items := []Assignment{}
	for _, row := range rows {
		a := readAssignment(ctx, row)
		if !strings.HasPrefix(strings.ToLower(string(a.Status)), "missing") {
			continue
		}
		a.Status = StatusMissing
		if a.DueDate != nil && a.DueDate.Before(cutoff) {
			continue
		}
		items = append(items, a)
	}

	span.SetAttributes(
		attribute.Int("rows", len(rows)),
		attribute.Int("missing", len(items)),
	)
	return items, nil
}

func readAssignment(ctx context.Context, row Row) Assignment {
	a := Assignment{
		Title:  "Unknown",
		Course: "Unknown",
		Status: StatusUnknown,
	}

	if title, ok := row.Field(ctx, FieldTitle); ok {
		a.Title = title
	}
	if course, ok := row.Field(ctx, FieldCourse); ok {
		a.Course = course
	}
	if status, ok := row.Field(ctx, FieldStatus); ok {
		a.Status = Status(status)
	}
	if due, ok := row.Field(ctx, FieldDue); ok {
		// an unparsable due date degrades to "no due date", it does not
		// drop the row
		if d, ok := ParseDate(due); ok {
			a.DueDate = &d
		}
	}
	if link, ok := row.Field(ctx, FieldLink); ok {
		a.Link = link
	}
	if possible, ok := row.Field(ctx, FieldPointsPossible); ok {
		a.PointsPossible = ParsePercent(possible)
	}
	if earned, ok := row.Field(ctx, FieldPointsEarned); ok {
		a.PointsEarned = ParsePercent(earned)
	}

	return a
}

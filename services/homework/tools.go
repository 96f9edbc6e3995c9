package homework

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"homework-backend/lib/scrapers/portal"
)

type checkMissingInput struct {
	// SinceDays bounds how far back a due date may be and still count.
	SinceDays *int `json:"since_days,omitempty"`
}

type assignmentEntry struct {
	Title          string   `json:"title"`
	Course         string   `json:"course"`
	DueDate        *string  `json:"due_date"`
	Status         string   `json:"status"`
	PointsPossible *float64 `json:"points_possible,omitempty"`
	PointsEarned   *float64 `json:"points_earned,omitempty"`
	Link           string   `json:"link,omitempty"`
}

type checkMissingOutput struct {
	Count int               `json:"count"`
	Items []assignmentEntry `json:"items"`
}

type courseGradesInput struct {
	// Course narrows results by case-insensitive substring match on
	// the course name.
	Course    string `json:"course,omitempty"`
	SinceDays *int   `json:"since_days,omitempty"`
}

type gradeEntry struct {
	Course       string   `json:"course"`
	Date         string   `json:"date"`
	GradePercent *float64 `json:"grade_percent"`
}

type courseGradesOutput struct {
	CourseFilter string       `json:"course_filter"`
	Count        int          `json:"count"`
	Items        []gradeEntry `json:"items"`
}

type healthInput struct{}

// RegisterTools attaches the homework tool surface to an MCP server.
func (s *Service) RegisterTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "check_missing_assignments",
		Description: "List assignments the portal still marks as missing, " +
			"limited to due dates within the lookback window (default 14 days).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input checkMissingInput) (*mcp.CallToolResult, any, error) {
		return s.handleCheckMissing(ctx, input)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "get_course_grades",
		Description: "List recent grade samples per course, optionally narrowed " +
			"by a case-insensitive course name match.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input courseGradesInput) (*mcp.CallToolResult, any, error) {
		return s.handleCourseGrades(ctx, input)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "health",
		Description: "Report server liveness and whether portal credentials are configured.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ healthInput) (*mcp.CallToolResult, any, error) {
		return textResult(s.Health(ctx))
	})
}

func (s *Service) handleCheckMissing(ctx context.Context, input checkMissingInput) (*mcp.CallToolResult, any, error) {
	if input.SinceDays != nil && *input.SinceDays < 0 {
		return errorResult(fmt.Errorf("since_days must be non-negative, got %d", *input.SinceDays))
	}

	assignments, err := s.CheckMissingAssignments(ctx, input.SinceDays)
	if err != nil {
		return errorResult(err)
	}

	items := make([]assignmentEntry, len(assignments))
	for i, a := range assignments {
		entry := assignmentEntry{
			Title:          a.Title,
			Course:         a.Course,
			Status:         string(a.Status),
			PointsPossible: a.PointsPossible,
			PointsEarned:   a.PointsEarned,
			Link:           a.Link,
		}
		if a.DueDate != nil {
			due := a.DueDate.Format(portal.DateFormat)
			entry.DueDate = &due
		}
		items[i] = entry
	}
	return textResult(checkMissingOutput{Count: len(items), Items: items})
}

func (s *Service) handleCourseGrades(ctx context.Context, input courseGradesInput) (*mcp.CallToolResult, any, error) {
	if input.SinceDays != nil && *input.SinceDays < 0 {
		return errorResult(fmt.Errorf("since_days must be non-negative, got %d", *input.SinceDays))
	}

	samples, err := s.GetCourseGrades(ctx, input.Course, input.SinceDays)
	if err != nil {
		return errorResult(err)
	}

	items := make([]gradeEntry, len(samples))
	for i, sample := range samples {
		items[i] = gradeEntry{
			Course:       sample.Course,
			Date:         sample.Date.Format(portal.DateFormat),
			GradePercent: sample.GradePercent,
		}
	}
	return textResult(courseGradesOutput{
		CourseFilter: input.Course,
		Count:        len(items),
		Items:        items,
	})
}

func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

// errorResult reports a tool failure inside the result payload; the
// protocol reserves Go errors for transport problems.
func errorResult(err error) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + err.Error()},
		},
		IsError: true,
	}, nil, nil
}

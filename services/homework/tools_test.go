package homework_test

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"homework-backend/lib/scrapers/portal"
	"homework-backend/lib/timezone"
	"homework-backend/services/homework"
)

// connect wires a client to the tool surface over in-memory pipes, the
// same path the stdio transport exercises in production.
func connect(t *testing.T, service *homework.Service) *mcp.ClientSession {
	server := mcp.NewServer(&mcp.Implementation{Name: "homework-test", Version: "0.0.1"}, nil)
	service.RegisterTools(server)

	t1, t2 := mcp.NewInMemoryTransports()
	ctx := context.Background()

	serverSession, err := server.Connect(ctx, t1, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
		serverSession.Close()
	})
	return session
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestCheckMissingTool(t *testing.T) {
	recentDue := timezone.Now().AddDate(0, 0, -3).Format(portal.DateFormat)
	adapter := &fakeAdapter{
		loggedIn: true,
		assignments: []portal.Row{
			fakeRow{
				portal.FieldTitle:  "Essay draft",
				portal.FieldCourse: "English 10",
				portal.FieldStatus: "Missing",
				portal.FieldDue:    recentDue,
			},
		},
	}
	var closed atomic.Int32
	service := homework.NewService(factoryFor(adapter, &closed), homework.Config{Credentials: creds}, nil)
	session := connect(t, service)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "check_missing_assignments",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var output struct {
		Count int `json:"count"`
		Items []struct {
			Title   string  `json:"title"`
			Course  string  `json:"course"`
			DueDate *string `json:"due_date"`
			Status  string  `json:"status"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &output))
	require.Equal(t, 1, output.Count)
	require.Equal(t, "Essay draft", output.Items[0].Title)
	require.Equal(t, "missing", output.Items[0].Status)
	require.NotNil(t, output.Items[0].DueDate)
	require.Equal(t, recentDue, *output.Items[0].DueDate)
}

func TestCourseGradesTool(t *testing.T) {
	sampleDate := timezone.Now().AddDate(0, 0, -2).Format(portal.DateFormat)
	adapter := &fakeAdapter{
		loggedIn: true,
		cards: []portal.Card{
			fakeCard{
				name: "AP Mathematics",
				rows: []portal.Row{
					fakeRow{portal.FieldDate: sampleDate, portal.FieldPercent: "85%"},
					fakeRow{portal.FieldDate: sampleDate},
				},
			},
			fakeCard{name: "English 10"},
		},
	}
	var closed atomic.Int32
	service := homework.NewService(factoryFor(adapter, &closed), homework.Config{Credentials: creds}, nil)
	session := connect(t, service)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_course_grades",
		Arguments: map[string]any{"course": "math"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var output struct {
		CourseFilter string `json:"course_filter"`
		Count        int    `json:"count"`
		Items        []struct {
			Course       string   `json:"course"`
			Date         string   `json:"date"`
			GradePercent *float64 `json:"grade_percent"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &output))
	require.Equal(t, "math", output.CourseFilter)
	require.Equal(t, 2, output.Count)
	require.Equal(t, 85.0, *output.Items[0].GradePercent)
	require.Nil(t, output.Items[1].GradePercent, "samples without a numeric grade stay null")
}

func TestNegativeSinceDaysRejected(t *testing.T) {
	service := homework.NewService(factoryFor(&fakeAdapter{loggedIn: true}, &atomic.Int32{}), homework.Config{Credentials: creds}, nil)
	session := connect(t, service)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "check_missing_assignments",
		Arguments: map[string]any{"since_days": -1},
	})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, textOf(t, result), "since_days must be non-negative")
}

func TestLoginFailureIsToolError(t *testing.T) {
	service := homework.NewService(factoryFor(&fakeAdapter{}, &atomic.Int32{}), homework.Config{Credentials: creds}, nil)
	session := connect(t, service)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_course_grades",
		Arguments: map[string]any{},
	})
	require.NoError(t, err, "auth failures are tool results, not protocol errors")
	require.True(t, result.IsError)
	require.Contains(t, textOf(t, result), "failed to login to the portal")
}

func TestHealthTool(t *testing.T) {
	service := homework.NewService(factoryFor(&fakeAdapter{}, &atomic.Int32{}), homework.Config{}, nil)
	session := connect(t, service)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "health",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var info homework.HealthInfo
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &info))
	require.Equal(t, "ok", info.Status)
	require.False(t, info.CredentialsConfigured)
}

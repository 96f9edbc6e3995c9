// Package portal extracts structured assignment and grade records from a
// school's parent portal through an authenticated browsing session.
//
// the extraction methods are read-only and mostly stateless, the output is
// dependent solely on the page contents at the fixed portal paths.
// EXCEPT for the login state, that is an implied input for each method.
//
// each extraction generally has this structure:
// 1. navigate to the target view.
// 2. enumerate row-equivalent elements through the Adapter.
// 3. transform each row into a typed record, absorbing field-level parse
//    problems locally (a bad field degrades to a default/null, it never
//    aborts the whole extraction).
// 4. apply the time-window filter.
//
// portal-specific markup knowledge lives entirely behind the Adapter
// interface so the same algorithms run against a real chromium page, a
// plain HTTP client, or a test fixture.
package portal

import (
	"fmt"
	"time"
)

// Status is the submission state a portal reports for an assignment.
type Status string

const (
	StatusMissing   Status = "missing"
	StatusSubmitted Status = "submitted"
	StatusGraded    Status = "graded"
	StatusExcused   Status = "excused"
	StatusUnknown   Status = "unknown"
)

type Assignment struct {
	Title          string     `json:"title"`
	Course         string     `json:"course"`
	DueDate        *time.Time `json:"due_date"`
	Status         Status     `json:"status"`
	PointsPossible *float64   `json:"points_possible"`
	PointsEarned   *float64   `json:"points_earned"`
	Link           string     `json:"link,omitempty"`
}

type GradeSample struct {
	Course       string    `json:"course"`
	Date         time.Time `json:"date"`
	GradePercent *float64  `json:"grade_percent"`
}

// Credentials is the immutable username/password pair sourced once at
// process start. It is never logged and never persisted.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Configured() bool {
	return c.Username != "" && c.Password != ""
}

var ErrNotConfigured = fmt.Errorf("portal credentials are not configured")
var ErrLoginFailed = fmt.Errorf("failed to login to the portal")

package portal

import "context"

// Field names the per-row values an Adapter knows how to locate.
type Field string

const (
	FieldTitle          Field = "title"
	FieldCourse         Field = "course"
	FieldStatus         Field = "status"
	FieldDue            Field = "due"
	FieldLink           Field = "link"
	FieldPointsPossible Field = "points_possible"
	FieldPointsEarned   Field = "points_earned"
	FieldDate           Field = "date"
	FieldPercent        Field = "percent"
)

// Row is one row-equivalent element of a portal view.
type Row interface {
	// Field reads one named value off the row. ok is false when the
	// field is structurally absent from this row; readers treat that as
	// a degraded default, never as an error.
	Field(ctx context.Context, name Field) (value string, ok bool)
}

// Card is one course card of the grades overview, containing an
// embedded grade-history table.
type Card interface {
	Name(ctx context.Context) (string, bool)
	HistoryRows(ctx context.Context) ([]Row, error)
}

// Adapter translates the abstract lookups the extraction algorithms
// need into concrete markup queries against one live session. The
// contract for a completed login is a single explicit signal: LoggedIn
// reports the presence of the authenticated marker (the logout
// affordance) on the portal root, nothing else.
type Adapter interface {
	// LoggedIn navigates to the portal root and probes for the
	// authenticated marker.
	LoggedIn(ctx context.Context) (bool, error)

	// SubmitLogin navigates to the login page, fills the two known form
	// fields and submits, then waits for the page to settle. It does
	// not judge success; the caller re-probes LoggedIn.
	SubmitLogin(ctx context.Context, username, password string) error

	// AssignmentRows navigates to the assignments view and enumerates
	// its rows in document order.
	AssignmentRows(ctx context.Context) ([]Row, error)

	// GradeCards navigates to the grades overview and enumerates its
	// course cards in document order.
	GradeCards(ctx context.Context) ([]Card, error)
}

// StatePersister is implemented by adapters whose session state can be
// flushed to the configured state file on demand. The authenticator
// persists immediately after a successful login so a crash later in the
// invocation does not lose the session.
type StatePersister interface {
	PersistState(ctx context.Context) error
}

// FailureReporter is implemented by adapters that can capture
// diagnostics (a screenshot, a page dump) when a login attempt fails.
// Best effort only.
type FailureReporter interface {
	ReportLoginFailure(ctx context.Context)
}

// Session is one live browsing context bound to an adapter. Owned
// exclusively by one invocation; Close persists session state and then
// releases every underlying resource, and must run even when the
// invocation failed mid-operation.
type Session interface {
	Adapter() Adapter
	Close(ctx context.Context) error
}

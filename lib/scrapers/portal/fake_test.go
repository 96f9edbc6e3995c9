package portal

import "context"

type fakeRow map[Field]string

func (r fakeRow) Field(_ context.Context, name Field) (string, bool) {
	v, ok := r[name]
	return v, ok
}

type fakeCard struct {
	name    string
	noName  bool
	rows    []Row
	rowsErr error
}

func (c fakeCard) Name(context.Context) (string, bool) {
	return c.name, !c.noName
}

func (c fakeCard) HistoryRows(context.Context) ([]Row, error) {
	return c.rows, c.rowsErr
}

type fakeAdapter struct {
	loggedIn          bool
	submitGrantsLogin bool
	submitCalls       int
	persistCalls      int
	reportedFailure   bool

	assignments []Row
	cards       []Card
}

func (a *fakeAdapter) LoggedIn(context.Context) (bool, error) {
	return a.loggedIn, nil
}

func (a *fakeAdapter) SubmitLogin(_ context.Context, username, password string) error {
	a.submitCalls++
	if a.submitGrantsLogin {
		a.loggedIn = true
	}
	return nil
}

func (a *fakeAdapter) AssignmentRows(context.Context) ([]Row, error) {
	return a.assignments, nil
}

func (a *fakeAdapter) GradeCards(context.Context) ([]Card, error) {
	return a.cards, nil
}

func (a *fakeAdapter) PersistState(context.Context) error {
	a.persistCalls++
	return nil
}

func (a *fakeAdapter) ReportLoginFailure(context.Context) {
	a.reportedFailure = true
}

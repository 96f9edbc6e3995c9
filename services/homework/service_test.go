package homework_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homework-backend/lib/gradestore"
	"homework-backend/lib/scrapers/portal"
	"homework-backend/lib/sqliteutil"
	"homework-backend/lib/statestore"
	"homework-backend/lib/telemetry"
	"homework-backend/lib/timezone"
	"homework-backend/services/homework"
)

var creds = portal.Credentials{Username: "student", Password: "hunter2"}

type fakeRow map[portal.Field]string

func (r fakeRow) Field(ctx context.Context, field portal.Field) (string, bool) {
	value, ok := r[field]
	return value, ok
}

type fakeCard struct {
	name string
	rows []portal.Row
}

func (c fakeCard) Name(ctx context.Context) (string, bool) {
	return c.name, true
}

func (c fakeCard) HistoryRows(ctx context.Context) ([]portal.Row, error) {
	return c.rows, nil
}

type fakeAdapter struct {
	loggedIn    bool
	grantLogin  bool
	assignments []portal.Row
	cards       []portal.Card

	// listDelay stretches extraction so overlap would be observable
	listDelay time.Duration
	inFlight  atomic.Int32
	overlap   atomic.Bool
}

func (a *fakeAdapter) LoggedIn(ctx context.Context) (bool, error) {
	return a.loggedIn, nil
}

func (a *fakeAdapter) SubmitLogin(ctx context.Context, username, password string) error {
	if a.grantLogin && username == creds.Username && password == creds.Password {
		a.loggedIn = true
	}
	return nil
}

func (a *fakeAdapter) AssignmentRows(ctx context.Context) ([]portal.Row, error) {
	if a.inFlight.Add(1) > 1 {
		a.overlap.Store(true)
	}
	defer a.inFlight.Add(-1)
	time.Sleep(a.listDelay)
	return a.assignments, nil
}

func (a *fakeAdapter) GradeCards(ctx context.Context) ([]portal.Card, error) {
	return a.cards, nil
}

type fakeSession struct {
	adapter *fakeAdapter
	closed  *atomic.Int32
}

func (s fakeSession) Adapter() portal.Adapter {
	return s.adapter
}

func (s fakeSession) Close(ctx context.Context) error {
	s.closed.Add(1)
	return nil
}

func factoryFor(adapter *fakeAdapter, closed *atomic.Int32) homework.SessionFactory {
	return func(ctx context.Context) (portal.Session, error) {
		return fakeSession{adapter: adapter, closed: closed}, nil
	}
}

func TestCheckMissingAssignments(t *testing.T) {
	cleanup := telemetry.SetupForTesting("homework-service-test")
	defer cleanup()

	recentDue := timezone.Now().AddDate(0, 0, -3).Format(portal.DateFormat)
	staleDue := timezone.Now().AddDate(0, 0, -40).Format(portal.DateFormat)
	adapter := &fakeAdapter{
		loggedIn: true,
		assignments: []portal.Row{
			fakeRow{
				portal.FieldTitle:  "Essay draft",
				portal.FieldCourse: "English 10",
				portal.FieldStatus: "Missing",
				portal.FieldDue:    recentDue,
			},
			fakeRow{
				portal.FieldTitle:  "Old worksheet",
				portal.FieldCourse: "English 10",
				portal.FieldStatus: "Missing",
				portal.FieldDue:    staleDue,
			},
			fakeRow{
				portal.FieldTitle:  "Quiz 3",
				portal.FieldCourse: "Biology",
				portal.FieldStatus: "Submitted",
				portal.FieldDue:    recentDue,
			},
		},
	}
	var closed atomic.Int32
	service := homework.NewService(factoryFor(adapter, &closed), homework.Config{Credentials: creds}, nil)

	assignments, err := service.CheckMissingAssignments(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	require.Equal(t, "Essay draft", assignments[0].Title)
	require.Equal(t, int32(1), closed.Load(), "session must be closed after the call")
}

func TestLoginFailureSurfaced(t *testing.T) {
	adapter := &fakeAdapter{loggedIn: false, grantLogin: false}
	var closed atomic.Int32
	service := homework.NewService(factoryFor(adapter, &closed), homework.Config{Credentials: creds}, nil)

	_, err := service.CheckMissingAssignments(context.Background(), nil)
	require.ErrorIs(t, err, portal.ErrLoginFailed)
	require.Equal(t, int32(1), closed.Load(), "session must be closed even on failure")
}

func TestMissingCredentials(t *testing.T) {
	adapter := &fakeAdapter{}
	var closed atomic.Int32
	service := homework.NewService(factoryFor(adapter, &closed), homework.Config{}, nil)

	_, err := service.GetCourseGrades(context.Background(), "", nil)
	require.ErrorIs(t, err, portal.ErrNotConfigured)
}

func TestGradeSnapshotsRecorded(t *testing.T) {
	sampleDate := timezone.Now().AddDate(0, 0, -2)
	adapter := &fakeAdapter{
		loggedIn: true,
		cards: []portal.Card{
			fakeCard{
				name: "AP Mathematics",
				rows: []portal.Row{
					fakeRow{
						portal.FieldDate:    sampleDate.Format(portal.DateFormat),
						portal.FieldPercent: "85%",
					},
				},
			},
		},
	}

	db, err := sqliteutil.OpenDB(gradestore.Schema, filepath.Join(t.TempDir(), "grades.db"))
	require.NoError(t, err)
	defer db.Close()
	store := gradestore.NewStore(db)

	var closed atomic.Int32
	service := homework.NewService(factoryFor(adapter, &closed), homework.Config{Credentials: creds}, &store)

	samples, err := service.GetCourseGrades(context.Background(), "", nil)
	require.NoError(t, err)
	require.Len(t, samples, 1)

	stored, err := store.Pull(context.Background(), "", timezone.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "AP Mathematics", stored[0].Course)
	require.Equal(t, 85.0, *stored[0].Percent)
}

func TestInvocationsSerialized(t *testing.T) {
	adapter := &fakeAdapter{
		loggedIn:  true,
		listDelay: time.Millisecond * 20,
	}
	var closed atomic.Int32
	service := homework.NewService(factoryFor(adapter, &closed), homework.Config{Credentials: creds}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.CheckMissingAssignments(context.Background(), nil)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.False(t, adapter.overlap.Load(), "tool invocations must not interleave portal access")
	require.Equal(t, int32(4), closed.Load())
}

func TestHealth(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "state.json")
	service := homework.NewService(factoryFor(&fakeAdapter{}, &atomic.Int32{}), homework.Config{
		Credentials: creds,
		PortalUrl:   "https://portal.example.edu",
		LoginPath:   "/signin",
		StateFile:   stateFile,
	}, nil)

	info := service.Health(context.Background())
	require.Equal(t, "ok", info.Status)
	require.True(t, info.CredentialsConfigured)
	require.Equal(t, "https://portal.example.edu", info.BaseUrl)
	require.Equal(t, "https://portal.example.edu/signin", info.LoginUrl)
	require.False(t, info.SessionSaved, "no session file has been written yet")
	require.GreaterOrEqual(t, info.UptimeSeconds, int64(0))

	first, err := time.Parse(time.RFC3339, info.Time)
	require.NoError(t, err)

	// the report is serialized with the portal's field names
	raw, err := json.Marshal(info)
	require.NoError(t, err)
	var keys map[string]any
	require.NoError(t, json.Unmarshal(raw, &keys))
	require.Contains(t, keys, "base_url")
	require.Contains(t, keys, "login_url")
	require.Contains(t, keys, "state_file")

	require.NoError(t, statestore.Save(stateFile, statestore.State{}))

	// repeated checks agree on everything but the clock
	again := service.Health(context.Background())
	require.True(t, again.SessionSaved)
	require.Equal(t, info.BaseUrl, again.BaseUrl)
	require.Equal(t, info.LoginUrl, again.LoginUrl)
	require.Equal(t, info.StateFile, again.StateFile)
	second, err := time.Parse(time.RFC3339, again.Time)
	require.NoError(t, err)
	require.False(t, second.Before(first))
}

func TestHealthDefaultLoginPath(t *testing.T) {
	service := homework.NewService(factoryFor(&fakeAdapter{}, &atomic.Int32{}), homework.Config{
		PortalUrl: "https://portal.example.edu",
	}, nil)

	info := service.Health(context.Background())
	require.Equal(t, "https://portal.example.edu/login", info.LoginUrl)
}

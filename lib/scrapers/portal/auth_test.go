package portal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"homework-backend/lib/telemetry"
)

func TestEnsureLoggedInAlreadyAuthenticated(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/portal")
	defer cleanup()

	adapter := &fakeAdapter{loggedIn: true}
	auth := NewAuthenticator(adapter, Credentials{Username: "parent", Password: "hunter2"})

	err := auth.EnsureLoggedIn(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, adapter.submitCalls)
}

func TestEnsureLoggedInSubmitsOnce(t *testing.T) {
	adapter := &fakeAdapter{submitGrantsLogin: true}
	auth := NewAuthenticator(adapter, Credentials{Username: "parent", Password: "hunter2"})

	err := auth.EnsureLoggedIn(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, adapter.submitCalls)
	require.Equal(t, 1, adapter.persistCalls, "state should persist right after login")

	// second call sees the authenticated marker and never resubmits
	err = auth.EnsureLoggedIn(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, adapter.submitCalls)
}

func TestEnsureLoggedInFailedSubmission(t *testing.T) {
	adapter := &fakeAdapter{}
	auth := NewAuthenticator(adapter, Credentials{Username: "parent", Password: "wrong"})

	err := auth.EnsureLoggedIn(context.Background())
	require.ErrorIs(t, err, ErrLoginFailed)
	require.Equal(t, 1, adapter.submitCalls, "no retry within one call")
	require.True(t, adapter.reportedFailure)
	require.Equal(t, 0, adapter.persistCalls)
}

func TestEnsureLoggedInMissingCredentials(t *testing.T) {
	adapter := &fakeAdapter{}
	auth := NewAuthenticator(adapter, Credentials{})

	err := auth.EnsureLoggedIn(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
	require.Equal(t, 0, adapter.submitCalls, "a doomed login is never attempted")
}

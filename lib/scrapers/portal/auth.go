package portal

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/portal")

// Authenticator guarantees a session ends authenticated, attempting the
// login flow at most once per call.
type Authenticator struct {
	adapter Adapter
	creds   Credentials
}

func NewAuthenticator(adapter Adapter, creds Credentials) Authenticator {
	return Authenticator{adapter: adapter, creds: creds}
}

// EnsureLoggedIn probes the portal root for the authenticated marker
// and returns immediately when it is present, so calling it on an
// already-authenticated session never resubmits the login form. A
// failed submission is not retried within the call; the caller's next
// invocation retries against a fresh session.
func (a Authenticator) EnsureLoggedIn(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Authenticator:EnsureLoggedIn")
	defer span.End()

	if !a.creds.Configured() {
		span.SetStatus(codes.Error, ErrNotConfigured.Error())
		return ErrNotConfigured
	}

	loggedIn, err := a.adapter.LoggedIn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to probe login state")
		return fmt.Errorf("probe login state: %w", err)
	}
	if loggedIn {
		slog.DebugContext(ctx, "session already authenticated")
		return nil
	}

	err = a.adapter.SubmitLogin(ctx, a.creds.Username, a.creds.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit login form")
		return fmt.Errorf("submit login: %w", err)
	}

	loggedIn, err = a.adapter.LoggedIn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to re-probe login state")
		return fmt.Errorf("probe login state after submit: %w", err)
	}
	if !loggedIn {
		if reporter, ok := a.adapter.(FailureReporter); ok {
			reporter.ReportLoginFailure(ctx)
		}
		span.SetStatus(codes.Error, ErrLoginFailed.Error())
		return ErrLoginFailed
	}

	// persist right away so the authenticated session survives a crash
	// later in the invocation
	if persister, ok := a.adapter.(StatePersister); ok {
		err := persister.PersistState(ctx)
		if err != nil {
			slog.WarnContext(ctx, "failed to persist session state after login", "err", err)
		}
	}

	slog.InfoContext(ctx, "login succeeded", "username", a.creds.Username)
	return nil
}

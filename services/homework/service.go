// Package homework exposes portal extraction as a small set of agent
// tools: missing-assignment checks, grade history pulls, and a health
// probe.
package homework

import (
	"context"
	"log/slog"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"homework-backend/lib/gradestore"
	"homework-backend/lib/scrapers/portal"
	"homework-backend/lib/statestore"
	"homework-backend/lib/timezone"
)

var tracer = otel.Tracer("services/homework")

const DefaultSinceDays = 14

// SessionFactory opens a fresh portal session. Each tool invocation
// gets its own session which is closed before the invocation returns.
type SessionFactory func(ctx context.Context) (portal.Session, error)

type Config struct {
	Credentials portal.Credentials
	// SinceDays is the lookback window applied when a tool call does
	// not name one.
	SinceDays int

	// informational fields surfaced by the health tool
	PortalUrl string
	LoginPath string
	StateFile string
}

type Service struct {
	// one portal conversation at a time; the portal tracks per-session
	// navigation state server-side and interleaved requests confuse it
	mu sync.Mutex

	openSession SessionFactory
	creds       portal.Credentials
	sinceDays   int
	baseUrl     string
	loginUrl    string
	stateFile   string
	grades      *gradestore.Store
	startedAt   time.Time
}

// NewService wires the tool surface to a portal binding. grades may be
// nil, which disables snapshot recording.
func NewService(openSession SessionFactory, cfg Config, grades *gradestore.Store) *Service {
	sinceDays := cfg.SinceDays
	if sinceDays <= 0 {
		sinceDays = DefaultSinceDays
	}
	return &Service{
		openSession: openSession,
		creds:       cfg.Credentials,
		sinceDays:   sinceDays,
		baseUrl:     cfg.PortalUrl,
		loginUrl:    resolveLoginUrl(cfg.PortalUrl, cfg.LoginPath),
		stateFile:   cfg.StateFile,
		grades:      grades,
		startedAt:   timezone.Now(),
	}
}

// withSession opens a session, authenticates, runs fn against the
// adapter, and tears the session down. Close failures do not mask a
// result fn already produced.
func (s *Service) withSession(ctx context.Context, fn func(ctx context.Context, adapter portal.Adapter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(ctx); err != nil {
			slog.WarnContext(ctx, "failed to close portal session", slog.String("err", err.Error()))
		}
	}()

	auth := portal.NewAuthenticator(session.Adapter(), s.creds)
	if err := auth.EnsureLoggedIn(ctx); err != nil {
		return err
	}
	return fn(ctx, session.Adapter())
}

func (s *Service) resolveSinceDays(sinceDays *int) int {
	if sinceDays == nil {
		return s.sinceDays
	}
	return *sinceDays
}

// CheckMissingAssignments returns assignments still marked missing with
// a due date inside the lookback window. nil sinceDays uses the
// configured default.
func (s *Service) CheckMissingAssignments(ctx context.Context, sinceDays *int) ([]portal.Assignment, error) {
	ctx, span := tracer.Start(ctx, "homework:CheckMissingAssignments")
	defer span.End()

	cutoff := portal.Cutoff(timezone.Now(), s.resolveSinceDays(sinceDays))
	span.SetAttributes(attribute.String("cutoff", cutoff.Format(portal.DateFormat)))

	var assignments []portal.Assignment
	err := s.withSession(ctx, func(ctx context.Context, adapter portal.Adapter) error {
		var err error
		assignments, err = portal.ListMissingAssignments(ctx, adapter, cutoff)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check missing assignments")
		return nil, err
	}
	return assignments, nil
}

// GetCourseGrades returns recent grade samples, optionally narrowed to
// courses whose name contains course. Samples are also pushed to the
// snapshot store when one is configured.
func (s *Service) GetCourseGrades(ctx context.Context, course string, sinceDays *int) ([]portal.GradeSample, error) {
	ctx, span := tracer.Start(ctx, "homework:GetCourseGrades")
	defer span.End()

	cutoff := portal.Cutoff(timezone.Now(), s.resolveSinceDays(sinceDays))
	span.SetAttributes(
		attribute.String("course_filter", course),
		attribute.String("cutoff", cutoff.Format(portal.DateFormat)),
	)

	var samples []portal.GradeSample
	err := s.withSession(ctx, func(ctx context.Context, adapter portal.Adapter) error {
		var err error
		samples, err = portal.ListCourseGrades(ctx, adapter, course, cutoff)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get course grades")
		return nil, err
	}

	s.recordSnapshots(ctx, samples)
	return samples, nil
}

// recordSnapshots is best effort; the tool result never depends on it.
func (s *Service) recordSnapshots(ctx context.Context, samples []portal.GradeSample) {
	if s.grades == nil || len(samples) == 0 {
		return
	}
	stored := make([]gradestore.Sample, len(samples))
	for i, sample := range samples {
		stored[i] = gradestore.Sample{
			Course:  sample.Course,
			Date:    sample.Date,
			Percent: sample.GradePercent,
		}
	}
	if err := s.grades.Push(ctx, timezone.Now(), stored); err != nil {
		slog.WarnContext(ctx, "failed to record grade snapshots", slog.String("err", err.Error()))
	}
}

// resolveLoginUrl joins the portal base with the login path so health
// reports the full address the bindings actually submit to.
func resolveLoginUrl(baseUrl, loginPath string) string {
	if baseUrl == "" {
		return ""
	}
	if loginPath == "" {
		loginPath = "/login"
	}
	base, err := url.Parse(baseUrl)
	if err != nil {
		return ""
	}
	return base.ResolveReference(&url.URL{Path: loginPath}).String()
}

type HealthInfo struct {
	Status                string `json:"status"`
	Time                  string `json:"time"`
	BaseUrl               string `json:"base_url,omitempty"`
	LoginUrl              string `json:"login_url,omitempty"`
	StateFile             string `json:"state_file,omitempty"`
	SessionSaved          bool   `json:"session_saved"`
	CredentialsConfigured bool   `json:"credentials_configured"`
	UptimeSeconds         int64  `json:"uptime_seconds"`
}

// Health reports liveness without touching the portal.
func (s *Service) Health(ctx context.Context) HealthInfo {
	info := HealthInfo{
		Status:                "ok",
		Time:                  timezone.Now().Format(time.RFC3339),
		BaseUrl:               s.baseUrl,
		LoginUrl:              s.loginUrl,
		CredentialsConfigured: s.creds.Configured(),
		UptimeSeconds:         int64(timezone.Now().Sub(s.startedAt).Seconds()),
	}
	if s.stateFile != "" {
		if abs, err := filepath.Abs(s.stateFile); err == nil {
			info.StateFile = abs
		} else {
			info.StateFile = s.stateFile
		}
		_, info.SessionSaved = statestore.Load(s.stateFile)
	}
	return info
}

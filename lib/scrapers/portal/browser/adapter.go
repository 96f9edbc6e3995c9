package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel/codes"

	"homework-backend/lib/htmlutil"
	"homework-backend/lib/scrapers/portal"
	"homework-backend/lib/timezone"
)

// Adapter drives portal pages through a live chromium page.
type Adapter struct {
	page          playwright.Page
	baseUrl       *url.URL
	loginPath     string
	screenshotDir string
	sel           portal.Selectors
	stepTimeout   time.Duration
}

func (a *Adapter) LoggedIn(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "browser:LoggedIn")
	defer span.End()

	if err := a.navigate(ctx, "/"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open portal root")
		return false, err
	}
	markers, err := a.page.QuerySelectorAll(a.sel.LoggedInMarker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to probe for session marker")
		return false, err
	}
	return len(markers) > 0, nil
}

func (a *Adapter) SubmitLogin(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "browser:SubmitLogin")
	defer span.End()

	fail := func(msg string, err error) error {
		err = fmt.Errorf("%s: %w", msg, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		return err
	}

	if err := a.navigate(ctx, a.loginPath); err != nil {
		return fail("failed to open login page", err)
	}
	if err := a.page.Fill(a.sel.UsernameField, username); err != nil {
		return fail("failed to fill username field", err)
	}
	if err := a.page.Fill(a.sel.PasswordField, password); err != nil {
		return fail("failed to fill password field", err)
	}
	if err := a.page.Click(a.sel.SubmitButton); err != nil {
		return fail("failed to submit login form", err)
	}

	// the submit usually triggers a navigation; give the portal a
	// chance to settle before the caller re-probes the session
	err := a.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(a.stepTimeout.Milliseconds())),
	})
	if err != nil {
		slog.WarnContext(ctx, "portal kept loading after login submit", slog.String("err", err.Error()))
	}
	return nil
}

// ReportLoginFailure captures the page as it looked when the portal
// rejected the credentials. Best effort, failures only log.
func (a *Adapter) ReportLoginFailure(ctx context.Context) {
	if a.screenshotDir == "" {
		return
	}
	path := filepath.Join(a.screenshotDir,
		fmt.Sprintf("login-failure-%s.png", timezone.Now().Format("2006-01-02T15-04-05")))
	_, err := a.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to capture login failure screenshot", slog.String("err", err.Error()))
		return
	}
	slog.InfoContext(ctx, "captured login failure screenshot", slog.String("path", path))
}

func (a *Adapter) AssignmentRows(ctx context.Context) ([]portal.Row, error) {
	ctx, span := tracer.Start(ctx, "browser:AssignmentRows")
	defer span.End()

	if err := a.navigate(ctx, a.sel.AssignmentsPath); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open assignments page")
		return nil, err
	}
	handles, err := a.page.QuerySelectorAll(a.sel.AssignmentRow)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query assignment rows")
		return nil, err
	}

	rows := make([]portal.Row, 0, len(handles))
	for _, handle := range handles {
		rows = append(rows, &pageRow{adapter: a, handle: handle})
	}
	return rows, nil
}

func (a *Adapter) GradeCards(ctx context.Context) ([]portal.Card, error) {
	ctx, span := tracer.Start(ctx, "browser:GradeCards")
	defer span.End()

	if err := a.navigate(ctx, a.sel.GradesPath); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open grades page")
		return nil, err
	}
	handles, err := a.page.QuerySelectorAll(a.sel.CourseCard)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query course cards")
		return nil, err
	}

	cards := make([]portal.Card, 0, len(handles))
	for _, handle := range handles {
		cards = append(cards, &pageCard{adapter: a, handle: handle})
	}
	return cards, nil
}

type pageRow struct {
	adapter *Adapter
	handle  playwright.ElementHandle
}

func (r *pageRow) Field(ctx context.Context, field portal.Field) (string, bool) {
	var selector string
	switch field {
	case portal.FieldTitle:
		selector = r.adapter.sel.RowTitle
	case portal.FieldCourse:
		selector = r.adapter.sel.RowCourse
	case portal.FieldStatus:
		selector = r.adapter.sel.RowStatus
	case portal.FieldDue:
		selector = r.adapter.sel.RowDue
	case portal.FieldLink:
		selector = r.adapter.sel.RowLink
	case portal.FieldPointsPossible:
		selector = r.adapter.sel.RowPointsPossible
	case portal.FieldPointsEarned:
		selector = r.adapter.sel.RowPointsEarned
	case portal.FieldDate:
		selector = r.adapter.sel.HistoryDate
	case portal.FieldPercent:
		selector = r.adapter.sel.HistoryPct
	default:
		return "", false
	}

	if selector == "" {
		return "", false
	}
	node, err := r.handle.QuerySelector(selector)
	if err != nil || node == nil {
		return "", false
	}
	if field == portal.FieldLink {
		href, err := node.GetAttribute("href")
		if err != nil || href == "" {
			return "", false
		}
		resolved, err := url.Parse(href)
		if err != nil {
			return href, true
		}
		return r.adapter.baseUrl.ResolveReference(resolved).String(), true
	}
	text, err := node.TextContent()
	if err != nil {
		return "", false
	}
	return htmlutil.CleanText(text), true
}

type pageCard struct {
	adapter *Adapter
	handle  playwright.ElementHandle
}

func (c *pageCard) Name(ctx context.Context) (string, bool) {
	node, err := c.handle.QuerySelector(c.adapter.sel.CourseName)
	if err != nil || node == nil {
		return "", false
	}
	text, err := node.TextContent()
	if err != nil {
		return "", false
	}
	return htmlutil.CleanText(text), true
}

func (c *pageCard) HistoryRows(ctx context.Context) ([]portal.Row, error) {
	handles, err := c.handle.QuerySelectorAll(c.adapter.sel.HistoryRow)
	if err != nil {
		return nil, fmt.Errorf("failed to query history rows: %w", err)
	}
	rows := make([]portal.Row, 0, len(handles))
	for _, handle := range handles {
		rows = append(rows, &pageRow{adapter: c.adapter, handle: handle})
	}
	return rows, nil
}

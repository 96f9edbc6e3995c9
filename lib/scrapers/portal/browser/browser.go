// Package browser binds the portal extraction engine to a real
// Chromium instance driven through playwright. It exists for portals
// that render their assignment and grade tables with client-side
// scripting, where the plain HTTP binding sees empty pages.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"homework-backend/lib/scrapers/portal"
	"homework-backend/lib/statestore"
)

var tracer = otel.Tracer("scrapers/portal/browser")

type Options struct {
	BaseUrl   string
	LoginPath string
	// StateFile persists chromium storage state (cookies and origin
	// storage) between invocations. Empty disables persistence.
	StateFile string
	// ScreenshotDir receives a full-page capture whenever a login
	// attempt is rejected. Empty disables captures.
	ScreenshotDir string
	Selectors     portal.Selectors
	Headless      bool
	// StepTimeout bounds each individual page interaction.
	StepTimeout time.Duration
}

type Session struct {
	adapter *Adapter

	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext

	stateFile string
}

// Open launches chromium and restores any previously persisted storage
// state. Callers must Close the session to release the browser and
// flush state back to disk.
func Open(ctx context.Context, opts Options) (*Session, error) {
	ctx, span := tracer.Start(ctx, "browser:Open")
	defer span.End()

	fail := func(msg string, err error) (*Session, error) {
		err = fmt.Errorf("%s: %w", msg, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		return nil, err
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return fail("invalid base url", err)
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if opts.StepTimeout == 0 {
		opts.StepTimeout = time.Second * 30
	}

	// keep driver chatter off stdio, it is reserved for the protocol
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return fail("failed to install playwright", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fail("failed to start playwright", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return fail("failed to launch chromium", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{}
	if opts.StateFile != "" {
		// only hand playwright a state file that parses; a corrupt
		// file is treated as a fresh start
		if _, ok := statestore.Load(opts.StateFile); ok {
			contextOpts.StorageStatePath = playwright.String(opts.StateFile)
		}
	}
	browserCtx, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return fail("failed to create browser context", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		browser.Close()
		pw.Stop()
		return fail("failed to create page", err)
	}
	page.SetDefaultTimeout(float64(opts.StepTimeout.Milliseconds()))

	return &Session{
		adapter: &Adapter{
			page:          page,
			baseUrl:       baseUrl,
			loginPath:     opts.LoginPath,
			screenshotDir: opts.ScreenshotDir,
			sel:           opts.Selectors.Merge(portal.DefaultSelectors()),
			stepTimeout:   opts.StepTimeout,
		},
		pw:        pw,
		browser:   browser,
		context:   browserCtx,
		stateFile: opts.StateFile,
	}, nil
}

func (s *Session) Adapter() portal.Adapter {
	return s.adapter
}

// Close persists storage state and tears down the browser. Teardown
// continues past individual failures so a stuck page cannot leak a
// chromium process.
func (s *Session) Close(ctx context.Context) error {
	_, span := tracer.Start(ctx, "browser:Close")
	defer span.End()

	var errs []error
	if s.stateFile != "" {
		if _, err := s.context.StorageState(s.stateFile); err != nil {
			errs = append(errs, fmt.Errorf("failed to persist storage state: %w", err))
		} else {
			statestore.Restrict(s.stateFile)
		}
	}
	if err := s.adapter.page.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.context.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, err)
	}

	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "browser teardown was not clean")
	}
	return err
}

// navigate drives the page to a portal path and waits for the network
// to settle. Some portals keep polling endpoints open forever, so a
// navigation timeout after the document loaded is downgraded to a
// warning instead of an error.
func (a *Adapter) navigate(ctx context.Context, path string) error {
	target := a.baseUrl.ResolveReference(&url.URL{Path: path}).String()
	_, err := a.page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(a.stepTimeout.Milliseconds())),
	})
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "Timeout") {
		slog.WarnContext(ctx, "network never settled, continuing with loaded document",
			slog.String("path", path))
		return nil
	}
	return fmt.Errorf("failed to navigate to %s: %w", path, err)
}

package main

import (
	"context"
	"fmt"

	"homework-backend/lib/scrapers/portal"
	"homework-backend/lib/scrapers/portal/browser"
	"homework-backend/lib/scrapers/portal/static"
	"homework-backend/services/homework"
)

var errMissingBaseUrl = fmt.Errorf("portal.base_url is required")

func engineName(cfg PortalConfig) string {
	if cfg.Engine == "" {
		return "browser"
	}
	return cfg.Engine
}

func newSessionFactory(cfg PortalConfig) homework.SessionFactory {
	headless := true
	if cfg.Headless != nil {
		headless = *cfg.Headless
	}

	switch engineName(cfg) {
	case "static":
		return func(ctx context.Context) (portal.Session, error) {
			return static.Open(ctx, static.ClientOptions{
				BaseUrl:   cfg.BaseUrl,
				LoginPath: cfg.LoginPath,
				StateFile: cfg.StateFile,
				Selectors: cfg.Selectors,
			})
		}
	case "browser":
		return func(ctx context.Context) (portal.Session, error) {
			return browser.Open(ctx, browser.Options{
				BaseUrl:       cfg.BaseUrl,
				LoginPath:     cfg.LoginPath,
				StateFile:     cfg.StateFile,
				ScreenshotDir: cfg.ScreenshotDir,
				Selectors:     cfg.Selectors,
				Headless:      headless,
			})
		}
	default:
		return func(ctx context.Context) (portal.Session, error) {
			return nil, fmt.Errorf("unknown portal engine: %q", cfg.Engine)
		}
	}
}

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"homework-backend/lib/configutil"
	"homework-backend/lib/scrapers/portal"
	"homework-backend/lib/scrapers/portal/browser"
	"homework-backend/lib/scrapers/portal/static"
	"homework-backend/lib/serviceutil"
	"homework-backend/lib/timezone"
	"homework-backend/services/homework"
)

var errNoSnapshotDb = fmt.Errorf("no snapshot database configured, pass --db or set grade_database")

var rootCmd = &cobra.Command{
	Use:   "homework-cli",
	Short: "homework-cli runs portal extractions from the terminal, without an agent in the loop.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type PortalConfig struct {
	BaseUrl       string           `json:"base_url"`
	LoginPath     string           `json:"login_path"`
	Engine        string           `json:"engine"`
	Headless      *bool            `json:"headless"`
	StateFile     string           `json:"state_file"`
	ScreenshotDir string           `json:"screenshot_dir"`
	Selectors     portal.Selectors `json:"selectors"`
}

type Config struct {
	Timezone      string       `json:"timezone"`
	Portal        PortalConfig `json:"portal"`
	SinceDays     int          `json:"since_days"`
	GradeDatabase string       `json:"grade_database"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to read config", err)
	}
	if v := os.Getenv("PORTAL_BASE_URL"); v != "" {
		cfg.Portal.BaseUrl = v
	}
	if cfg.Timezone != "" {
		if err := timezone.Set(cfg.Timezone); err != nil {
			serviceutil.Fatal("failed to set timezone", err)
		}
	}
	return cfg
}

func newService(cfg Config) *homework.Service {
	creds := portal.Credentials{
		Username: os.Getenv("PORTAL_USERNAME"),
		Password: os.Getenv("PORTAL_PASSWORD"),
	}

	headless := true
	if cfg.Portal.Headless != nil {
		headless = *cfg.Portal.Headless
	}

	var factory homework.SessionFactory
	switch cfg.Portal.Engine {
	case "static":
		factory = func(ctx context.Context) (portal.Session, error) {
			return static.Open(ctx, static.ClientOptions{
				BaseUrl:   cfg.Portal.BaseUrl,
				LoginPath: cfg.Portal.LoginPath,
				StateFile: cfg.Portal.StateFile,
				Selectors: cfg.Portal.Selectors,
			})
		}
	default:
		factory = func(ctx context.Context) (portal.Session, error) {
			return browser.Open(ctx, browser.Options{
				BaseUrl:       cfg.Portal.BaseUrl,
				LoginPath:     cfg.Portal.LoginPath,
				StateFile:     cfg.Portal.StateFile,
				ScreenshotDir: cfg.Portal.ScreenshotDir,
				Selectors:     cfg.Portal.Selectors,
				Headless:      headless,
			})
		}
	}

	return homework.NewService(factory, homework.Config{
		Credentials: creds,
		SinceDays:   cfg.SinceDays,
		PortalUrl:   cfg.Portal.BaseUrl,
		LoginPath:   cfg.Portal.LoginPath,
		StateFile:   cfg.Portal.StateFile,
	}, nil)
}

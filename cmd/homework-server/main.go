package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"homework-backend/lib/configutil"
	"homework-backend/lib/gradestore"
	"homework-backend/lib/scrapers/portal"
	"homework-backend/lib/serviceutil"
	"homework-backend/lib/sqliteutil"
	"homework-backend/lib/timezone"
	"homework-backend/services/homework"
)

const version = "0.1.0"

type PortalConfig struct {
	BaseUrl   string `json:"base_url"`
	LoginPath string `json:"login_path"`
	// Engine picks the portal binding: "browser" (default) drives a
	// headless chromium, "static" uses a plain HTTP client.
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

// applyEnv lets deployments override the file config without editing
// it. Credentials only ever come from the environment so they cannot
// end up in a committed config file.
func applyEnv(cfg *Config) portal.Credentials {
	if v := os.Getenv("PORTAL_BASE_URL"); v != "" {
		cfg.Portal.BaseUrl = v
	}
	if v := os.Getenv("PORTAL_STATE_FILE"); v != "" {
		cfg.Portal.StateFile = v
	}
	if v := os.Getenv("PORTAL_HEADLESS"); v != "" {
		headless := v != "0" && v != "false"
		cfg.Portal.Headless = &headless
	}
	return portal.Credentials{
		Username: os.Getenv("PORTAL_USERNAME"),
		Password: os.Getenv("PORTAL_PASSWORD"),
	}
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	// a missing config file is fine, deployments may configure the
	// portal entirely through the environment
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("read config", err)
	}
	creds := applyEnv(&cfg)

	if cfg.Timezone != "" {
		if err := timezone.Set(cfg.Timezone); err != nil {
			serviceutil.Fatal("set timezone", err)
		}
	}
	if cfg.Portal.BaseUrl == "" {
		serviceutil.Fatal("read config", errMissingBaseUrl)
	}
	if !creds.Configured() {
		// still serve: health must be able to report the problem, and
		// the extraction tools return a stable error per call
		slog.WarnContext(ctx, "PORTAL_USERNAME/PORTAL_PASSWORD are not set, extraction tools will fail")
	}

	var grades *gradestore.Store
	if cfg.GradeDatabase != "" {
		db, err := sqliteutil.OpenDB(gradestore.Schema, cfg.GradeDatabase)
		if err != nil {
			serviceutil.Fatal("open grade database", err)
		}
		defer db.Close()
		store := gradestore.NewStore(db)
		grades = &store
	}

	service := homework.NewService(newSessionFactory(cfg.Portal), homework.Config{
		Credentials: creds,
		SinceDays:   cfg.SinceDays,
		PortalUrl:   cfg.Portal.BaseUrl,
		LoginPath:   cfg.Portal.LoginPath,
		StateFile:   cfg.Portal.StateFile,
	}, grades)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "homework-server",
		Version: version,
	}, nil)
	service.RegisterTools(server)

	slog.InfoContext(ctx, "serving homework tools over stdio",
		slog.String("engine", engineName(cfg.Portal)),
		slog.String("portal", cfg.Portal.BaseUrl))
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		serviceutil.Fatal("serve stdio", err)
	}
}

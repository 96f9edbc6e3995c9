package main

import (
	"context"
	"log/slog"

	"homework-backend/lib/restyutil"
	"homework-backend/lib/scrapers/portal/static"
	"homework-backend/lib/serviceutil"
	"homework-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "homework-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return
	}

	static.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/portal"),
	)
}

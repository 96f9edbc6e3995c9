package main

import (
	"context"
	"log/slog"

	"homework-backend/cmd/homework-cli/commands"
	"homework-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(true)

	ctx := context.Background()
	if err := telemetry.SetupFromEnv(ctx, "homework-cli"); err != nil {
		slog.Warn("failed to set up telemetry", "err", err)
	}
	commands.ExecuteContext(ctx)
}

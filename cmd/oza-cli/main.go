package main

import (
	"context"
	"log/slog"

	"oza-scraper/cmd/oza-cli/commands"
	"oza-scraper/lib/telemetry"
)

func main() {
	ctx := context.Background()

	telemetry.InitSlog(false)
	tel, err := telemetry.SetupFromEnv(ctx, "oza-cli")
	if err != nil {
		slog.Warn("failed to set up telemetry", "err", err)
	} else {
		defer tel.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)
	}

	commands.ExecuteContext(ctx)
}

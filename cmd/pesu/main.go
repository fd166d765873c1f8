package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"pesuacademy/cmd/pesu/commands"
	"pesuacademy/internal/components/telemetry"
)

func main() {
	ctx := context.Background()

	otel, err := telemetry.SetupFromEnv(ctx, "pesu")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	defer otel.Shutdown(context.Background())

	commands.ExecuteContext(ctx)
}

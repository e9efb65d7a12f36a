package main

import (
	"context"

	"nutrisync-backend/cmd/nutrisync-cli/commands"
	"nutrisync-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "nutrisync-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}

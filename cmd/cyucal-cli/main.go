package main

import (
	"cyucal-backend/cmd/cyucal-cli/commands"
	"cyucal-backend/lib/serviceutil"
	"cyucal-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(true)
	ctx := serviceutil.SignalContext()
	_, _ = telemetry.SetupFromEnv(ctx, "cyucal-cli")
	commands.ExecuteContext(ctx)
}

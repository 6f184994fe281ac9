// Command notify checks today's rain probability for each configured
// location and posts a Slack notification when the threshold is reached, at
// most once per location per day. It is meant to be run once daily by an
// external scheduler.
//
// Usage:
//
//	SLACK_WEBHOOK_URL=https://hooks.slack.com/services/... \
//	  go run ./cmd/notify --config config/settings.json
//
//	go run ./cmd/notify --dry-run
//	go run ./cmd/notify validate
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if present (for SLACK_WEBHOOK_URL)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

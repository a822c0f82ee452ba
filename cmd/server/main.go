// Command server runs the PulsePal HTTP API: the conversational check-in
// pipeline, the daily insight scheduler, and the REST surface.
//
// Configuration comes from CONFIG_PATH (YAML) plus environment variables.
// Exit codes: 0 = clean shutdown, 1 = error.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/pulsepal-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}

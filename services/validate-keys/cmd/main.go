package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nimeshabuddhika/payment-key-validator/pkg"
	"github.com/nimeshabuddhika/payment-key-validator/services/validate-keys/app"
)

// main checks the configured payment gateway keys once and exits with:
// 0 success, 1 endpoint-reported failure, 2 missing AUTH_TOKEN, 3 request failure.
func main() {
	_ = godotenv.Load() // optional .env, never overrides exported variables

	pkg.InitCLILogger()
	logger := pkg.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := app.Execute(ctx, logger, os.Stdout, os.Stderr)
	stop()

	_ = logger.Sync()
	os.Exit(code)
}

// Command autocomplete settles sandbox payments that have been processing
// longer than a threshold. It runs the same pass the API server can run
// in-process.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"tours/internal/app"
	"tours/internal/config"
	"tours/internal/events"
	"tours/internal/log"
)

func main() {
	if _, err := config.LoadEnvFile(); err != nil {
		logrus.WithError(err).Warn("failed to load .env file")
	}
	cfg := config.Load()

	once := flag.Bool("once", false, "run a single pass and exit")
	interval := flag.Duration("interval", cfg.Payments.AutoCompleteEvery, "poll interval")
	threshold := flag.Duration("threshold", cfg.Payments.AutoCompleteAfter, "time a payment must have been processing")
	successRate := flag.Float64("success-rate", cfg.Payments.SuccessRate, "share of payments resolved as successful, 0..1")
	batch := flag.Int("batch", cfg.Payments.AutoCompleteBatch, "maximum payments per pass")
	allProviders := flag.Bool("all-providers", !cfg.Payments.AutoCompleteSandbox, "also settle payments of live providers")
	flag.Parse()

	cfg.Payments.AutoCompleteEvery = *interval
	cfg.Payments.AutoCompleteAfter = *threshold
	cfg.Payments.SuccessRate = *successRate
	cfg.Payments.AutoCompleteBatch = *batch
	cfg.Payments.AutoCompleteSandbox = !*allProviders

	log.Init(cfg.Log.Level, cfg.Log.JSON)

	if err := run(cfg, *once); err != nil {
		logrus.WithError(err).Fatal("auto-completion stopped")
	}
}

func run(cfg *config.Config, once bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nrApp := app.NewNewRelic(cfg.NewRelic)
	if nrApp != nil {
		defer nrApp.Shutdown(5 * time.Second)
	}

	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := app.NewDatabase(startupCtx, cfg.Database, nrApp)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := app.NewRedisClient(startupCtx, cfg.Redis, nrApp)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	container := app.NewContainer(cfg, db, redisClient, nrApp)

	// Resolutions land in the outbox; the API server forwards them.
	if cfg.Messaging.Enabled {
		if err := events.InitializeOutbox(container.SQLX, container.WatermillLogger); err != nil {
			return err
		}
	}

	if !once {
		return container.AutoCompleter.Run(ctx)
	}

	stats, err := container.AutoCompleter.RunOnce(ctx)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(stats)
}

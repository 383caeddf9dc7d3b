package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tours/internal/app"
	"tours/internal/config"
	"tours/internal/log"
)

func main() {
	if path, err := config.LoadEnvFile(); err != nil {
		logrus.WithError(err).Warn("failed to load .env file")
	} else if path != "" {
		logrus.WithField("path", path).Info("Loaded .env file")
	}

	cfg := config.Load()
	log.Init(cfg.Log.Level, cfg.Log.JSON)

	if err := run(cfg); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
	logrus.Info("Server exited")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// New Relic goes first so the database and Redis are instrumented.
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
	logrus.Info("Connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(startupCtx, cfg.Redis, nrApp)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	logrus.Info("Connected to Redis")

	container := app.NewContainer(cfg, db, redisClient, nrApp)

	if n, err := container.Catalog.SyncLocations(startupCtx); err != nil {
		logrus.WithError(err).Warn("failed to index destination locations")
	} else {
		logrus.WithField("destinations", n).Info("Destination locations indexed")
	}

	router := app.NewRouter(app.NewRouterDeps(container, redisClient, cfg.Server.CORSOrigins, cfg.Payments.DefaultCurrency))
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Messaging.Enabled {
		messaging, err := app.NewMessaging(cfg.Messaging, container)
		if err != nil {
			return err
		}

		g.Go(func() error {
			return messaging.Router.Run(ctx)
		})
		g.Go(func() error {
			return messaging.Forwarder.Run(ctx)
		})
		g.Go(func() error {
			<-ctx.Done()
			return errors.Join(messaging.Forwarder.Close(), messaging.Router.Close())
		})
	}

	if cfg.Payments.AutoComplete {
		g.Go(func() error {
			return container.AutoCompleter.Run(ctx)
		})
	}

	g.Go(func() error {
		logrus.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logrus.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

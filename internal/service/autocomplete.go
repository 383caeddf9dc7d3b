package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"tours/internal/clock"
	"tours/internal/domain"
	"tours/internal/log"
	"tours/internal/redis"
	"tours/internal/repository"
)

// AutoCompleteConfig tunes the payment auto-completion daemon.
type AutoCompleteConfig struct {
	Interval    time.Duration
	Threshold   time.Duration
	SuccessRate float64
	BatchSize   int
	SandboxOnly bool
}

// DefaultAutoCompleteConfig returns the daemon defaults.
func DefaultAutoCompleteConfig() AutoCompleteConfig {
	return AutoCompleteConfig{
		Interval:    10 * time.Second,
		Threshold:   30 * time.Second,
		SuccessRate: 0.9,
		BatchSize:   50,
		SandboxOnly: true,
	}
}

// PaymentResolver settles processing payments.
type PaymentResolver interface {
	Resolve(ctx context.Context, reference string, successful bool, reason string) (*domain.Payment, error)
}

// RunStats counts what one auto-completion pass did.
type RunStats struct {
	Scanned   int `json:"scanned"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// AutoCompleter settles payments that have been processing for too long.
type AutoCompleter struct {
	paymentRepo repository.PaymentRepository
	resolver    PaymentResolver
	lockStore   redis.LockStoreInterface
	clock       clock.Clock
	nrApp       *newrelic.Application
	cfg         AutoCompleteConfig

	// Roll returns a uniform number in [0,1). Replaced in tests.
	Roll func() float64
}

// NewAutoCompleter creates a new AutoCompleter. lockStore and nrApp may be nil.
func NewAutoCompleter(
	paymentRepo repository.PaymentRepository,
	resolver PaymentResolver,
	lockStore redis.LockStoreInterface,
	clk clock.Clock,
	nrApp *newrelic.Application,
	cfg AutoCompleteConfig,
) *AutoCompleter {
	def := DefaultAutoCompleteConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Threshold < 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.SuccessRate < 0 {
		cfg.SuccessRate = 0
	}
	if cfg.SuccessRate > 1 {
		cfg.SuccessRate = 1
	}
	if clk == nil {
		clk = clock.NewSystem()
	}

	return &AutoCompleter{
		paymentRepo: paymentRepo,
		resolver:    resolver,
		lockStore:   lockStore,
		clock:       clk,
		nrApp:       nrApp,
		cfg:         cfg,
		Roll:        rand.Float64,
	}
}

// Config returns the effective configuration.
func (a *AutoCompleter) Config() AutoCompleteConfig {
	return a.cfg
}

// RunOnce performs a single pass over due payments.
func (a *AutoCompleter) RunOnce(ctx context.Context) (RunStats, error) {
	var stats RunStats

	if a.nrApp != nil {
		txn := a.nrApp.StartTransaction("payments-autocomplete")
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
		defer func() {
			txn.AddAttribute("scanned", stats.Scanned)
			txn.AddAttribute("succeeded", stats.Succeeded)
			txn.AddAttribute("failed", stats.Failed)
			txn.AddAttribute("skipped", stats.Skipped)
		}()
	}

	cutoff := a.clock.Now().Add(-a.cfg.Threshold)
	due, err := a.paymentRepo.ListDue(ctx, cutoff, a.cfg.SandboxOnly, a.cfg.BatchSize)
	if err != nil {
		return stats, err
	}
	stats.Scanned = len(due)

	logger := log.FromContext(ctx)
	for _, payment := range due {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		status, err := a.complete(ctx, payment)
		switch {
		case err != nil:
			stats.Skipped++
			logger.WithError(err).WithField("reference", payment.Reference).Warn("auto-completion failed")
		case status == domain.PaymentStatusSuccessful:
			stats.Succeeded++
		case status == domain.PaymentStatusFailed:
			stats.Failed++
		default:
			stats.Skipped++
		}
	}

	if stats.Scanned > 0 {
		logger.WithFields(logrus.Fields{
			"scanned":   stats.Scanned,
			"succeeded": stats.Succeeded,
			"failed":    stats.Failed,
			"skipped":   stats.Skipped,
		}).Info("auto-completion pass finished")
	}
	return stats, nil
}

// Run calls RunOnce immediately and then every interval until ctx is done.
func (a *AutoCompleter) Run(ctx context.Context) error {
	logger := log.FromContext(ctx).WithField("component", "autocomplete")
	logger.WithFields(logrus.Fields{
		"interval":     a.cfg.Interval,
		"threshold":    a.cfg.Threshold,
		"success_rate": a.cfg.SuccessRate,
		"sandbox_only": a.cfg.SandboxOnly,
	}).Info("payment auto-completion started")

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := a.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("auto-completion pass failed")
		}

		select {
		case <-ctx.Done():
			logger.Info("payment auto-completion stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// complete resolves one payment. An empty status means it was skipped.
func (a *AutoCompleter) complete(ctx context.Context, payment *domain.Payment) (domain.PaymentStatus, error) {
	if a.lockStore != nil {
		locked, err := a.lockStore.AcquirePaymentLock(ctx, payment.Reference, a.cfg.Interval)
		if err != nil {
			return "", err
		}
		if !locked {
			return "", nil
		}
		defer func() {
			_ = a.lockStore.ReleasePaymentLock(context.WithoutCancel(ctx), payment.Reference)
		}()
	}

	successful := a.Roll() < a.cfg.SuccessRate
	reason := ""
	if !successful {
		reason = "sandbox auto-completion declined"
	}

	resolved, err := a.resolver.Resolve(ctx, payment.Reference, successful, reason)
	if errors.Is(err, ErrPaymentNotProcessing) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return resolved.Status, nil
}

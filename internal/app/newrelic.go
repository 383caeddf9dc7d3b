package app

import (
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"tours/internal/config"
)

// NewNewRelic starts the New Relic agent. It returns nil when New Relic is
// disabled or fails to start; every consumer treats nil as "off".
func NewNewRelic(cfg config.NewRelicConfig) *newrelic.Application {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil
	}

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		logrus.WithError(err).Warn("failed to initialize New Relic")
		return nil
	}

	logrus.WithField("app", cfg.AppName).Info("New Relic enabled")
	return nrApp
}

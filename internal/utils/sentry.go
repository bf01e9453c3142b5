package utils

import (
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// InitSentry initializes Sentry for error tracking. Without SENTRY_DSN
// the SDK runs with an empty DSN and every capture is a no-op.
func InitSentry() {
	dsn := os.Getenv("SENTRY_DSN")

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      os.Getenv("APP_ENV"),
		EnableTracing:    true,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		logrus.Fatalf("sentry.Init: %s", err)
	}

	if dsn == "" {
		logrus.Warn("SENTRY_DSN not set, error tracking disabled")
	} else {
		logrus.Info("Sentry initialized")
	}
}

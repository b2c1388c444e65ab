package config

import (
	"time"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/types"
	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Sentry holds error reporting configuration
type Sentry struct {
	DSN         string `masq:"secret"`
	Environment string

	enabled bool
}

// Flags returns CLI flags for Sentry configuration
func (c *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN, run failures are reported when set",
			Destination: &c.DSN,
			Sources:     cli.EnvVars("COVIDNET_SENTRY_DSN", "SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Value:       "production",
			Destination: &c.Environment,
			Sources:     cli.EnvVars("COVIDNET_SENTRY_ENV", "SENTRY_ENVIRONMENT"),
		},
	}
}

// Configure initializes the Sentry client. It does nothing without a DSN.
func (c *Sentry) Configure() error {
	if c.DSN == "" {
		return nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         c.DSN,
		Environment: c.Environment,
		Release:     types.AppName + "@" + types.Version,
	}); err != nil {
		return goerr.Wrap(err, "failed to initialize sentry", goerr.T(types.ErrTagInvalidArgs))
	}

	c.enabled = true
	return nil
}

// Report sends err to Sentry and waits for delivery
func (c *Sentry) Report(err error) {
	if !c.enabled || err == nil {
		return
	}

	sentry.CaptureException(err)
	sentry.Flush(2 * time.Second)
}

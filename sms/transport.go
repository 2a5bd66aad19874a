package sms

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"groscales/config"
)

//go:generate mockgen -destination=mocks/mock_transport.go -package=mocks groscales/sms Transport

// ErrTransport wraps every provider-side failure.
var ErrTransport = errors.New("sms transport error")

// Outbound is one text handed to the provider.
type Outbound struct {
	From           string
	To             string
	Body           string
	StatusCallback string
}

// Transport delivers a single text and returns the provider message id.
type Transport interface {
	Send(ctx context.Context, msg Outbound) (string, error)
	// DryRun is true when nothing leaves the process.
	DryRun() bool
}

// NewTransport picks Twilio when credentials are configured and falls back
// to the dry-run transport otherwise.
func NewTransport(cfg *config.Config, logger logrus.FieldLogger) Transport {
	if cfg.Twilio.HasCredentials() {
		logger.Info("📱 Using Twilio SMS transport")
		return NewTwilioTransport(cfg.Twilio)
	}
	logger.Warn("📱 Twilio credentials missing, SMS transport running in dry-run mode")
	return NewDryRunTransport(logger)
}

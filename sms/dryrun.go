package sms

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DryRunTransport accepts every message and logs it instead of sending.
type DryRunTransport struct {
	logger logrus.FieldLogger
}

func NewDryRunTransport(logger logrus.FieldLogger) *DryRunTransport {
	return &DryRunTransport{logger: logger.WithField("component", "sms_dry_run")}
}

func (t *DryRunTransport) Send(ctx context.Context, msg Outbound) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sid := "DRY-" + uuid.NewString()
	t.logger.WithFields(logrus.Fields{
		"sid":  sid,
		"from": msg.From,
		"to":   msg.To,
		"len":  len(msg.Body),
	}).Info("Dry-run SMS accepted")
	return sid, nil
}

func (t *DryRunTransport) DryRun() bool { return true }

package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"groscales/config"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioTransport struct {
	api messageCreator
}

func NewTwilioTransport(cfg config.TwilioConfig) *TwilioTransport {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioTransport{api: client.Api}
}

func (t *TwilioTransport) Send(ctx context.Context, msg Outbound) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(msg.From)
	params.SetBody(msg.Body)
	if msg.StatusCallback != "" {
		params.SetStatusCallback(msg.StatusCallback)
	}

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if resp == nil || resp.Sid == nil {
		return "", fmt.Errorf("%w: provider returned no message sid", ErrTransport)
	}
	return *resp.Sid, nil
}

func (t *TwilioTransport) DryRun() bool { return false }

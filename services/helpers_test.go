package services

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"groscales/config"
	"groscales/sms"
)

func newTestServices(t *testing.T, store *memStore, transport sms.Transport, fallback string) (*Services, *recordingPublisher) {
	t.Helper()
	return newTestServicesWithConfig(t, store, transport, &config.Config{
		DefaultPhoneRegion: "US",
		Twilio:             config.TwilioConfig{DefaultFromNumber: fallback},
	})
}

func newTestServicesWithConfig(t *testing.T, store *memStore, transport sms.Transport, cfg *config.Config) (*Services, *recordingPublisher) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	events := &recordingPublisher{}
	return New(cfg, store.repos(), transport, events, logger), events
}

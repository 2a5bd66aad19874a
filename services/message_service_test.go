package services

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groscales/config"
	"groscales/models"
	"groscales/sms"
	"groscales/sms/mocks"
	"groscales/utils"
)

func TestMessageService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("lead without phone creates nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		transport := mocks.NewMockTransport(ctrl)
		store := newMemStore()
		store.addLead(1, 1, "")
		svc, _ := newTestServices(t, store, transport, "+15550000001")

		_, err := svc.Messages.Send(ctx, 1, 1, "hello")
		assert.ErrorIs(t, err, ErrLeadHasNoPhone)
		assert.Empty(t, store.messageList())
		assert.Zero(t, store.writeCount())
	})

	t.Run("lead of another owner is not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := newMemStore()
		store.addLead(1, 2, "+15551234567")
		svc, _ := newTestServices(t, store, mocks.NewMockTransport(ctrl), "+15550000001")

		_, err := svc.Messages.Send(ctx, 1, 1, "hello")
		assert.ErrorIs(t, err, ErrLeadNotFound)
	})

	t.Run("no from number", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := newMemStore()
		store.addLead(1, 1, "+15551234567")
		svc, _ := newTestServices(t, store, mocks.NewMockTransport(ctrl), "")

		_, err := svc.Messages.Send(ctx, 1, 1, "hello")
		assert.ErrorIs(t, err, ErrNoFromNumber)
		assert.Zero(t, store.writeCount())
	})

	t.Run("empty body", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := newMemStore()
		svc, _ := newTestServices(t, store, mocks.NewMockTransport(ctrl), "")

		_, err := svc.Messages.Send(ctx, 1, 1, "  ")
		assert.ErrorIs(t, err, ErrEmptyBody)
	})

	t.Run("success marks SENT", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		transport := mocks.NewMockTransport(ctrl)
		transport.EXPECT().DryRun().Return(false).AnyTimes()
		transport.EXPECT().Send(gomock.Any(), sms.Outbound{
			From: "+15550000001",
			To:   "+15551234567",
			Body: "hello",
		}).Return("SM1", nil)

		store := newMemStore()
		store.addLead(1, 1, "+15551234567")
		svc, events := newTestServices(t, store, transport, "+15550000001")

		res, err := svc.Messages.Send(ctx, 1, 1, " hello ")
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, models.MessageStatusSent, res.Status)
		assert.NotZero(t, res.MessageID)
		assert.NotZero(t, res.ThreadID)
		assert.Len(t, events.events, 2)
	})

	t.Run("dry run marks DELIVERED", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		transport := mocks.NewMockTransport(ctrl)
		transport.EXPECT().DryRun().Return(true).AnyTimes()
		transport.EXPECT().Send(gomock.Any(), gomock.Any()).Return("DRY-1", nil)

		store := newMemStore()
		store.addLead(1, 1, "+15551234567")
		store.addNumber(1, 1, "+15550000009", true)
		svc, _ := newTestServices(t, store, transport, "+15550000001")

		res, err := svc.Messages.Send(ctx, 1, 1, "hello")
		require.NoError(t, err)
		assert.Equal(t, models.MessageStatusDelivered, res.Status)
		assert.Equal(t, "+15550000009", store.messageList()[0].FromNumber)
	})

	t.Run("transport failure returns the failed message", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		transport := mocks.NewMockTransport(ctrl)
		transport.EXPECT().DryRun().Return(false).AnyTimes()
		transport.EXPECT().Send(gomock.Any(), gomock.Any()).Return("", errors.New("invalid number"))

		store := newMemStore()
		store.addLead(1, 1, "+15551234567")
		svc, _ := newTestServices(t, store, transport, "+15550000001")

		res, err := svc.Messages.Send(ctx, 1, 1, "hello")
		assert.ErrorIs(t, err, ErrDeliveryFailed)
		require.NotNil(t, res)
		assert.False(t, res.OK)
		assert.Equal(t, models.MessageStatusFailed, res.Status)
		assert.Contains(t, res.Error, "invalid number")
		assert.NotZero(t, res.MessageID)
	})

	t.Run("queued row failure never reaches the transport", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		transport := mocks.NewMockTransport(ctrl)
		transport.EXPECT().DryRun().Return(false).AnyTimes()

		store := newMemStore()
		store.addLead(1, 1, "+15551234567")
		store.createErr = errors.New("db down")
		svc, _ := newTestServices(t, store, transport, "+15550000001")

		res, err := svc.Messages.Send(ctx, 1, 1, "hello")
		assert.Error(t, err)
		assert.Nil(t, res)
	})

	t.Run("failure callback before Send returns is kept", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		transport := mocks.NewMockTransport(ctrl)
		transport.EXPECT().DryRun().Return(false).AnyTimes()

		store := newMemStore()
		store.addLead(1, 1, "+15551234567")
		var svc *Services
		transport.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, out sms.Outbound) (string, error) {
				callback, err := url.Parse(out.StatusCallback)
				require.NoError(t, err)
				assert.Equal(t, "/webhooks/twilio/status", callback.Path)

				changed, err := svc.Status.Apply(ctx, StatusCallback{
					MessageSID:    "SM1",
					MessageStatus: "undelivered",
					ErrorCode:     "30003",
					MessageID:     utils.ParseUint(callback.Query().Get("mid")),
				})
				require.NoError(t, err)
				assert.True(t, changed)
				return "SM1", nil
			})

		svc, _ = newTestServicesWithConfig(t, store, transport, &config.Config{
			DefaultPhoneRegion: "US",
			PublicBaseURL:      "https://api.example.com",
			Twilio:             config.TwilioConfig{DefaultFromNumber: "+15550000001"},
		})

		res, err := svc.Messages.Send(ctx, 1, 1, "hello")
		assert.ErrorIs(t, err, ErrDeliveryFailed)
		require.NotNil(t, res)
		assert.False(t, res.OK)
		assert.Equal(t, models.MessageStatusFailed, res.Status)

		stored := store.messageList()
		require.Len(t, stored, 1)
		assert.Equal(t, models.MessageStatusFailed, stored[0].Status)
		require.NotNil(t, stored[0].ExternalSID)
		assert.Equal(t, "SM1", *stored[0].ExternalSID)
		require.NotNil(t, stored[0].Error)
		assert.Contains(t, *stored[0].Error, "30003")

		// the SID is stored now, so later callbacks resolve without the id
		changed, err := svc.Status.Apply(ctx, StatusCallback{MessageSID: "SM1", MessageStatus: "delivered"})
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("sent callback before Send returns stays SENT", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		transport := mocks.NewMockTransport(ctrl)
		transport.EXPECT().DryRun().Return(false).AnyTimes()

		store := newMemStore()
		store.addLead(1, 1, "+15551234567")
		var svc *Services
		transport.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, out sms.Outbound) (string, error) {
				callback, err := url.Parse(out.StatusCallback)
				require.NoError(t, err)
				_, err = svc.Status.Apply(ctx, StatusCallback{
					MessageSID:    "SM2",
					MessageStatus: "sent",
					MessageID:     utils.ParseUint(callback.Query().Get("mid")),
				})
				require.NoError(t, err)
				return "SM2", nil
			})

		svc, _ = newTestServicesWithConfig(t, store, transport, &config.Config{
			DefaultPhoneRegion: "US",
			PublicBaseURL:      "https://api.example.com",
			Twilio:             config.TwilioConfig{DefaultFromNumber: "+15550000001"},
		})

		res, err := svc.Messages.Send(ctx, 1, 1, "hello")
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, models.MessageStatusSent, res.Status)

		changed, err := svc.Status.Apply(ctx, StatusCallback{MessageSID: "SM2", MessageStatus: "delivered"})
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, models.MessageStatusDelivered, store.messageList()[0].Status)
	})
}

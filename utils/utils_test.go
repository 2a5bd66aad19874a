package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhoneHelpers(t *testing.T) {
	assert.Equal(t, "15551234567", DigitsOnly("+1 (555) 123-4567"))
	assert.Equal(t, "5551234567", LastDigits("+1 (555) 123-4567", 10))
	assert.Equal(t, "12345", LastDigits("123-45", 10))

	e164, err := NormalizeE164("(555) 123-4567", "US")
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", e164)

	_, err = NormalizeE164("not a number", "US")
	assert.Error(t, err)
}

func TestNewPhoneForms(t *testing.T) {
	forms := NewPhoneForms(" 5551234567 ", "US")
	assert.Equal(t, "5551234567", forms.Raw)
	assert.Equal(t, "+15551234567", forms.E164)
	assert.Equal(t, "5551234567", forms.Digits)
	assert.Equal(t, "5551234567", forms.Suffix)

	garbage := NewPhoneForms("abc", "US")
	assert.Empty(t, garbage.E164)
	assert.Empty(t, garbage.Digits)
}

func TestValidatePhoneNumber(t *testing.T) {
	assert.NoError(t, ValidatePhoneNumber("+14155552671", "US"))
	assert.Error(t, ValidatePhoneNumber("+1123", "US"))
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWTToken(42, "secret")
	require.NoError(t, err)

	claims, err := ParseJWTToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)

	_, err = ParseJWTToken(token, "other")
	assert.Error(t, err)
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		Email string `validate:"required,email"`
		Kind  string `validate:"oneof=A B"`
	}
	err := ValidateStruct(input{Email: "nope", Kind: "C"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "kind must be one of A B")

	assert.NoError(t, ValidateStruct(input{Email: "a@b.co", Kind: "A"}))
}

func TestLogError(t *testing.T) {
	logger, hook := test.NewNullLogger()
	LogError(logger, "send_failed", errors.New("boom"), map[string]interface{}{"lead_id": 7})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "send_failed", entry.Data["error_type"])
	assert.Equal(t, 7, entry.Data["lead_id"])
}

func TestThreadHub(t *testing.T) {
	hub := NewThreadHub(1)
	events, unsubscribe := hub.Subscribe(3)

	assert.Equal(t, 0, hub.Publish(4, ThreadEvent{Type: EventMessageCreated}))
	assert.Equal(t, 1, hub.Publish(3, ThreadEvent{Type: EventMessageCreated, ThreadID: 9}))
	// buffer full, dropped rather than blocking
	assert.Equal(t, 0, hub.Publish(3, ThreadEvent{Type: EventMessageUpdated}))

	select {
	case ev := <-events:
		assert.Equal(t, uint(9), ev.ThreadID)
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, hub.Subscribers(3))
	_, open := <-events
	assert.False(t, open)
}

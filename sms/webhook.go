package sms

import (
	"github.com/twilio/twilio-go/client"
	"github.com/twilio/twilio-go/twiml"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// EmptyResponse is the acknowledgement returned to every provider webhook.
func EmptyResponse() string {
	body, err := twiml.Messages(nil)
	if err != nil || body == "" {
		return emptyTwiML
	}
	return body
}

// SignatureValidator checks the X-Twilio-Signature header.
type SignatureValidator struct {
	validator client.RequestValidator
}

func NewSignatureValidator(authToken string) *SignatureValidator {
	return &SignatureValidator{validator: client.NewRequestValidator(authToken)}
}

// Valid reports whether signature matches the full public url and the
// posted form params.
func (v *SignatureValidator) Valid(url string, params map[string]string, signature string) bool {
	if signature == "" {
		return false
	}
	return v.validator.Validate(url, params, signature)
}

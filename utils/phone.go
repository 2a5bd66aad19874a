package utils

import (
	"errors"
	"strings"

	"github.com/ttacon/libphonenumber"
)

var ErrInvalidPhone = errors.New("phone number is not valid")

// SuffixLength is how many trailing digits identify a national number.
const SuffixLength = 10

// PhoneForms holds the lookup keys derived from one raw number.
type PhoneForms struct {
	Raw    string
	E164   string // empty when the number does not parse
	Digits string
	Suffix string // last SuffixLength digits, or all digits when shorter
}

// DigitsOnly strips everything but 0-9.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LastDigits returns the trailing n digits of s.
func LastDigits(s string, n int) string {
	digits := DigitsOnly(s)
	if len(digits) <= n {
		return digits
	}
	return digits[len(digits)-n:]
}

// NormalizeE164 formats phone as E.164, reading national numbers in
// defaultRegion.
func NormalizeE164(phone, defaultRegion string) (string, error) {
	p, err := libphonenumber.Parse(strings.TrimSpace(phone), defaultRegion)
	if err != nil {
		return "", err
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// ValidatePhoneNumber rejects numbers libphonenumber cannot parse or
// considers invalid for their region.
func ValidatePhoneNumber(phone, defaultRegion string) error {
	p, err := libphonenumber.Parse(strings.TrimSpace(phone), defaultRegion)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(p) {
		return ErrInvalidPhone
	}
	return nil
}

func NewPhoneForms(raw, defaultRegion string) PhoneForms {
	raw = strings.TrimSpace(raw)
	forms := PhoneForms{
		Raw:    raw,
		Digits: DigitsOnly(raw),
		Suffix: LastDigits(raw, SuffixLength),
	}
	if e164, err := NormalizeE164(raw, defaultRegion); err == nil {
		forms.E164 = e164
	}
	return forms
}

package services

import "errors"

var (
	ErrLeadNotFound   = errors.New("lead not found")
	ErrLeadHasNoPhone = errors.New("lead has no phone number")
	ErrNoFromNumber   = errors.New("no sending number configured")
	ErrDeliveryFailed = errors.New("sms delivery failed")
	ErrThreadNotFound = errors.New("thread not found")
	ErrEmptyBody      = errors.New("message body is empty")
)

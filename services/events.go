package services

import (
	"groscales/models"
	"groscales/utils"
)

// EventPublisher receives thread activity for realtime delivery.
type EventPublisher interface {
	Publish(ownerID uint, event utils.ThreadEvent) int
}

type noopPublisher struct{}

func (noopPublisher) Publish(uint, utils.ThreadEvent) int { return 0 }

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

func messageEvent(eventType string, msg *models.Message) utils.ThreadEvent {
	return utils.ThreadEvent{
		Type:     eventType,
		ThreadID: msg.ThreadID,
		Message:  msg,
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"groscales/models"
	"groscales/repository"
	"groscales/utils"
)

// StatusCallback is the provider's delivery report for one message.
type StatusCallback struct {
	MessageSID    string
	MessageStatus string
	ErrorCode     string
	ErrorMessage  string
	// MessageID comes from the callback URL and is used when the SID has
	// not been stored yet.
	MessageID uint
}

// MapProviderStatus translates provider statuses. Intermediate states such
// as queued or sending are not tracked.
func MapProviderStatus(status string) (models.MessageStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "sent":
		return models.MessageStatusSent, true
	case "delivered":
		return models.MessageStatusDelivered, true
	case "failed", "undelivered":
		return models.MessageStatusFailed, true
	}
	return "", false
}

type StatusService struct {
	messages repository.MessageRepository
	threads  repository.ThreadRepository
	events   EventPublisher
	logger   logrus.FieldLogger
}

func NewStatusService(
	messages repository.MessageRepository,
	threads repository.ThreadRepository,
	events EventPublisher,
	logger logrus.FieldLogger,
) *StatusService {
	return &StatusService{
		messages: messages,
		threads:  threads,
		events:   publisherOrNoop(events),
		logger:   logger.WithField("component", "status"),
	}
}

// Apply moves the message forward when the reported status is a legal
// transition. It reports whether anything changed.
func (s *StatusService) Apply(ctx context.Context, cb StatusCallback) (bool, error) {
	next, ok := MapProviderStatus(cb.MessageStatus)
	if !ok || (cb.MessageSID == "" && cb.MessageID == 0) {
		return false, nil
	}

	msg, err := s.lookup(ctx, cb)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find message for status callback: %w", err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"from":       msg.Status,
		"to":         next,
	})
	if msg.Status.IsTerminal() {
		log.Debug("Ignoring status callback for a final message")
		return false, nil
	}
	if !msg.Status.CanTransitionTo(next) {
		log.Debug("Ignoring out-of-order status callback")
		return false, nil
	}

	prev := msg.Status
	msg.Status = next
	if next == models.MessageStatusFailed {
		msg.Error = utils.Pointer(describeProviderError(cb))
	}
	applied, err := s.messages.UpdateDelivery(ctx, msg, prev)
	if err != nil {
		return false, fmt.Errorf("update message status: %w", err)
	}
	if !applied {
		log.Debug("Message changed while applying status callback")
		return false, nil
	}

	if thread, err := s.threads.Get(ctx, msg.ThreadID); err == nil {
		s.events.Publish(thread.OwnerID, messageEvent(utils.EventMessageUpdated, msg))
	}
	return true, nil
}

// lookup finds the message by provider SID, then by the id carried in the
// callback URL. The id is only trusted for an outbound message whose SID is
// unset or matches.
func (s *StatusService) lookup(ctx context.Context, cb StatusCallback) (*models.Message, error) {
	if cb.MessageSID != "" {
		msg, err := s.messages.FindByExternalSID(ctx, cb.MessageSID)
		if !errors.Is(err, repository.ErrNotFound) {
			return msg, err
		}
	}
	if cb.MessageID == 0 {
		return nil, repository.ErrNotFound
	}

	msg, err := s.messages.Get(ctx, cb.MessageID)
	if err != nil {
		return nil, err
	}
	if msg.Direction != models.DirectionOutbound {
		return nil, repository.ErrNotFound
	}
	if msg.ExternalSID != nil && *msg.ExternalSID != cb.MessageSID {
		return nil, repository.ErrNotFound
	}
	if msg.ExternalSID == nil && cb.MessageSID != "" {
		msg.ExternalSID = utils.Pointer(cb.MessageSID)
	}
	return msg, nil
}

func describeProviderError(cb StatusCallback) string {
	switch {
	case cb.ErrorCode != "" && cb.ErrorMessage != "":
		return cb.ErrorCode + ": " + cb.ErrorMessage
	case cb.ErrorCode != "":
		return "provider error " + cb.ErrorCode
	case cb.ErrorMessage != "":
		return cb.ErrorMessage
	}
	return "message " + strings.ToLower(cb.MessageStatus)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"groscales/models"
	"groscales/repository"
)

// SendResult is returned for every send that got as far as the transport.
type SendResult struct {
	OK        bool                 `json:"ok"`
	MessageID uint                 `json:"messageId"`
	ThreadID  uint                 `json:"threadId"`
	Status    models.MessageStatus `json:"status"`
	Error     string               `json:"error,omitempty"`
}

type MessageService struct {
	leads     repository.LeadRepository
	resolver  *ThreadResolver
	from      *FromNumberResolver
	deliverer *Deliverer
	logger    logrus.FieldLogger
}

func NewMessageService(
	leads repository.LeadRepository,
	resolver *ThreadResolver,
	from *FromNumberResolver,
	deliverer *Deliverer,
	logger logrus.FieldLogger,
) *MessageService {
	return &MessageService{
		leads:     leads,
		resolver:  resolver,
		from:      from,
		deliverer: deliverer,
		logger:    logger.WithField("component", "message_service"),
	}
}

// Send texts body to one of the owner's leads. On a transport failure the
// result is still returned, with ErrDeliveryFailed.
func (s *MessageService) Send(ctx context.Context, ownerID, leadID uint, body string) (*SendResult, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}

	lead, err := s.leads.GetForOwner(ctx, ownerID, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load lead: %w", err)
	}
	if !lead.HasPhone() {
		return nil, ErrLeadHasNoPhone
	}

	from, err := s.from.Resolve(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	thread, err := s.resolver.Resolve(ctx, lead)
	if err != nil {
		return nil, err
	}

	msg, err := s.deliverer.Deliver(ctx, thread, from, lead.Phone, body)
	if msg == nil {
		return nil, err
	}
	result := &SendResult{
		OK:        err == nil,
		MessageID: msg.ID,
		ThreadID:  thread.ID,
		Status:    msg.Status,
	}
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	return result, nil
}

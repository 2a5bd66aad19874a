package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"groscales/models"
	"groscales/repository"
	"groscales/utils"
)

// InboundSMS is the subset of the provider webhook the service needs.
type InboundSMS struct {
	From       string
	To         string
	Body       string
	MessageSID string
}

type InboundService struct {
	leads    repository.LeadRepository
	numbers  repository.PhoneNumberRepository
	messages repository.MessageRepository
	resolver *ThreadResolver
	events   EventPublisher
	region   string
	logger   logrus.FieldLogger
}

func NewInboundService(
	leads repository.LeadRepository,
	numbers repository.PhoneNumberRepository,
	messages repository.MessageRepository,
	resolver *ThreadResolver,
	events EventPublisher,
	region string,
	logger logrus.FieldLogger,
) *InboundService {
	return &InboundService{
		leads:    leads,
		numbers:  numbers,
		messages: messages,
		resolver: resolver,
		events:   publisherOrNoop(events),
		region:   region,
		logger:   logger.WithField("component", "inbound"),
	}
}

// Handle records an inbound text on the sender's thread. It returns a nil
// message when no lead matches the sender.
func (s *InboundService) Handle(ctx context.Context, in InboundSMS) (*models.Message, error) {
	from := utils.NewPhoneForms(in.From, s.region)
	if from.Raw == "" {
		return nil, nil
	}

	// Provider retries carry the same SID.
	if in.MessageSID != "" {
		existing, err := s.messages.FindByExternalSID(ctx, in.MessageSID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("check duplicate inbound: %w", err)
		}
	}

	scope, err := s.scopeFor(ctx, in.To)
	if err != nil {
		return nil, err
	}

	lead, err := s.matchLead(ctx, scope, from)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		s.logger.WithFields(logrus.Fields{
			"from": in.From,
			"to":   in.To,
		}).Info("Dropping inbound SMS from unknown sender")
		return nil, nil
	}

	thread, err := s.resolver.Resolve(ctx, lead)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ThreadID:   thread.ID,
		Direction:  models.DirectionInbound,
		Body:       in.Body,
		Status:     models.MessageStatusReceived,
		ToNumber:   in.To,
		FromNumber: in.From,
	}
	if in.MessageSID != "" {
		msg.ExternalSID = utils.Pointer(in.MessageSID)
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("store inbound message: %w", err)
	}
	s.events.Publish(thread.OwnerID, messageEvent(utils.EventMessageCreated, msg))

	utils.LogEvent(s.logger, "sms_received", map[string]interface{}{
		"lead_id":    lead.ID,
		"thread_id":  thread.ID,
		"message_id": msg.ID,
	})
	return msg, nil
}

// scopeFor limits the lead search to the owner of the receiving number
// when that number is known.
func (s *InboundService) scopeFor(ctx context.Context, to string) (repository.PhoneScope, error) {
	forms := utils.NewPhoneForms(to, s.region)
	if forms.Raw == "" {
		return repository.PhoneScope{}, nil
	}
	pn, err := s.numbers.FindByNumber(ctx, forms.Raw, forms.E164)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.PhoneScope{}, nil
	}
	if err != nil {
		return repository.PhoneScope{}, fmt.Errorf("lookup receiving number: %w", err)
	}
	owner := pn.OwnerID
	return repository.PhoneScope{OwnerID: &owner}, nil
}

// matchLead tries exact, then last-10-digit suffix, then digit-only
// matching. Each lookup returns the lowest lead id among its matches.
func (s *InboundService) matchLead(ctx context.Context, scope repository.PhoneScope, from utils.PhoneForms) (*models.Lead, error) {
	lookups := []func() (*models.Lead, error){
		func() (*models.Lead, error) {
			return s.leads.FindByPhone(ctx, scope, from.Raw, from.E164)
		},
		func() (*models.Lead, error) {
			if len(from.Suffix) < utils.SuffixLength {
				return nil, repository.ErrNotFound
			}
			return s.leads.FindByPhoneSuffix(ctx, scope, from.Suffix)
		},
		func() (*models.Lead, error) {
			return s.leads.FindByPhone(ctx, scope, from.Digits)
		},
	}

	for _, lookup := range lookups {
		lead, err := lookup()
		if err == nil {
			return lead, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("match inbound sender: %w", err)
		}
	}
	return nil, nil
}

package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"groscales/models"
	"groscales/repository"
	"groscales/sms"
	"groscales/utils"
)

// Deliverer owns the outbound message lifecycle: a QUEUED row is written
// before the transport is called and is always finalized afterwards.
type Deliverer struct {
	messages       repository.MessageRepository
	threads        repository.ThreadRepository
	transport      sms.Transport
	events         EventPublisher
	statusCallback string
	logger         logrus.FieldLogger
	now            func() time.Time
}

func NewDeliverer(
	messages repository.MessageRepository,
	threads repository.ThreadRepository,
	transport sms.Transport,
	events EventPublisher,
	statusCallback string,
	logger logrus.FieldLogger,
) *Deliverer {
	return &Deliverer{
		messages:       messages,
		threads:        threads,
		transport:      transport,
		events:         publisherOrNoop(events),
		statusCallback: statusCallback,
		logger:         logger.WithField("component", "deliverer"),
		now:            time.Now,
	}
}

// Deliver returns the persisted message together with ErrDeliveryFailed
// when the transport rejected it.
func (d *Deliverer) Deliver(ctx context.Context, thread *models.MessageThread, from, to, body string) (*models.Message, error) {
	msg := &models.Message{
		ThreadID:   thread.ID,
		Direction:  models.DirectionOutbound,
		Body:       body,
		Status:     models.MessageStatusQueued,
		ToNumber:   to,
		FromNumber: from,
	}
	if err := d.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create queued message: %w", err)
	}
	d.events.Publish(thread.OwnerID, messageEvent(utils.EventMessageCreated, msg))

	sid, sendErr := d.transport.Send(ctx, sms.Outbound{
		From:           from,
		To:             to,
		Body:           body,
		StatusCallback: d.callbackURL(msg.ID),
	})

	if sendErr != nil {
		msg.Status = models.MessageStatusFailed
		msg.Error = utils.Pointer(sendErr.Error())
	} else {
		msg.ExternalSID = utils.Pointer(sid)
		msg.Status = models.MessageStatusSent
		if d.transport.DryRun() {
			msg.Status = models.MessageStatusDelivered
		}
	}

	// Finalize even if the request context is gone so no row stays QUEUED.
	finalizeCtx := context.WithoutCancel(ctx)
	applied, err := d.messages.UpdateDelivery(finalizeCtx, msg, models.MessageStatusQueued)
	if err != nil {
		utils.LogError(d.logger, "message_finalize_failed", err, map[string]interface{}{
			"message_id": msg.ID,
			"status":     msg.Status,
		})
		return msg, fmt.Errorf("finalize message %d: %w", msg.ID, err)
	}
	if !applied {
		// A status callback for this message arrived before Send returned.
		stored, err := d.reconcile(finalizeCtx, msg.ID, sid)
		if err != nil {
			return msg, fmt.Errorf("finalize message %d: %w", msg.ID, err)
		}
		msg = stored
	}
	if err := d.threads.Touch(finalizeCtx, thread.ID, d.now()); err != nil {
		d.logger.WithError(err).WithField("thread_id", thread.ID).Warn("Failed to touch thread")
	}
	d.events.Publish(thread.OwnerID, messageEvent(utils.EventMessageUpdated, msg))

	if sendErr != nil {
		d.logger.WithFields(logrus.Fields{
			"message_id": msg.ID,
			"thread_id":  thread.ID,
			"to":         to,
		}).WithError(sendErr).Warn("SMS delivery failed")
		return msg, fmt.Errorf("%w: %v", ErrDeliveryFailed, sendErr)
	}
	if msg.Status == models.MessageStatusFailed {
		reason := "provider reported failure"
		if msg.Error != nil {
			reason = *msg.Error
		}
		return msg, fmt.Errorf("%w: %s", ErrDeliveryFailed, reason)
	}
	return msg, nil
}

// reconcile keeps the status a callback already stored and records the
// provider SID on it.
func (d *Deliverer) reconcile(ctx context.Context, id uint, sid string) (*models.Message, error) {
	if sid != "" {
		if err := d.messages.SetExternalSID(ctx, id, sid); err != nil {
			return nil, err
		}
	}
	stored, err := d.messages.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.logger.WithFields(logrus.Fields{
		"message_id": id,
		"status":     stored.Status,
	}).Debug("Message finalized by an earlier status callback")
	return stored, nil
}

// callbackURL carries the message id so a callback that beats the SID
// write can still find its row.
func (d *Deliverer) callbackURL(messageID uint) string {
	if d.statusCallback == "" {
		return ""
	}
	return d.statusCallback + "?mid=" + strconv.FormatUint(uint64(messageID), 10)
}

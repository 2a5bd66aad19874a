package models

import (
	"time"

	"gorm.io/gorm"
)

type MessageDirection string

const (
	DirectionInbound  MessageDirection = "INBOUND"
	DirectionOutbound MessageDirection = "OUTBOUND"
)

type MessageStatus string

const (
	MessageStatusQueued    MessageStatus = "QUEUED"
	MessageStatusSent      MessageStatus = "SENT"
	MessageStatusDelivered MessageStatus = "DELIVERED"
	MessageStatusFailed    MessageStatus = "FAILED"
	MessageStatusReceived  MessageStatus = "RECEIVED"
)

// IsTerminal reports whether no further status change is accepted.
func (s MessageStatus) IsTerminal() bool {
	switch s {
	case MessageStatusDelivered, MessageStatusFailed, MessageStatusReceived:
		return true
	}
	return false
}

// CanTransitionTo encodes the delivery lifecycle:
// QUEUED -> SENT -> DELIVERED, QUEUED -> DELIVERED (dry-run),
// QUEUED -> FAILED and SENT -> FAILED (provider reports undelivered).
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	switch s {
	case MessageStatusQueued:
		return next == MessageStatusSent || next == MessageStatusDelivered || next == MessageStatusFailed
	case MessageStatusSent:
		return next == MessageStatusDelivered || next == MessageStatusFailed
	}
	return false
}

// MessageThread is the single conversation between an owner and a lead.
// (owner_id, lead_id) is unique so resolution can be one upsert.
type MessageThread struct {
	gorm.Model
	OwnerID       uint      `gorm:"not null;uniqueIndex:idx_thread_owner_lead" json:"owner_id"`
	LeadID        uint      `gorm:"not null;uniqueIndex:idx_thread_owner_lead" json:"lead_id"`
	LastMessageAt time.Time `gorm:"not null;index" json:"last_message_at"`

	// Relations
	Lead     *Lead     `gorm:"foreignKey:LeadID" json:"lead,omitempty"`
	Messages []Message `gorm:"foreignKey:ThreadID" json:"messages,omitempty"`
}

// Message is one inbound or outbound text in a thread
type Message struct {
	gorm.Model
	ThreadID uint `gorm:"not null;index" json:"thread_id"`

	Direction   MessageDirection `gorm:"type:varchar(16);not null" json:"direction"`
	Body        string           `gorm:"type:text;not null" json:"body"`
	Status      MessageStatus    `gorm:"type:varchar(16);not null;index" json:"status"`
	ToNumber    string           `json:"to_number"`
	FromNumber  string           `json:"from_number"`
	ExternalSID *string          `gorm:"column:external_sid;index" json:"external_sid,omitempty"`
	Error       *string          `gorm:"type:text" json:"error,omitempty"`
}

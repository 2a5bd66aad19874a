package repository

import (
	"context"
	"errors"
	"time"

	"groscales/models"
)

// ErrNotFound is returned by every lookup that matches no row.
var ErrNotFound = errors.New("record not found")

// PhoneScope restricts phone lookups to one owner. Nil means all owners.
type PhoneScope struct {
	OwnerID *uint
}

type LeadFilter struct {
	Search string
	Page   int
	Limit  int
}

type LeadRepository interface {
	Get(ctx context.Context, id uint) (*models.Lead, error)
	GetForOwner(ctx context.Context, ownerID, id uint) (*models.Lead, error)
	List(ctx context.Context, ownerID uint, filter LeadFilter) ([]models.Lead, int64, error)
	Create(ctx context.Context, lead *models.Lead) error
	Update(ctx context.Context, lead *models.Lead) error
	Delete(ctx context.Context, ownerID, id uint) error
	// FindByPhone returns the lowest-id lead whose stored phone equals one of phones.
	FindByPhone(ctx context.Context, scope PhoneScope, phones ...string) (*models.Lead, error)
	// FindByPhoneSuffix returns the lowest-id lead whose stored phone ends with suffix.
	FindByPhoneSuffix(ctx context.Context, scope PhoneScope, suffix string) (*models.Lead, error)
}

type WorkflowRepository interface {
	// GetWithSteps loads a workflow and its steps ordered ascending.
	GetWithSteps(ctx context.Context, id uint) (*models.Workflow, error)
	// GetForOwner returns the workflow if it is owned by ownerID or global.
	GetForOwner(ctx context.Context, ownerID, id uint) (*models.Workflow, error)
	List(ctx context.Context, ownerID uint) ([]models.Workflow, error)
	Create(ctx context.Context, wf *models.Workflow) error
	Update(ctx context.Context, wf *models.Workflow) error
	Delete(ctx context.Context, ownerID, id uint) error
	// ReplaceSteps deletes and recreates the step list in one transaction.
	ReplaceSteps(ctx context.Context, workflowID uint, steps []models.WorkflowStep) error
}

type ThreadRepository interface {
	// Upsert returns the (owner, lead) thread, creating it if needed, and
	// sets last_message_at to at.
	Upsert(ctx context.Context, ownerID, leadID uint, at time.Time) (*models.MessageThread, error)
	Touch(ctx context.Context, threadID uint, at time.Time) error
	Get(ctx context.Context, id uint) (*models.MessageThread, error)
	GetForOwner(ctx context.Context, ownerID, id uint) (*models.MessageThread, error)
	List(ctx context.Context, ownerID uint, page, limit int) ([]models.MessageThread, int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	Get(ctx context.Context, id uint) (*models.Message, error)
	// UpdateDelivery persists status, external SID and error text only while
	// the stored status still equals from. It reports whether the row changed.
	UpdateDelivery(ctx context.Context, msg *models.Message, from models.MessageStatus) (bool, error)
	// SetExternalSID records sid unless the message already has one.
	SetExternalSID(ctx context.Context, id uint, sid string) error
	FindByExternalSID(ctx context.Context, sid string) (*models.Message, error)
	// ListByThread returns the newest limit messages, oldest first.
	ListByThread(ctx context.Context, threadID uint, limit int) ([]models.Message, error)
}

type PhoneNumberRepository interface {
	DefaultForOwner(ctx context.Context, ownerID uint) (*models.PhoneNumber, error)
	FindByNumber(ctx context.Context, numbers ...string) (*models.PhoneNumber, error)
	List(ctx context.Context, ownerID uint) ([]models.PhoneNumber, error)
	Create(ctx context.Context, pn *models.PhoneNumber) error
	SetDefault(ctx context.Context, ownerID, id uint) error
}

type UserRepository interface {
	Get(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// Repositories bundles the stores so they can be built once and injected.
type Repositories struct {
	Leads        LeadRepository
	Workflows    WorkflowRepository
	Threads      ThreadRepository
	Messages     MessageRepository
	PhoneNumbers PhoneNumberRepository
	Users        UserRepository
}

package repository

import (
	"errors"

	"gorm.io/gorm"
)

// NewGormRepositories wires every store onto one connection pool.
func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Leads:        NewLeadRepository(db),
		Workflows:    NewWorkflowRepository(db),
		Threads:      NewThreadRepository(db),
		Messages:     NewMessageRepository(db),
		PhoneNumbers: NewPhoneNumberRepository(db),
		Users:        NewUserRepository(db),
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func paginate(page, limit int) (offset, size int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return (page - 1) * limit, limit
}

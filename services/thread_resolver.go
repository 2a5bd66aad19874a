package services

import (
	"context"
	"fmt"
	"time"

	"groscales/models"
	"groscales/repository"
)

// ThreadResolver returns the one thread for a lead's (owner, lead) pair.
type ThreadResolver struct {
	threads repository.ThreadRepository
	now     func() time.Time
}

func NewThreadResolver(threads repository.ThreadRepository) *ThreadResolver {
	return &ThreadResolver{threads: threads, now: time.Now}
}

func (r *ThreadResolver) Resolve(ctx context.Context, lead *models.Lead) (*models.MessageThread, error) {
	thread, err := r.threads.Upsert(ctx, lead.OwnerID, lead.ID, r.now())
	if err != nil {
		return nil, fmt.Errorf("resolve thread for lead %d: %w", lead.ID, err)
	}
	return thread, nil
}

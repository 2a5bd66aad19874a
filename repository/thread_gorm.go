package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"groscales/models"
)

type threadRepository struct {
	db *gorm.DB
}

func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

// Upsert is a single INSERT ... ON CONFLICT (owner_id, lead_id) so two
// concurrent resolutions for the same lead land on the same row.
func (r *threadRepository) Upsert(ctx context.Context, ownerID, leadID uint, at time.Time) (*models.MessageThread, error) {
	thread := &models.MessageThread{
		OwnerID:       ownerID,
		LeadID:        leadID,
		LastMessageAt: at,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "lead_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_message_at", "updated_at"}),
		}).
		Create(thread).Error
	if err != nil {
		return nil, err
	}
	return thread, nil
}

func (r *threadRepository) Touch(ctx context.Context, threadID uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.MessageThread{}).
		Where("id = ?", threadID).
		Update("last_message_at", at).Error
}

func (r *threadRepository) Get(ctx context.Context, id uint) (*models.MessageThread, error) {
	var thread models.MessageThread
	if err := r.db.WithContext(ctx).First(&thread, id).Error; err != nil {
		return nil, translate(err)
	}
	return &thread, nil
}

func (r *threadRepository) GetForOwner(ctx context.Context, ownerID, id uint) (*models.MessageThread, error) {
	var thread models.MessageThread
	err := r.db.WithContext(ctx).
		Preload("Lead").
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&thread).Error
	if err != nil {
		return nil, translate(err)
	}
	return &thread, nil
}

func (r *threadRepository) List(ctx context.Context, ownerID uint, page, limit int) ([]models.MessageThread, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MessageThread{}).Where("owner_id = ?", ownerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, size := paginate(page, limit)
	var threads []models.MessageThread
	err := query.
		Preload("Lead").
		Order("last_message_at DESC").
		Offset(offset).
		Limit(size).
		Find(&threads).Error
	if err != nil {
		return nil, 0, err
	}
	return threads, total, nil
}

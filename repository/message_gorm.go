package repository

import (
	"context"

	"gorm.io/gorm"

	"groscales/models"
)

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) Get(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

func (r *messageRepository) UpdateDelivery(ctx context.Context, msg *models.Message, from models.MessageStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ?", msg.ID).
		Where("status = ?", from).
		Updates(map[string]interface{}{
			"status":       msg.Status,
			"external_sid": msg.ExternalSID,
			"error":        msg.Error,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *messageRepository) SetExternalSID(ctx context.Context, id uint, sid string) error {
	return r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ?", id).
		Where("external_sid IS NULL").
		Update("external_sid", sid).Error
}

func (r *messageRepository) FindByExternalSID(ctx context.Context, sid string) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).Where("external_sid = ?", sid).First(&msg).Error; err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

func (r *messageRepository) ListByThread(ctx context.Context, threadID uint, limit int) ([]models.Message, error) {
	if limit < 1 {
		limit = 50
	}
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

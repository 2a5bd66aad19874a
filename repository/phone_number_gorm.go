package repository

import (
	"context"

	"gorm.io/gorm"

	"groscales/models"
)

type phoneNumberRepository struct {
	db *gorm.DB
}

func NewPhoneNumberRepository(db *gorm.DB) PhoneNumberRepository {
	return &phoneNumberRepository{db: db}
}

func (r *phoneNumberRepository) DefaultForOwner(ctx context.Context, ownerID uint) (*models.PhoneNumber, error) {
	var pn models.PhoneNumber
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_default = ?", ownerID, true).
		First(&pn).Error
	if err != nil {
		return nil, translate(err)
	}
	return &pn, nil
}

func (r *phoneNumberRepository) FindByNumber(ctx context.Context, numbers ...string) (*models.PhoneNumber, error) {
	var candidates []string
	for _, n := range numbers {
		if n != "" {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}

	var pn models.PhoneNumber
	err := r.db.WithContext(ctx).
		Where("number IN ?", candidates).
		Order("id ASC").
		First(&pn).Error
	if err != nil {
		return nil, translate(err)
	}
	return &pn, nil
}

func (r *phoneNumberRepository) List(ctx context.Context, ownerID uint) ([]models.PhoneNumber, error) {
	var numbers []models.PhoneNumber
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("is_default DESC, id ASC").
		Find(&numbers).Error
	return numbers, err
}

func (r *phoneNumberRepository) Create(ctx context.Context, pn *models.PhoneNumber) error {
	if !pn.IsDefault {
		return r.db.WithContext(ctx).Create(pn).Error
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearDefault(tx, pn.OwnerID); err != nil {
			return err
		}
		return tx.Create(pn).Error
	})
}

func (r *phoneNumberRepository) SetDefault(ctx context.Context, ownerID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pn models.PhoneNumber
		if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&pn).Error; err != nil {
			return translate(err)
		}
		if err := clearDefault(tx, ownerID); err != nil {
			return err
		}
		return tx.Model(&pn).Update("is_default", true).Error
	})
}

func clearDefault(tx *gorm.DB, ownerID uint) error {
	return tx.Model(&models.PhoneNumber{}).
		Where("owner_id = ? AND is_default = ?", ownerID, true).
		Update("is_default", false).Error
}

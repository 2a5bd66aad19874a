package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"groscales/models"
)

type leadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) Get(ctx context.Context, id uint) (*models.Lead, error) {
	var lead models.Lead
	if err := r.db.WithContext(ctx).First(&lead, id).Error; err != nil {
		return nil, translate(err)
	}
	return &lead, nil
}

func (r *leadRepository) GetForOwner(ctx context.Context, ownerID, id uint) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&lead).Error
	if err != nil {
		return nil, translate(err)
	}
	return &lead, nil
}

func (r *leadRepository) List(ctx context.Context, ownerID uint, filter LeadFilter) ([]models.Lead, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Lead{}).Where("owner_id = ?", ownerID)
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + s + "%"
		query = query.Where("name ILIKE ? OR phone LIKE ? OR email ILIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := paginate(filter.Page, filter.Limit)
	var leads []models.Lead
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&leads).Error; err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *leadRepository) Update(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).
		Model(lead).
		Select("Name", "Phone", "Email", "Company", "Source").
		Updates(lead).Error
}

func (r *leadRepository) Delete(ctx context.Context, ownerID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Lead{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *leadRepository) FindByPhone(ctx context.Context, scope PhoneScope, phones ...string) (*models.Lead, error) {
	candidates := make([]string, 0, len(phones))
	for _, p := range phones {
		if p != "" {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}

	var lead models.Lead
	err := r.scoped(ctx, scope).
		Where("phone IN ?", candidates).
		Order("id ASC").
		First(&lead).Error
	if err != nil {
		return nil, translate(err)
	}
	return &lead, nil
}

func (r *leadRepository) FindByPhoneSuffix(ctx context.Context, scope PhoneScope, suffix string) (*models.Lead, error) {
	if suffix == "" {
		return nil, ErrNotFound
	}

	var lead models.Lead
	err := r.scoped(ctx, scope).
		Where("phone LIKE ?", "%"+suffix).
		Order("id ASC").
		First(&lead).Error
	if err != nil {
		return nil, translate(err)
	}
	return &lead, nil
}

func (r *leadRepository) scoped(ctx context.Context, scope PhoneScope) *gorm.DB {
	query := r.db.WithContext(ctx)
	if scope.OwnerID != nil {
		query = query.Where("owner_id = ?", *scope.OwnerID)
	}
	return query
}

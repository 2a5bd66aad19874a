package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"groscales/models"
)

type workflowRepository struct {
	db *gorm.DB
}

func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

func orderedSteps(db *gorm.DB) *gorm.DB {
	return db.Order("step_order ASC, id ASC")
}

func (r *workflowRepository) GetWithSteps(ctx context.Context, id uint) (*models.Workflow, error) {
	var wf models.Workflow
	err := r.db.WithContext(ctx).
		Preload("Steps", orderedSteps).
		First(&wf, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &wf, nil
}

func (r *workflowRepository) GetForOwner(ctx context.Context, ownerID, id uint) (*models.Workflow, error) {
	var wf models.Workflow
	err := r.db.WithContext(ctx).
		Preload("Steps", orderedSteps).
		Where("id = ? AND (owner_id = ? OR owner_id IS NULL)", id, ownerID).
		First(&wf).Error
	if err != nil {
		return nil, translate(err)
	}
	return &wf, nil
}

func (r *workflowRepository) List(ctx context.Context, ownerID uint) ([]models.Workflow, error) {
	var workflows []models.Workflow
	err := r.db.WithContext(ctx).
		Preload("Steps", orderedSteps).
		Where("owner_id = ? OR owner_id IS NULL", ownerID).
		Order("id DESC").
		Find(&workflows).Error
	return workflows, err
}

func (r *workflowRepository) Create(ctx context.Context, wf *models.Workflow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := wf.Steps
		if err := tx.Omit(clause.Associations).Create(wf).Error; err != nil {
			return fmt.Errorf("create workflow: %w", err)
		}
		if len(steps) == 0 {
			return nil
		}
		for i := range steps {
			steps[i].WorkflowID = wf.ID
		}
		if err := tx.Create(&steps).Error; err != nil {
			return fmt.Errorf("create workflow steps: %w", err)
		}
		wf.Steps = steps
		return nil
	})
}

func (r *workflowRepository) Update(ctx context.Context, wf *models.Workflow) error {
	return r.db.WithContext(ctx).
		Model(wf).
		Select("Name", "Status").
		Updates(wf).Error
}

func (r *workflowRepository) Delete(ctx context.Context, ownerID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Workflow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Unscoped().Where("workflow_id = ?", id).Delete(&models.WorkflowStep{}).Error
	})
}

func (r *workflowRepository) ReplaceSteps(ctx context.Context, workflowID uint, steps []models.WorkflowStep) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Hard delete so the (workflow_id, step_order) unique index is free again.
		if err := tx.Unscoped().Where("workflow_id = ?", workflowID).Delete(&models.WorkflowStep{}).Error; err != nil {
			return fmt.Errorf("delete steps: %w", err)
		}
		if len(steps) == 0 {
			return nil
		}
		for i := range steps {
			steps[i].ID = 0
			steps[i].WorkflowID = workflowID
			steps[i].Order = i
		}
		if err := tx.Create(&steps).Error; err != nil {
			return fmt.Errorf("recreate steps: %w", err)
		}
		return nil
	})
}

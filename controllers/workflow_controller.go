package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"groscales/middleware"
	"groscales/models"
	"groscales/repository"
	"groscales/utils"
	"groscales/worker"
)

// RunQueue accepts background workflow runs.
type RunQueue interface {
	Enqueue(job worker.RunJob) error
}

type WorkflowInput struct {
	Name   string             `json:"name" validate:"required,max=200"`
	Status string             `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE PAUSED"`
	Steps  []models.StepInput `json:"steps" validate:"dive"`
}

type WorkflowController struct {
	workflows repository.WorkflowRepository
	leads     repository.LeadRepository
	queue     RunQueue
	logger    logrus.FieldLogger
}

func NewWorkflowController(
	workflows repository.WorkflowRepository,
	leads repository.LeadRepository,
	queue RunQueue,
	logger logrus.FieldLogger,
) *WorkflowController {
	return &WorkflowController{
		workflows: workflows,
		leads:     leads,
		queue:     queue,
		logger:    logger.WithField("component", "workflows"),
	}
}

func (wc *WorkflowController) CreateWorkflow(c *fiber.Ctx) error {
	var input WorkflowInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	steps, err := models.BuildSteps(0, input.Steps)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid steps", err)
	}

	ownerID := middleware.CurrentUserID(c)
	wf := &models.Workflow{
		OwnerID: &ownerID,
		Name:    strings.TrimSpace(input.Name),
		Status:  models.WorkflowStatusDraft,
		Steps:   steps,
	}
	if input.Status != "" {
		wf.Status = models.WorkflowStatus(input.Status)
	}

	if err := wc.workflows.Create(c.UserContext(), wf); err != nil {
		return respondError(c, wc.logger, "Failed to create workflow", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(wf))
}

func (wc *WorkflowController) GetWorkflows(c *fiber.Ctx) error {
	workflows, err := wc.workflows.List(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return respondError(c, wc.logger, "Failed to fetch workflows", err)
	}
	return c.JSON(utils.SuccessResponse(workflows))
}

func (wc *WorkflowController) GetWorkflow(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid workflow ID", nil)
	}
	wf, err := wc.workflows.GetForOwner(c.UserContext(), middleware.CurrentUserID(c), id)
	if err != nil {
		return respondError(c, wc.logger, "Failed to fetch workflow", err)
	}
	return c.JSON(utils.SuccessResponse(wf))
}

func (wc *WorkflowController) UpdateWorkflow(c *fiber.Ctx) error {
	var input struct {
		Name   *string `json:"name" validate:"omitempty,min=1,max=200"`
		Status *string `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE PAUSED"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	wf, ok, err := wc.ownedWorkflow(c)
	if !ok {
		return err
	}
	if input.Name != nil {
		wf.Name = strings.TrimSpace(*input.Name)
	}
	if input.Status != nil {
		wf.Status = models.WorkflowStatus(*input.Status)
	}

	if err := wc.workflows.Update(c.UserContext(), wf); err != nil {
		return respondError(c, wc.logger, "Failed to update workflow", err)
	}
	return c.JSON(utils.SuccessResponse(wf))
}

func (wc *WorkflowController) DeleteWorkflow(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid workflow ID", nil)
	}
	if err := wc.workflows.Delete(c.UserContext(), middleware.CurrentUserID(c), id); err != nil {
		return respondError(c, wc.logger, "Failed to delete workflow", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Workflow deleted successfully",
	})
}

// ReplaceSteps swaps the whole step list; order comes from array position.
func (wc *WorkflowController) ReplaceSteps(c *fiber.Ctx) error {
	var input struct {
		Steps []models.StepInput `json:"steps" validate:"dive"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	wf, ok, err := wc.ownedWorkflow(c)
	if !ok {
		return err
	}

	steps, err := models.BuildSteps(wf.ID, input.Steps)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid steps", err)
	}
	if err := wc.workflows.ReplaceSteps(c.UserContext(), wf.ID, steps); err != nil {
		return respondError(c, wc.logger, "Failed to replace steps", err)
	}

	wf.Steps = steps
	return c.JSON(utils.SuccessResponse(wf))
}

// RunWorkflow queues a run against one lead and answers immediately.
func (wc *WorkflowController) RunWorkflow(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid workflow ID", nil)
	}

	var input struct {
		LeadID uint `json:"leadId" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	ownerID := middleware.CurrentUserID(c)
	if _, err := wc.workflows.GetForOwner(c.UserContext(), ownerID, id); err != nil {
		return respondError(c, wc.logger, "Failed to fetch workflow", err)
	}
	if _, err := wc.leads.GetForOwner(c.UserContext(), ownerID, input.LeadID); err != nil {
		return respondError(c, wc.logger, "Failed to fetch lead", err)
	}

	if err := wc.queue.Enqueue(worker.RunJob{LeadID: input.LeadID, WorkflowID: id}); err != nil {
		return respondError(c, wc.logger, "Failed to queue workflow run", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success":    true,
		"queued":     true,
		"leadId":     input.LeadID,
		"workflowId": id,
	})
}

// ownedWorkflow loads a workflow the caller may modify. Global workflows
// are readable by everyone but editable by nobody through the API.
func (wc *WorkflowController) ownedWorkflow(c *fiber.Ctx) (*models.Workflow, bool, error) {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return nil, false, utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid workflow ID", nil)
	}
	ownerID := middleware.CurrentUserID(c)
	wf, err := wc.workflows.GetForOwner(c.UserContext(), ownerID, id)
	if err != nil {
		return nil, false, respondError(c, wc.logger, "Failed to fetch workflow", err)
	}
	if wf.OwnerID == nil || *wf.OwnerID != ownerID {
		return nil, false, respondError(c, wc.logger, "Failed to fetch workflow", repository.ErrNotFound)
	}
	return wf, true, nil
}


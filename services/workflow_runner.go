package services

import (
	"context"
	"errors"
	"sort"

	"github.com/sirupsen/logrus"

	"groscales/models"
	"groscales/repository"
	"groscales/utils"
)

const (
	ReasonCompleted          = "completed"
	ReasonWorkflowNotFound   = "workflow_not_found"
	ReasonNoSteps            = "no_steps"
	ReasonLeadNotFound       = "lead_not_found"
	ReasonLeadHasNoPhone     = "lead_has_no_phone"
	ReasonWorkflowNotVisible = "workflow_not_visible"
	ReasonNoFromNumber       = "no_from_number"
	ReasonLoadFailed         = "load_failed"
	ReasonCancelled          = "cancelled"
)

// RunSummary is the outcome of one workflow run against one lead.
type RunSummary struct {
	LeadID     uint   `json:"leadId"`
	WorkflowID uint   `json:"workflowId"`
	ThreadID   uint   `json:"threadId,omitempty"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
	Waits      int    `json:"waits"`
	Reason     string `json:"reason"`
}

// Executed is false when the run stopped before touching any step.
func (s RunSummary) Executed() bool {
	return s.Reason == ReasonCompleted || s.Reason == ReasonCancelled
}

type WorkflowRunner struct {
	workflows repository.WorkflowRepository
	leads     repository.LeadRepository
	resolver  *ThreadResolver
	from      *FromNumberResolver
	deliverer *Deliverer
	logger    logrus.FieldLogger
}

func NewWorkflowRunner(
	workflows repository.WorkflowRepository,
	leads repository.LeadRepository,
	resolver *ThreadResolver,
	from *FromNumberResolver,
	deliverer *Deliverer,
	logger logrus.FieldLogger,
) *WorkflowRunner {
	return &WorkflowRunner{
		workflows: workflows,
		leads:     leads,
		resolver:  resolver,
		from:      from,
		deliverer: deliverer,
		logger:    logger.WithField("component", "workflow_runner"),
	}
}

// Run executes the workflow's steps in order against the lead. Per-step
// delivery failures are recorded on the message and do not stop the run.
func (r *WorkflowRunner) Run(ctx context.Context, leadID, workflowID uint) RunSummary {
	summary := r.run(ctx, leadID, workflowID)

	log := r.logger.WithFields(logrus.Fields{
		"lead_id":     leadID,
		"workflow_id": workflowID,
		"thread_id":   summary.ThreadID,
		"sent":        summary.Sent,
		"failed":      summary.Failed,
		"skipped":     summary.Skipped,
		"waits":       summary.Waits,
		"reason":      summary.Reason,
	})
	if summary.Executed() {
		log.Info("Workflow run finished")
	} else {
		log.Debug("Workflow run skipped")
	}
	return summary
}

func (r *WorkflowRunner) run(ctx context.Context, leadID, workflowID uint) RunSummary {
	summary := RunSummary{LeadID: leadID, WorkflowID: workflowID}

	wf, err := r.workflows.GetWithSteps(ctx, workflowID)
	if err != nil {
		summary.Reason = r.loadReason(err, ReasonWorkflowNotFound, "workflow", workflowID)
		return summary
	}
	if len(wf.Steps) == 0 {
		summary.Reason = ReasonNoSteps
		return summary
	}

	lead, err := r.leads.Get(ctx, leadID)
	if err != nil {
		summary.Reason = r.loadReason(err, ReasonLeadNotFound, "lead", leadID)
		return summary
	}
	if !lead.HasPhone() {
		summary.Reason = ReasonLeadHasNoPhone
		return summary
	}
	if !wf.VisibleTo(lead.OwnerID) {
		summary.Reason = ReasonWorkflowNotVisible
		return summary
	}

	from, err := r.from.Resolve(ctx, lead.OwnerID)
	if err != nil {
		summary.Reason = r.loadReason(err, ReasonNoFromNumber, "from_number", lead.OwnerID)
		return summary
	}

	thread, err := r.resolver.Resolve(ctx, lead)
	if err != nil {
		summary.Reason = r.loadReason(err, ReasonLoadFailed, "thread", lead.ID)
		return summary
	}
	summary.ThreadID = thread.ID

	steps := append([]models.WorkflowStep(nil), wf.Steps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })

	for _, step := range steps {
		if ctx.Err() != nil {
			summary.Reason = ReasonCancelled
			return summary
		}

		switch step.Type {
		case models.StepTypeSendText:
			body := step.Text()
			if body == "" {
				summary.Skipped++
				continue
			}
			if _, err := r.deliverer.Deliver(ctx, thread, from, lead.Phone, body); err != nil {
				summary.Failed++
				continue
			}
			summary.Sent++
		case models.StepTypeWait:
			summary.Waits++
		default:
			summary.Skipped++
			r.logger.WithFields(logrus.Fields{
				"workflow_id": wf.ID,
				"step_id":     step.ID,
				"type":        step.Type,
			}).Warn("Skipping unknown step type")
		}
	}

	summary.Reason = ReasonCompleted
	return summary
}

func (r *WorkflowRunner) loadReason(err error, notFound, what string, id uint) string {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrNoFromNumber) {
		return notFound
	}
	utils.LogError(r.logger, "workflow_run_load_failed", err, map[string]interface{}{
		"entity": what,
		"id":     id,
	})
	return ReasonLoadFailed
}

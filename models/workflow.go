package models

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type WorkflowStatus string

const (
	WorkflowStatusDraft  WorkflowStatus = "DRAFT"
	WorkflowStatusActive WorkflowStatus = "ACTIVE"
	WorkflowStatusPaused WorkflowStatus = "PAUSED"
)

func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowStatusDraft, WorkflowStatusActive, WorkflowStatusPaused:
		return true
	}
	return false
}

type StepType string

const (
	StepTypeSendText StepType = "SEND_TEXT"
	// StepTypeWait is stored and ordered like any other step but the runner
	// does not delay on it. Deferred resumption would need a persisted
	// resume-at time and a scheduler that revisits pending runs.
	StepTypeWait StepType = "WAIT"
)

// Workflow represents an ordered sequence of steps executed against a lead
type Workflow struct {
	gorm.Model
	OwnerID *uint `gorm:"index" json:"owner_id"` // nil for global workflows

	Name   string         `gorm:"not null" json:"name"`
	Status WorkflowStatus `gorm:"type:varchar(16);default:'DRAFT'" json:"status"`

	// Relations
	Steps []WorkflowStep `gorm:"foreignKey:WorkflowID" json:"steps,omitempty"`
}

// VisibleTo reports whether ownerID may run or read the workflow.
func (w *Workflow) VisibleTo(ownerID uint) bool {
	return w.OwnerID == nil || *w.OwnerID == ownerID
}

// WorkflowStep represents one unit of a workflow
type WorkflowStep struct {
	gorm.Model
	WorkflowID uint `gorm:"not null;uniqueIndex:idx_workflow_step_order" json:"workflow_id"`

	Order    int      `gorm:"column:step_order;not null;uniqueIndex:idx_workflow_step_order" json:"order"`
	Type     StepType `gorm:"type:varchar(16);not null" json:"type"`
	TextBody *string  `gorm:"type:text" json:"text_body,omitempty"`
	WaitMs   *int64   `json:"wait_ms,omitempty"`
}

// Text returns the trimmed body of a SEND_TEXT step.
func (s WorkflowStep) Text() string {
	if s.TextBody == nil {
		return ""
	}
	return strings.TrimSpace(*s.TextBody)
}

// StepInput is the client-facing descriptor of a step
type StepInput struct {
	Type     StepType `json:"type" validate:"required,oneof=SEND_TEXT WAIT"`
	TextBody *string  `json:"text_body" validate:"omitempty,max=1600"`
	WaitMs   *int64   `json:"wait_ms" validate:"omitempty,min=0"`
}

var ErrInvalidStep = errors.New("invalid workflow step")

// BuildSteps turns an ordered list of descriptors into steps for workflowID,
// assigning Order from the array index.
func BuildSteps(workflowID uint, inputs []StepInput) ([]WorkflowStep, error) {
	steps := make([]WorkflowStep, 0, len(inputs))
	for i, in := range inputs {
		step := WorkflowStep{
			WorkflowID: workflowID,
			Order:      i,
			Type:       in.Type,
		}
		switch in.Type {
		case StepTypeSendText:
			if in.TextBody == nil || strings.TrimSpace(*in.TextBody) == "" {
				return nil, fmt.Errorf("%w: step %d: SEND_TEXT requires text_body", ErrInvalidStep, i)
			}
			body := *in.TextBody
			step.TextBody = &body
		case StepTypeWait:
			var wait int64
			if in.WaitMs != nil {
				if *in.WaitMs < 0 {
					return nil, fmt.Errorf("%w: step %d: wait_ms must not be negative", ErrInvalidStep, i)
				}
				wait = *in.WaitMs
			}
			step.WaitMs = &wait
		default:
			return nil, fmt.Errorf("%w: step %d: unknown type %q", ErrInvalidStep, i, in.Type)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

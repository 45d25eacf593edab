package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// WorkflowStatus is the outcome of a workflow engine call.
type WorkflowStatus string

const (
	WorkflowPending WorkflowStatus = "PENDING"
	WorkflowSuccess WorkflowStatus = "SUCCESS"
	WorkflowFailed  WorkflowStatus = "FAILED"
)

// WorkflowLogDB records one call to the workflow engine.
type WorkflowLogDB struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	WorkflowID   string         `json:"workflow_id" db:"workflow_id"`
	WorkflowName string         `json:"workflow_name" db:"workflow_name"`
	Status       WorkflowStatus `json:"status" db:"status"`
	TriggerData  types.JSONText `json:"trigger_data" db:"trigger_data"`
	ResponseData types.JSONText `json:"response_data" db:"response_data"`
	ErrorMessage string         `json:"error_message" db:"error_message"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

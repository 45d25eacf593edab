package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
)

//go:generate mockgen -source=workflow.go -destination=workflow_mock.go -package=handlers

// WorkflowTriggerer calls the workflow engine and logs the call.
type WorkflowTriggerer interface {
	Trigger(ctx context.Context, workflowID, name string, data map[string]any) (*models.WorkflowLogDB, error)
}

// WorkflowTriggerRequest represents the JSON body of a manual trigger
// swagger:model WorkflowTriggerRequest
type WorkflowTriggerRequest struct {
	// Label stored with the log entry
	// default: manual
	Name string `json:"name" validate:"max=100"`

	// Payload passed to the workflow
	Data map[string]any `json:"data"`
}

// NewTriggerWorkflowHandler triggers a workflow by id or webhook URL and
// returns its log entry.
// @Summary Trigger workflow
// @Tags automation
// @Accept json
// @Produce json
// @Param workflowID path string true "Workflow ID"
// @Param request body handlers.WorkflowTriggerRequest true "Trigger request"
// @Success 200 {object} models.WorkflowLogDB
// @Failure 403 {object} handlers.ErrorResponse "Staff only"
// @Failure 502 {object} models.WorkflowLogDB "Workflow call failed"
// @Router /api/v1/automation/workflows/{workflowID}/trigger [post]
// @Security BearerAuth
func NewTriggerWorkflowHandler(svc WorkflowTriggerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID := chi.URLParam(r, "workflowID")
		if workflowID == "" {
			writeError(w, http.StatusBadRequest, "workflow id is required")
			return
		}

		var req WorkflowTriggerRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.Name == "" {
			req.Name = "manual"
		}
		if req.Data == nil {
			req.Data = map[string]any{}
		}

		entry, err := svc.Trigger(r.Context(), workflowID, req.Name, req.Data)
		if err != nil {
			logger.Log.Errorw("failed to log workflow trigger", "workflowID", workflowID, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		// the engine call itself failed, the log entry carries the reason
		if entry.Status == models.WorkflowFailed {
			writeJSON(w, http.StatusBadGateway, entry)
			return
		}

		writeJSON(w, http.StatusOK, entry)
	}
}

package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
)

const fireTimeout = 15 * time.Second

// WorkflowService triggers automation workflows and keeps a log of every call.
type WorkflowService struct {
	client WorkflowClient
	logs   WorkflowLogStore
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(client WorkflowClient, logs WorkflowLogStore) *WorkflowService {
	return &WorkflowService{client: client, logs: logs}
}

// Trigger calls the workflow and returns the finished log entry. A failed
// call is recorded as FAILED and is not an error; only failing to write the
// log is.
func (s *WorkflowService) Trigger(ctx context.Context, workflowID, name string, data map[string]any) (*models.WorkflowLogDB, error) {
	triggerData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	entry := &models.WorkflowLogDB{
		WorkflowID:   workflowID,
		WorkflowName: name,
		Status:       models.WorkflowPending,
		TriggerData:  triggerData,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		logger.Log.Errorw("failed to create workflow log", "workflowID", workflowID, "error", err)
		return nil, err
	}

	response, callErr := s.client.Trigger(ctx, workflowID, data)
	if callErr != nil {
		entry.Status = models.WorkflowFailed
		entry.ErrorMessage = callErr.Error()
		logger.Log.Errorw("workflow trigger failed", "workflowID", workflowID, "name", name, "error", callErr)
	} else {
		entry.Status = models.WorkflowSuccess
		entry.ResponseData = []byte(response)
		logger.Log.Infow("workflow triggered", "workflowID", workflowID, "name", name)
	}

	if err := s.logs.Finish(ctx, entry.ID, entry.Status, entry.ResponseData, entry.ErrorMessage); err != nil {
		logger.Log.Errorw("failed to finish workflow log", "workflowID", workflowID, "logID", entry.ID, "error", err)
		return entry, err
	}
	return entry, nil
}

// Fire triggers the workflow detached from ctx cancellation and only logs the
// outcome. An empty workflowID does nothing.
func (s *WorkflowService) Fire(ctx context.Context, workflowID, name string, data map[string]any) {
	if workflowID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fireTimeout)
	defer cancel()

	if _, err := s.Trigger(ctx, workflowID, name, data); err != nil {
		logger.Log.Warnw("workflow fire failed", "workflowID", workflowID, "name", name, "error", err)
	}
}

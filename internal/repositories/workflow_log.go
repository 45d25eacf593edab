package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/sbilibin2017/xcellar-wallet/internal/dbtx"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
)

// WorkflowLogRepository records calls to the workflow engine.
type WorkflowLogRepository struct {
	db *sqlx.DB
}

func NewWorkflowLogRepository(db *sqlx.DB) *WorkflowLogRepository {
	return &WorkflowLogRepository{db: db}
}

// Create inserts a PENDING log entry.
func (r *WorkflowLogRepository) Create(ctx context.Context, l *models.WorkflowLogDB) error {
	query := `
		INSERT INTO workflow_logs (id, workflow_id, workflow_name, status, trigger_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if len(l.TriggerData) == 0 {
		l.TriggerData = []byte("{}")
	}
	args := []any{l.ID, l.WorkflowID, l.WorkflowName, l.Status, l.TriggerData}

	err := dbtx.Executor(ctx, r.db).QueryRowxContext(ctx, query, args...).Scan(&l.CreatedAt, &l.UpdatedAt)
	logQuery(query, []any{l.ID, l.WorkflowID, l.WorkflowName, l.Status}, l.ID, err)
	return err
}

// Finish stores the outcome of the call.
func (r *WorkflowLogRepository) Finish(ctx context.Context, id uuid.UUID, status models.WorkflowStatus, response types.JSONText, errMsg string) error {
	query := `
		UPDATE workflow_logs
		SET status = $2, response_data = $3, error_message = $4, updated_at = NOW()
		WHERE id = $1
	`
	if len(response) == 0 {
		response = []byte("{}")
	}
	args := []any{id, status, response, errMsg}

	_, err := dbtx.Executor(ctx, r.db).ExecContext(ctx, query, args...)
	logQuery(query, []any{id, status, errMsg}, nil, err)
	return err
}

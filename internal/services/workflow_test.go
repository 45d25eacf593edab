package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowService_Trigger(t *testing.T) {
	ctx := context.Background()
	data := map[string]any{"event": "deposit_received"}
	logID := uuid.New()

	tests := []struct {
		name       string
		response   json.RawMessage
		callErr    error
		wantStatus models.WorkflowStatus
		wantErrMsg string
	}{
		{name: "success", response: json.RawMessage(`{"ok":true}`), wantStatus: models.WorkflowSuccess},
		{name: "engine error", callErr: errors.New("n8n api error: status 500"), wantStatus: models.WorkflowFailed, wantErrMsg: "n8n api error: status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			client := NewMockWorkflowClient(ctrl)
			logs := NewMockWorkflowLogStore(ctrl)

			gomock.InOrder(
				logs.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, l *models.WorkflowLogDB) error {
					assert.Equal(t, models.WorkflowPending, l.Status)
					assert.Equal(t, "wf-1", l.WorkflowID)
					assert.JSONEq(t, `{"event":"deposit_received"}`, string(l.TriggerData))
					l.ID = logID
					return nil
				}),
				client.EXPECT().Trigger(ctx, "wf-1", data).Return(tt.response, tt.callErr),
				logs.EXPECT().Finish(ctx, logID, tt.wantStatus, types.JSONText(tt.response), tt.wantErrMsg).Return(nil),
			)

			entry, err := NewWorkflowService(client, logs).Trigger(ctx, "wf-1", "deposit_received", data)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, entry.Status)
			assert.Equal(t, tt.wantErrMsg, entry.ErrorMessage)
		})
	}
}

func TestWorkflowService_Trigger_LogError(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := NewMockWorkflowClient(ctrl)
	logs := NewMockWorkflowLogStore(ctrl)
	logs.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("db error"))

	entry, err := NewWorkflowService(client, logs).Trigger(ctx, "wf-1", "x", nil)
	assert.Error(t, err)
	assert.Nil(t, entry)
}

func TestWorkflowService_Fire(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := NewMockWorkflowClient(ctrl)
	logs := NewMockWorkflowLogStore(ctrl)
	svc := NewWorkflowService(client, logs)

	// empty id is a no-op
	svc.Fire(context.Background(), "", "deposit_received", nil)

	// still runs after the caller's context is cancelled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logs.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ *models.WorkflowLogDB) error {
		assert.NoError(t, ctx.Err())
		return nil
	})
	client.EXPECT().Trigger(gomock.Any(), "wf-1", gomock.Any()).Return(nil, errors.New("down"))
	logs.EXPECT().Finish(gomock.Any(), gomock.Any(), models.WorkflowFailed, gomock.Any(), "down").Return(nil)

	svc.Fire(ctx, "wf-1", "deposit_received", map[string]any{"a": 1})
}

package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestTriggerWorkflowHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		mockSetup      func(m *MockWorkflowTriggerer)
		expectedStatus int
	}{
		{
			name: "success",
			body: WorkflowTriggerRequest{Name: "payout_report", Data: map[string]any{"day": "2026-10-01"}},
			mockSetup: func(m *MockWorkflowTriggerer) {
				m.EXPECT().Trigger(gomock.Any(), "wf-1", "payout_report", map[string]any{"day": "2026-10-01"}).
					Return(&models.WorkflowLogDB{ID: uuid.New(), Status: models.WorkflowSuccess}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "defaults",
			body: `{}`,
			mockSetup: func(m *MockWorkflowTriggerer) {
				m.EXPECT().Trigger(gomock.Any(), "wf-1", "manual", map[string]any{}).
					Return(&models.WorkflowLogDB{Status: models.WorkflowSuccess}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "engine failed",
			body: `{}`,
			mockSetup: func(m *MockWorkflowTriggerer) {
				m.EXPECT().Trigger(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(&models.WorkflowLogDB{Status: models.WorkflowFailed, ErrorMessage: "n8n: 500"}, nil)
			},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name: "log store failed",
			body: `{}`,
			mockSetup: func(m *MockWorkflowTriggerer) {
				m.EXPECT().Trigger(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := NewMockWorkflowTriggerer(ctrl)
			tt.mockSetup(svc)

			req := newRequest(t, http.MethodPost, "/api/v1/automation/workflows/wf-1/trigger", tt.body, nil)
			req = withURLParams(req, map[string]string{"workflowID": "wf-1"})
			rr := httptest.NewRecorder()

			NewTriggerWorkflowHandler(svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

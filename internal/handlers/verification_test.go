package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/xcellar-wallet/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestSendOTPHandler(t *testing.T) {
	claims := customerClaims()

	tests := []struct {
		name           string
		body           any
		mockSetup      func(m *MockOTPService)
		expectedStatus int
	}{
		{
			name: "default method is SMS",
			body: OTPSendRequest{PhoneNumber: "+2348012345678"},
			mockSetup: func(m *MockOTPService) {
				m.EXPECT().SendOTP(gomock.Any(), claims.UserID, "+2348012345678", "SMS").Return("VE123", nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "voice call",
			body: OTPSendRequest{PhoneNumber: "+2348012345678", Method: "CALL"},
			mockSetup: func(m *MockOTPService) {
				m.EXPECT().SendOTP(gomock.Any(), claims.UserID, "+2348012345678", "CALL").Return("VE124", nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown method",
			body:           OTPSendRequest{PhoneNumber: "+2348012345678", Method: "EMAIL"},
			mockSetup:      func(m *MockOTPService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not e164",
			body:           OTPSendRequest{PhoneNumber: "08012345678"},
			mockSetup:      func(m *MockOTPService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "throttled",
			body: OTPSendRequest{PhoneNumber: "+2348012345678"},
			mockSetup: func(m *MockOTPService) {
				m.EXPECT().SendOTP(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", services.ErrTooManyOTPRequests)
			},
			expectedStatus: http.StatusTooManyRequests,
		},
		{
			name: "foreign phone",
			body: OTPSendRequest{PhoneNumber: "+2348012345678"},
			mockSetup: func(m *MockOTPService) {
				m.EXPECT().SendOTP(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", services.ErrPhoneMismatch)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "provider down",
			body: OTPSendRequest{PhoneNumber: "+2348012345678"},
			mockSetup: func(m *MockOTPService) {
				m.EXPECT().SendOTP(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("twilio 503"))
			},
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := NewMockOTPService(ctrl)
			tt.mockSetup(svc)

			rr := httptest.NewRecorder()
			NewSendOTPHandler(svc).ServeHTTP(rr, newRequest(t, http.MethodPost, "/api/v1/verification/otp/send", tt.body, claims))

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestVerifyOTPHandler(t *testing.T) {
	claims := customerClaims()

	tests := []struct {
		name           string
		body           any
		mockSetup      func(m *MockOTPService)
		expectedStatus int
	}{
		{
			name: "verified",
			body: OTPVerifyRequest{PhoneNumber: "+2348012345678", Code: "123456"},
			mockSetup: func(m *MockOTPService) {
				m.EXPECT().VerifyOTP(gomock.Any(), claims.UserID, "+2348012345678", "123456").Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "wrong code",
			body: OTPVerifyRequest{PhoneNumber: "+2348012345678", Code: "000000"},
			mockSetup: func(m *MockOTPService) {
				m.EXPECT().VerifyOTP(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(services.ErrInvalidOTP)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "non numeric code",
			body:           OTPVerifyRequest{PhoneNumber: "+2348012345678", Code: "12ab56"},
			mockSetup:      func(m *MockOTPService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := NewMockOTPService(ctrl)
			tt.mockSetup(svc)

			rr := httptest.NewRecorder()
			NewVerifyOTPHandler(svc).ServeHTTP(rr, newRequest(t, http.MethodPost, "/api/v1/verification/otp/verify", tt.body, claims))

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

package facades

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTwilioServer(t *testing.T, handler http.HandlerFunc) *TwilioVerifyFacade {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTwilioVerifyFacade(srv.URL, "AC1", "token", "VA1")
}

func TestTwilioVerifyFacade_SendOTP(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		wantChannel string
	}{
		{name: "sms", method: "SMS", wantChannel: "sms"},
		{name: "call", method: "call", wantChannel: "call"},
		{name: "default", method: "", wantChannel: "sms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTwilioServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/Services/VA1/Verifications", r.URL.Path)
				user, pass, ok := r.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "AC1", user)
				assert.Equal(t, "token", pass)
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "+2348012345678", r.PostForm.Get("To"))
				assert.Equal(t, tt.wantChannel, r.PostForm.Get("Channel"))
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"sid":"VE123","status":"pending"}`))
			})

			sid, err := f.SendOTP(context.Background(), "+2348012345678", tt.method)
			require.NoError(t, err)
			assert.Equal(t, "VE123", sid)
		})
	}
}

func TestTwilioVerifyFacade_SendOTP_UnsupportedChannel(t *testing.T) {
	f := NewTwilioVerifyFacade("http://127.0.0.1:1", "AC1", "token", "VA1")

	_, err := f.SendOTP(context.Background(), "+2348012345678", "PIGEON")
	assert.ErrorIs(t, err, ErrUnsupportedChannel)
}

func TestTwilioVerifyFacade_CheckOTP(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		want       bool
		wantErr    bool
	}{
		{name: "approved", statusCode: http.StatusOK, body: `{"status":"approved"}`, want: true},
		{name: "pending", statusCode: http.StatusOK, body: `{"status":"pending"}`, want: false},
		{name: "expired", statusCode: http.StatusNotFound, body: `{"message":"not found"}`, want: false},
		{name: "vendor down", statusCode: http.StatusInternalServerError, body: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTwilioServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/Services/VA1/VerificationCheck", r.URL.Path)
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "123456", r.PostForm.Get("Code"))
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			})

			ok, err := f.CheckOTP(context.Background(), "+2348012345678", "123456")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestTwilioVerifyFacade_NotConfigured(t *testing.T) {
	f := NewTwilioVerifyFacade("http://127.0.0.1:1", "", "", "")

	_, err := f.SendOTP(context.Background(), "+2348012345678", "SMS")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sbilibin2017/xcellar-wallet/internal/jwt"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/stretchr/testify/require"
)

func customerClaims() *jwt.Claims {
	return &jwt.Claims{UserID: uuid.New(), UserType: models.UserTypeCustomer}
}

// newRequest builds a request with a JSON body (strings are sent verbatim)
// and, when claims is not nil, an authenticated context.
func newRequest(t *testing.T, method, target string, body any, claims *jwt.Claims) *http.Request {
	t.Helper()

	var raw []byte
	switch v := body.(type) {
	case nil:
	case string:
		raw = []byte(v)
	default:
		var err error
		raw, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	if claims != nil {
		req = req.WithContext(jwt.WithClaims(req.Context(), claims))
	}
	return req
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

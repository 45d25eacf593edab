package jwt

import (
	"context"
	"net/http"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *models.UserDB {
	return &models.UserDB{UserID: uuid.New(), UserType: models.UserTypeCourier}
}

func TestJWT_GenerateAndGetClaims(t *testing.T) {
	j := New("test-secret", time.Minute)
	user := testUser()
	ctx := context.Background()

	token, err := j.Generate(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := j.GetClaims(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, claims.UserID)
	assert.Equal(t, models.UserTypeCourier, claims.UserType)
	assert.False(t, claims.IsStaff)
}

func TestJWT_ExpiredToken(t *testing.T) {
	j := New("test-secret", -time.Minute)
	ctx := context.Background()

	token, err := j.Generate(ctx, testUser())
	require.NoError(t, err)

	claims, err := j.GetClaims(ctx, token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestJWT_InvalidToken(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name:  "garbage",
			token: func(t *testing.T) string { return "invalid.token.string" },
		},
		{
			name: "other secret",
			token: func(t *testing.T) string {
				token, err := New("other", time.Minute).Generate(ctx, testUser())
				require.NoError(t, err)
				return token
			},
		},
		{
			name: "other algorithm",
			token: func(t *testing.T) string {
				token := gojwt.NewWithClaims(gojwt.SigningMethodHS512, Claims{UserID: uuid.New()})
				s, err := token.SignedString([]byte("test-secret"))
				require.NoError(t, err)
				return s
			},
		},
		{
			name: "missing user id",
			token: func(t *testing.T) string {
				token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, Claims{})
				s, err := token.SignedString([]byte("test-secret"))
				require.NoError(t, err)
				return s
			},
		},
	}

	j := New("test-secret", time.Minute)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := j.GetClaims(ctx, tt.token(t))
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestJWT_GetTokenFromRequest(t *testing.T) {
	j := New("secret", time.Minute)
	ctx := context.Background()

	tests := []struct {
		name          string
		header        string
		expectedToken string
		expectError   bool
	}{
		{"ValidBearer", "Bearer mytoken123", "mytoken123", false},
		{"LowercaseBearer", "bearer mytoken123", "mytoken123", false},
		{"NoHeader", "", "", true},
		{"InvalidFormat", "Token mytoken123", "", true},
		{"ExtraParts", "Bearer a b", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			token, err := j.GetTokenFromRequest(ctx, req)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedToken, token)
		})
	}
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	claims := &Claims{UserID: uuid.New(), IsStaff: true}
	got, ok := ClaimsFromContext(WithClaims(context.Background(), claims))
	require.True(t, ok)
	assert.Same(t, claims, got)
}

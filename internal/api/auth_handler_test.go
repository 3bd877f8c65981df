package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/mocks"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
)

const testPassword = "correct horse battery"

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                   "test-jwt-secret-thatis32characterslong",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 1440,
	}
}

// newAuthFixture builds an AuthHandler over mock stores. Redis-backed
// lockout and token rotation are nil here; those paths are covered by the
// platform/redis integration tests.
func newAuthFixture(t *testing.T) (*AuthHandler, *mocks.MockUserStore) {
	t.Helper()

	userStore := mocks.NewMockUserStore()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	audit := service.NewAuditService(mocks.NewMockAuditStore(), discard)
	userService := service.NewUserService(userStore, audit, nil, discard)

	authConfig := testAuthConfig()
	jwtService, err := auth.NewJWTService(authConfig)
	require.NoError(t, err)

	handler := NewAuthHandler(userService, jwtService, auth.NewBcryptVerifier(), nil, nil, &authConfig)
	return handler, userStore
}

func seedLoginUser(t *testing.T, userStore *mocks.MockUserStore, email string) *domain.User {
	t.Helper()

	user, err := domain.NewUser(email, "Login User", testPassword)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user.Password = ""
	user.HashedPassword = string(hash)

	userStore.Users[user.ID] = user
	return user
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAuthHandler_Login(t *testing.T) {
	handler, userStore := newAuthFixture(t)
	user := seedLoginUser(t, userStore, "login@example.com")

	t.Run("valid credentials return a token pair", func(t *testing.T) {
		rec := postJSON(t, handler.Login, "/api/v1/auth/login", LoginRequest{
			Email:    "login@example.com",
			Password: testPassword,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, user.ID, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)

		// Login stamps last_login_at
		assert.NotNil(t, userStore.Users[user.ID].LastLoginAt)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		rec := postJSON(t, handler.Login, "/api/v1/auth/login", LoginRequest{
			Email:    "login@example.com",
			Password: "wrong password here",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid credentials")
	})

	t.Run("unknown email gets the same response as a wrong password", func(t *testing.T) {
		rec := postJSON(t, handler.Login, "/api/v1/auth/login", LoginRequest{
			Email:    "nobody@example.com",
			Password: testPassword,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid credentials")
	})

	t.Run("inactive account is rejected", func(t *testing.T) {
		inactive := seedLoginUser(t, userStore, "inactive@example.com")
		inactive.IsActive = false

		rec := postJSON(t, handler.Login, "/api/v1/auth/login", LoginRequest{
			Email:    "inactive@example.com",
			Password: testPassword,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	handler, userStore := newAuthFixture(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"invalid email", RegisterRequest{Email: "nope", Name: "A", Password: testPassword}},
		{"short password", RegisterRequest{Email: "a@example.com", Name: "A", Password: "short"}},
		{"missing name", RegisterRequest{Email: "a@example.com", Password: testPassword}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, handler.Register, "/api/v1/auth/register", tc.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, userStore.Users)
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	handler, userStore := newAuthFixture(t)
	user := seedLoginUser(t, userStore, "refresh@example.com")

	jwtService, err := auth.NewJWTService(testAuthConfig())
	require.NoError(t, err)

	refreshToken, err := jwtService.GenerateRefreshToken(context.Background(), user.ID)
	require.NoError(t, err)

	t.Run("valid refresh token returns a new pair", func(t *testing.T) {
		rec := postJSON(t, handler.Refresh, "/api/v1/auth/refresh", RefreshTokenRequest{
			RefreshToken: refreshToken,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, user.ID, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("access token is not accepted as a refresh token", func(t *testing.T) {
		accessToken, err := jwtService.GenerateToken(context.Background(), user.ID)
		require.NoError(t, err)

		rec := postJSON(t, handler.Refresh, "/api/v1/auth/refresh", RefreshTokenRequest{
			RefreshToken: accessToken,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		rec := postJSON(t, handler.Refresh, "/api/v1/auth/refresh", RefreshTokenRequest{
			RefreshToken: "not.a.token",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

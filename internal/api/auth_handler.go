package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/platform/redis"
	"github.com/taskhub/taskhub-api/internal/redact"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userService      service.UserService
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	loginLimiter     *redis.LoginLimiter
	tokens           *redis.TokenStore
	authConfig       *config.AuthConfig
	validator        *validator.Validate
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
// loginLimiter and tokens are optional; without them, account lockout and
// refresh token rotation are disabled.
func NewAuthHandler(
	userService service.UserService,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	loginLimiter *redis.LoginLimiter,
	tokens *redis.TokenStore,
	authConfig *config.AuthConfig,
) *AuthHandler {
	return &AuthHandler{
		userService:      userService,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		loginLimiter:     loginLimiter,
		tokens:           tokens,
		authConfig:       authConfig,
		validator:        validator.New(),
	}
}

// Register handles POST /api/v1/auth/register requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	user, err := h.userService.CreateUser(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithError(w, r, http.StatusConflict, "Email already exists")
			return
		}
		HandleAPIError(w, r, err, "")
		return
	}

	resp, err := h.issueTokenPair(r, user.ID)
	if err != nil {
		slog.Error("failed to issue tokens after registration",
			"error", redact.Error(err),
			"user_id", user.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if h.loginLimiter != nil {
		if err := h.loginLimiter.CheckLocked(r.Context(), req.Email); err != nil {
			if errors.Is(err, redis.ErrAccountLocked) {
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
					"Too many failed login attempts, try again later", err)
				return
			}
			// Limiter unavailable, fail open
			slog.Warn("login limiter unavailable", "error", redact.Error(err))
		}
	}

	user, err := h.userService.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Same response as a wrong password, so callers cannot probe
			// for registered emails
			h.recordLoginFailure(r, req.Email)
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	if !user.IsActive {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		h.recordLoginFailure(r, req.Email)
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if h.loginLimiter != nil {
		if err := h.loginLimiter.Reset(r.Context(), req.Email); err != nil {
			slog.Warn("failed to reset login failures", "error", redact.Error(err))
		}
	}

	if err := h.userService.RecordLogin(r.Context(), user.ID); err != nil {
		// Login still succeeds; the stamp is best effort
		slog.Warn("failed to record login time",
			"error", redact.Error(err),
			"user_id", user.ID)
	}

	resp, err := h.issueTokenPair(r, user.ID)
	if err != nil {
		slog.Error("failed to issue tokens",
			"error", redact.Error(err),
			"user_id", user.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Refresh handles POST /api/v1/auth/refresh requests. A valid whitelisted
// refresh token is exchanged for a new token pair; the old refresh token is
// revoked so each one can be used once.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "Invalid refresh token")
		return
	}

	if h.tokens != nil {
		err := h.tokens.ValidateRefreshToken(r.Context(), claims.UserID.String(), claims.ID)
		if err != nil {
			if errors.Is(err, redis.ErrTokenNotWhitelisted) {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid refresh token")
				return
			}
			slog.Error("failed to check refresh token whitelist", "error", redact.Error(err))
			shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			return
		}

		if err := h.tokens.RevokeRefreshToken(r.Context(), claims.UserID.String(), claims.ID); err != nil {
			slog.Warn("failed to revoke used refresh token",
				"error", redact.Error(err),
				"user_id", claims.UserID)
		}
	}

	resp, err := h.issueTokenPair(r, claims.UserID)
	if err != nil {
		slog.Error("failed to issue tokens on refresh",
			"error", redact.Error(err),
			"user_id", claims.UserID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout requests. The presented refresh
// token is revoked and the current access token is blacklisted for the rest
// of its lifetime.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "Invalid refresh token")
		return
	}

	if h.tokens != nil {
		if err := h.tokens.RevokeRefreshToken(r.Context(), claims.UserID.String(), claims.ID); err != nil {
			slog.Warn("failed to revoke refresh token on logout",
				"error", redact.Error(err),
				"user_id", claims.UserID)
		}

		// Blacklist the presented access token too, when there is one
		if accessClaims := h.currentAccessClaims(r); accessClaims != nil {
			remaining := time.Until(accessClaims.ExpiresAt)
			if err := h.tokens.BlacklistToken(r.Context(), accessClaims.ID, remaining); err != nil {
				slog.Warn("failed to blacklist access token on logout",
					"error", redact.Error(err),
					"user_id", accessClaims.UserID)
			}
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// issueTokenPair generates an access and refresh token for the user and
// whitelists the refresh token when a token store is configured.
func (h *AuthHandler) issueTokenPair(r *http.Request, userID uuid.UUID) (*AuthResponse, error) {
	accessToken, err := h.jwtService.GenerateToken(r.Context(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(r.Context(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if h.tokens != nil {
		claims, err := h.jwtService.ValidateRefreshToken(r.Context(), refreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to read refresh token claims: %w", err)
		}
		ttl := time.Until(claims.ExpiresAt)
		if err := h.tokens.WhitelistRefreshToken(r.Context(), userID.String(), claims.ID, ttl); err != nil {
			return nil, fmt.Errorf("failed to whitelist refresh token: %w", err)
		}
	}

	expiresAt := time.Now().
		Add(time.Duration(h.authConfig.TokenLifetimeMinutes) * time.Minute).
		UTC().
		Format(time.RFC3339)

	return &AuthResponse{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// currentAccessClaims parses the Authorization header if present. Returns
// nil when the header is absent or the token invalid; logout proceeds
// either way.
func (h *AuthHandler) currentAccessClaims(r *http.Request) *auth.Claims {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil
	}

	claims, err := h.jwtService.ValidateToken(r.Context(), parts[1])
	if err != nil {
		return nil
	}
	return claims
}

func (h *AuthHandler) recordLoginFailure(r *http.Request, email string) {
	if h.loginLimiter == nil {
		return
	}
	if err := h.loginLimiter.RecordFailure(r.Context(), email); err != nil {
		slog.Warn("failed to record login failure", "error", redact.Error(err))
	}
}

package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"wrong token type", auth.ErrWrongTokenType, http.StatusUnauthorized},
		{"not a member", service.ErrNotMember, http.StatusForbidden},
		{"insufficient role", service.ErrInsufficientRole, http.StatusForbidden},
		{"not owned", service.ErrNotOwned, http.StatusForbidden},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"task not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", store.ErrWorkspaceNotFound), http.StatusNotFound},
		{"email exists", store.ErrEmailExists, http.StatusConflict},
		{"member exists", store.ErrMemberExists, http.StatusConflict},
		{"last admin", service.ErrLastAdmin, http.StatusConflict},
		{"invalid status", domain.ErrInvalidStatus, http.StatusBadRequest},
		{"invalid role", domain.ErrInvalidRole, http.StatusBadRequest},
		{"assignee not member", domain.ErrAssigneeNotMember, http.StatusBadRequest},
		{"foreign key", store.ErrForeignKey, http.StatusBadRequest},
		{"validation", domain.ErrValidation, http.StatusBadRequest},
		{"unknown error", errors.New("database exploded"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	// The sanitized message must never echo internal detail
	secret := errors.New("pq: connection to host db-internal-1 failed")
	msg := GetSafeErrorMessage(secret)
	assert.Equal(t, "An unexpected error occurred", msg)
	assert.NotContains(t, msg, "db-internal-1")

	assert.Equal(t, "Workspace not found", GetSafeErrorMessage(store.ErrWorkspaceNotFound))
	assert.Equal(t, "A workspace must keep at least one admin", GetSafeErrorMessage(service.ErrLastAdmin))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}

func TestSanitizeValidationError(t *testing.T) {
	validate := validator.New()

	err := validate.Struct(LoginRequest{Email: "not-an-email", Password: "x"})
	assert.Error(t, err)

	msg := SanitizeValidationError(err)
	assert.Contains(t, msg, "Email")
	assert.NotContains(t, msg, "LoginRequest")

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("boom")))
}

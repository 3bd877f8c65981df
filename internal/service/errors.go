// Package service provides application-level services for managing
// workspaces, tasks, comments, notifications, and the audit log.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for
// with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped with context via fmt.Errorf
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotMember indicates the acting user is not a member of the
	// workspace the operation targets.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotMember = errors.New("user is not a member of the workspace")

	// ErrInsufficientRole indicates the acting user's workspace role does
	// not permit the operation.
	// API layer should map this to HTTP 403 Forbidden.
	ErrInsufficientRole = errors.New("workspace role does not permit this operation")

	// ErrNotOwned indicates a resource is owned by a different user than the
	// one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrLastAdmin indicates an operation would leave a workspace with no
	// admin members.
	// API layer should map this to HTTP 409 Conflict.
	ErrLastAdmin = errors.New("workspace must retain at least one admin")
)

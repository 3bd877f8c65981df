package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service"
)

// WorkspaceHandler handles workspace and membership HTTP requests.
type WorkspaceHandler struct {
	workspaceService service.WorkspaceService
	validator        *validator.Validate
}

// NewWorkspaceHandler creates a new WorkspaceHandler.
func NewWorkspaceHandler(workspaceService service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		validator:        validator.New(),
	}
}

// CreateWorkspace handles POST /api/v1/workspaces requests.
func (h *WorkspaceHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateWorkspaceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	workspace, err := h.workspaceService.CreateWorkspace(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, workspaceToResponse(workspace))
}

// ListWorkspaces handles GET /api/v1/workspaces requests.
func (h *WorkspaceHandler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limit, offset := shared.Pagination(r)
	workspaces, err := h.workspaceService.ListWorkspaces(r.Context(), userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	responses := make([]WorkspaceResponse, 0, len(workspaces))
	for _, workspace := range workspaces {
		responses = append(responses, workspaceToResponse(workspace))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetWorkspace handles GET /api/v1/workspaces/{workspaceID} requests.
func (h *WorkspaceHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := requireUserAndPathUUID(w, r, "workspaceID")
	if !ok {
		return
	}

	workspace, err := h.workspaceService.GetWorkspace(r.Context(), userID, workspaceID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, workspaceToResponse(workspace))
}

// UpdateWorkspace handles PUT /api/v1/workspaces/{workspaceID} requests.
// Absent fields keep their current values.
func (h *WorkspaceHandler) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := requireUserAndPathUUID(w, r, "workspaceID")
	if !ok {
		return
	}

	var req UpdateWorkspaceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	current, err := h.workspaceService.GetWorkspace(r.Context(), userID, workspaceID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	name := current.Name
	description := current.Description
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}

	workspace, err := h.workspaceService.UpdateWorkspace(r.Context(), userID, workspaceID, name, description)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, workspaceToResponse(workspace))
}

// DeleteWorkspace handles DELETE /api/v1/workspaces/{workspaceID} requests.
func (h *WorkspaceHandler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := requireUserAndPathUUID(w, r, "workspaceID")
	if !ok {
		return
	}

	if err := h.workspaceService.DeleteWorkspace(r.Context(), userID, workspaceID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMembers handles GET /api/v1/workspaces/{workspaceID}/members requests.
func (h *WorkspaceHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := requireUserAndPathUUID(w, r, "workspaceID")
	if !ok {
		return
	}

	members, err := h.workspaceService.ListMembers(r.Context(), userID, workspaceID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	responses := make([]MemberResponse, 0, len(members))
	for _, member := range members {
		responses = append(responses, memberToResponse(member))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// AddMember handles POST /api/v1/workspaces/{workspaceID}/members requests.
func (h *WorkspaceHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := requireUserAndPathUUID(w, r, "workspaceID")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	newMemberID, err := uuid.Parse(req.UserID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid user_id")
		return
	}

	member, err := h.workspaceService.AddMember(
		r.Context(), userID, workspaceID, newMemberID, domain.MemberRole(req.Role))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, memberToResponse(member))
}

// UpdateMemberRole handles PUT /api/v1/workspaces/{workspaceID}/members/{userID} requests.
func (h *WorkspaceHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	actorID, workspaceID, ok := requireUserAndPathUUID(w, r, "workspaceID")
	if !ok {
		return
	}

	memberID, err := getPathUUID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateMemberRoleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	err = h.workspaceService.UpdateMemberRole(
		r.Context(), actorID, workspaceID, memberID, domain.MemberRole(req.Role))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember handles DELETE /api/v1/workspaces/{workspaceID}/members/{userID} requests.
func (h *WorkspaceHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID, workspaceID, ok := requireUserAndPathUUID(w, r, "workspaceID")
	if !ok {
		return
	}

	memberID, err := getPathUUID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.workspaceService.RemoveMember(r.Context(), actorID, workspaceID, memberID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

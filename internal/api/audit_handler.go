package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/service"
)

// auditEntityTypes is the set of entity types the audit log records.
var auditEntityTypes = map[string]bool{
	"user":      true,
	"workspace": true,
	"task":      true,
	"comment":   true,
}

// AuditHandler handles audit log HTTP requests. All endpoints require the
// platform admin flag; the audit trail spans workspaces.
type AuditHandler struct {
	auditService *service.AuditService
	userService  service.UserService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService *service.AuditService, userService service.UserService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		userService:  userService,
	}
}

// requireAdmin checks the caller's platform admin flag, writing the error
// response itself on failure.
func (h *AuditHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return false
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}

	if !user.IsAdmin {
		shared.RespondWithError(w, r, http.StatusForbidden, "Audit log access requires the admin role")
		return false
	}
	return true
}

// ListByEntity handles GET /api/v1/audit/entities/{entityType}/{entityID} requests.
func (h *AuditHandler) ListByEntity(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	entityType := chi.URLParam(r, "entityType")
	if !auditEntityTypes[entityType] {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Unknown entity type")
		return
	}

	entityID, err := getPathUUID(r, "entityID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	limit, offset := shared.Pagination(r)
	entries, err := h.auditService.ListByEntity(r.Context(), entityType, entityID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	responses := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, auditEntryToResponse(entry))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// ListByActor handles GET /api/v1/audit/actors/{actorID} requests.
func (h *AuditHandler) ListByActor(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	actorID, err := getPathUUID(r, "actorID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	limit, offset := shared.Pagination(r)
	entries, err := h.auditService.ListByActor(r.Context(), actorID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	responses := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, auditEntryToResponse(entry))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

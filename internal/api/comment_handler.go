package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/service"
)

// CommentHandler handles comment-related HTTP requests.
type CommentHandler struct {
	commentService service.CommentService
	validator      *validator.Validate
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		validator:      validator.New(),
	}
}

// CreateComment handles POST /api/v1/tasks/{taskID}/comments requests.
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != nil {
		parsed, err := uuid.Parse(*req.ParentID)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid parent_id")
			return
		}
		parentID = &parsed
	}

	comment, err := h.commentService.CreateComment(r.Context(), userID, taskID, parentID, req.Body)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, commentToResponse(comment))
}

// ListComments handles GET /api/v1/tasks/{taskID}/comments requests.
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndPathUUID(w, r, "taskID")
	if !ok {
		return
	}

	limit, offset := shared.Pagination(r)
	comments, err := h.commentService.ListComments(r.Context(), userID, taskID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	responses := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		responses = append(responses, commentToResponse(comment))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// DeleteComment handles DELETE /api/v1/comments/{commentID} requests.
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, commentID, ok := requireUserAndPathUUID(w, r, "commentID")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(r.Context(), userID, commentID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

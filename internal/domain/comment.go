package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyCommentID   = errors.New("comment ID cannot be empty")
	ErrEmptyCommentBody = errors.New("comment body cannot be empty")
	ErrCommentBodyLong  = errors.New("comment body must be at most 10000 characters")
)

// mentionRegex matches @name tokens inside comment bodies. A mention token
// is a run of letters, digits, underscores, dots, or hyphens immediately
// after an @ that is not part of an email address.
var mentionRegex = regexp.MustCompile(`(^|[^\w@.])@([A-Za-z0-9_][A-Za-z0-9_.-]*)`)

// Comment is a threaded note attached to a task. ParentID, when set, points
// at the comment being replied to. MentionIDs holds the resolved user IDs
// for @name tokens in the body; resolution happens in the comment service
// against the task's workspace members.
type Comment struct {
	ID         uuid.UUID   `json:"id"`
	TaskID     uuid.UUID   `json:"task_id"`
	AuthorID   uuid.UUID   `json:"author_id"`
	ParentID   *uuid.UUID  `json:"parent_id,omitempty"`
	Body       string      `json:"body"`
	MentionIDs []uuid.UUID `json:"mention_ids,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewComment creates a Comment with a fresh ID and timestamps.
// Returns an error if validation fails.
func NewComment(taskID, authorID uuid.UUID, parentID *uuid.UUID, body string) (*Comment, error) {
	c := &Comment{
		ID:        uuid.New(),
		TaskID:    taskID,
		AuthorID:  authorID,
		ParentID:  parentID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate checks if the Comment has valid data.
func (c *Comment) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCommentID
	}
	if c.TaskID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if c.AuthorID == uuid.Nil {
		return ErrEmptyUserID
	}
	if c.Body == "" {
		return ErrEmptyCommentBody
	}
	if len(c.Body) > 10000 {
		return ErrCommentBodyLong
	}
	return nil
}

// ExtractMentions returns the distinct @name tokens found in the body, in
// order of first appearance. Tokens are returned without the leading @ and
// are not yet resolved to users.
func ExtractMentions(body string) []string {
	matches := mentionRegex.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	var tokens []string
	for _, m := range matches {
		token := m[2]
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}

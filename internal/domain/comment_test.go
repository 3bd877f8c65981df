package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewComment(t *testing.T) {
	t.Parallel()
	taskID := uuid.New()
	authorID := uuid.New()

	comment, err := NewComment(taskID, authorID, nil, "Looks good to me")

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if comment.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if comment.TaskID != taskID {
		t.Errorf("Expected task ID %s, got %s", taskID, comment.TaskID)
	}

	if comment.ParentID != nil {
		t.Error("Expected nil ParentID for top-level comment")
	}

	if comment.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	// Test reply
	parentID := comment.ID
	reply, err := NewComment(taskID, authorID, &parentID, "Agreed")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if reply.ParentID == nil || *reply.ParentID != parentID {
		t.Error("Expected reply to carry parent ID")
	}

	// Test empty body
	_, err = NewComment(taskID, authorID, nil, "")
	if err != ErrEmptyCommentBody {
		t.Errorf("Expected error %v, got %v", ErrEmptyCommentBody, err)
	}

	// Test oversized body
	_, err = NewComment(taskID, authorID, nil, strings.Repeat("x", 10001))
	if err != ErrCommentBodyLong {
		t.Errorf("Expected error %v, got %v", ErrCommentBodyLong, err)
	}

	// Test invalid task
	_, err = NewComment(uuid.Nil, authorID, nil, "body")
	if err != ErrEmptyTaskID {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskID, err)
	}
}

func TestExtractMentions(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "mention at start",
			body: "@alice please review",
			want: []string{"alice"},
		},
		{
			name: "mention mid-sentence",
			body: "ping @bob about this",
			want: []string{"bob"},
		},
		{
			name: "multiple mentions",
			body: "@alice and @bob should both look",
			want: []string{"alice", "bob"},
		},
		{
			name: "duplicates collapse to first appearance",
			body: "@alice @bob @alice",
			want: []string{"alice", "bob"},
		},
		{
			name: "email address is not a mention",
			body: "send it to alice@example.com",
			want: nil,
		},
		{
			name: "mention in parentheses",
			body: "assigned (@carol)",
			want: []string{"carol"},
		},
		{
			name: "token with underscore and hyphen",
			body: "cc @dev_ops-team",
			want: []string{"dev_ops-team"},
		},
		{
			name: "bare at sign",
			body: "meet @ noon",
			want: nil,
		},
		{
			name: "no mentions",
			body: "nothing to see here",
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractMentions(tc.body)
			if len(got) != len(tc.want) {
				t.Fatalf("ExtractMentions(%q) = %v, want %v", tc.body, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("ExtractMentions(%q)[%d] = %q, want %q", tc.body, i, got[i], tc.want[i])
				}
			}
		})
	}
}

package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/job"
	"github.com/taskhub/taskhub-api/internal/mocks"
)

func TestResolveMentions(t *testing.T) {
	ctx := context.Background()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	authorID := uuid.New()
	aliceID := uuid.New()
	bobID := uuid.New()

	wsStore := mocks.NewMockWorkspaceStore()
	workspace, err := domain.NewWorkspace("Mentions", "")
	require.NoError(t, err)
	wsStore.Workspaces[workspace.ID] = workspace

	addNamed := func(userID uuid.UUID, role domain.MemberRole, name string) {
		member, err := domain.NewWorkspaceMember(workspace.ID, userID, role)
		require.NoError(t, err)
		member.Name = name
		wsStore.AddMemberDirect(member)
	}
	addNamed(authorID, domain.RoleAdmin, "author")
	addNamed(aliceID, domain.RoleMember, "alice")
	addNamed(bobID, domain.RoleMember, "bob")

	audit := NewAuditService(mocks.NewMockAuditStore(), discard)
	workspaces := NewWorkspaceService(wsStore, audit, nil, discard)
	svc := &CommentServiceImpl{
		workspaces: workspaces,
		logger:     discard,
	}

	tests := []struct {
		name string
		body string
		want []uuid.UUID
	}{
		{
			name: "no mentions",
			body: "plain text",
			want: nil,
		},
		{
			name: "single mention",
			body: "ping @alice about this",
			want: []uuid.UUID{aliceID},
		},
		{
			name: "case insensitive handle",
			body: "ping @Alice",
			want: []uuid.UUID{aliceID},
		},
		{
			name: "duplicate mentions collapse",
			body: "@bob and @bob again",
			want: []uuid.UUID{bobID},
		},
		{
			name: "self mention is skipped",
			body: "note to @author",
			want: []uuid.UUID{},
		},
		{
			name: "unknown handle is ignored",
			body: "@stranger and @alice",
			want: []uuid.UUID{aliceID},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.resolveMentions(ctx, workspace.ID, authorID, tc.body)
			require.NoError(t, err)
			if len(tc.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEmitMentionNotification(t *testing.T) {
	ctx := context.Background()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	authorID := uuid.New()
	mentionedID := uuid.New()

	task, err := domain.NewTask(uuid.New(), authorID, "Fix login flow", "", domain.PriorityMedium)
	require.NoError(t, err)
	comment, err := domain.NewComment(task.ID, authorID, nil, "@alice take a look")
	require.NoError(t, err)

	emitter := mocks.NewMockEventEmitter()
	svc := &CommentServiceImpl{
		emitter: emitter,
		logger:  discard,
	}

	svc.emitMentionNotification(ctx, task, comment, authorID, []uuid.UUID{mentionedID})

	require.Equal(t, 1, emitter.EmittedCount())
	event := emitter.Events[0]
	assert.Equal(t, job.JobTypeNotificationDelivery, event.Type)

	var payload job.NotificationDeliveryPayload
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, []uuid.UUID{mentionedID}, payload.RecipientIDs)
	assert.Equal(t, domain.NotificationMention, payload.Kind)
	assert.Contains(t, payload.Title, task.Title)
	assert.Equal(t, comment.Body, payload.Body)
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/realtime"
)

type chatRepoStub struct {
	messages []models.ChatMessage
}

func (r *chatRepoStub) Create(ctx context.Context, msg *models.ChatMessage) error {
	msg.ID = "msg-1"
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *chatRepoStub) ListForUser(ctx context.Context, userID string) ([]models.ChatMessageDetail, error) {
	var out []models.ChatMessageDetail
	for _, m := range r.messages {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, models.ChatMessageDetail{ChatMessage: m})
		}
	}
	return out, nil
}

type publisherStub struct {
	mu        sync.Mutex
	published map[string][]realtime.Envelope
}

func (p *publisherStub) Publish(userID string, msg realtime.Envelope) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.published == nil {
		p.published = map[string][]realtime.Envelope{}
	}
	p.published[userID] = append(p.published[userID], msg)
	return 1
}

func newChatFixture() (*ChatService, *chatRepoStub, *publisherStub) {
	repo := &chatRepoStub{}
	pub := &publisherStub{}
	enrollments := newEnrollmentRepoStub(pendingEnrollment())
	return NewChatService(repo, defaultUsers(), enrollments, pub, nil, nil), repo, pub
}

func TestChatServiceParentToCoachIsStoredAndPushed(t *testing.T) {
	svc, repo, pub := newChatFixture()
	parent := models.UserInfo{ID: "parent-1", Name: "Asha", Role: models.RoleParent}
	enrollmentID := "enr-1"

	detail, err := svc.Send(context.Background(), parent, SendChatMessageRequest{ReceiverID: "coach-user-1", Content: "  Hello coach ", EnrollmentID: &enrollmentID})
	require.NoError(t, err)
	assert.Equal(t, "Hello coach", detail.Content)
	assert.Equal(t, "Ravi", detail.ReceiverName)
	require.NotNil(t, detail.EnrollmentID)
	require.Len(t, repo.messages, 1)

	require.Len(t, pub.published["coach-user-1"], 1)
	assert.Equal(t, chatMessageEvent, pub.published["coach-user-1"][0].Type)
	assert.Len(t, pub.published["parent-1"], 1)

	coach := models.UserInfo{ID: "coach-user-1", Name: "Ravi", Role: models.RoleCoach}
	_, err = svc.Send(context.Background(), coach, SendChatMessageRequest{ReceiverID: "parent-1", Content: "Hi"})
	require.NoError(t, err)

	list, err := svc.List(context.Background(), "parent-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestChatServiceRejections(t *testing.T) {
	parent := models.UserInfo{ID: "parent-1", Role: models.RoleParent}
	owner := models.UserInfo{ID: "owner-1", Role: models.RoleOwner}
	missing := "enr-missing"
	cases := []struct {
		name   string
		sender models.UserInfo
		req    SendChatMessageRequest
		want   *appErrors.Error
	}{
		{"empty content", parent, SendChatMessageRequest{ReceiverID: "coach-user-1", Content: "   "}, appErrors.ErrValidation},
		{"owner cannot chat", owner, SendChatMessageRequest{ReceiverID: "coach-user-1", Content: "hi"}, appErrors.ErrForbidden},
		{"parent to parent", parent, SendChatMessageRequest{ReceiverID: "parent-1", Content: "hi"}, appErrors.ErrNotFound},
		{"unknown receiver", parent, SendChatMessageRequest{ReceiverID: "ghost", Content: "hi"}, appErrors.ErrNotFound},
		{"unknown enrollment", parent, SendChatMessageRequest{ReceiverID: "coach-user-1", Content: "hi", EnrollmentID: &missing}, appErrors.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, pub := newChatFixture()
			_, err := svc.Send(context.Background(), tc.sender, tc.req)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.Empty(t, repo.messages)
			assert.Empty(t, pub.published)
		})
	}
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/jobs"
)

type notificationRepoStub struct {
	rows      []models.Notification
	createErr error
}

func (r *notificationRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, n *models.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	n.ID = "n-" + n.Type
	r.rows = append(r.rows, *n)
	return nil
}

func (r *notificationRepoStub) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	var out []models.Notification
	for i := len(r.rows) - 1; i >= 0; i-- {
		n := r.rows[i]
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *notificationRepoStub) MarkRead(ctx context.Context, id, userID string) error {
	for i := range r.rows {
		if r.rows[i].ID == id && r.rows[i].UserID == userID {
			r.rows[i].Read = true
			return nil
		}
	}
	return sql.ErrNoRows
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Submit(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func TestNotificationSendQueuesEmail(t *testing.T) {
	repo := &notificationRepoStub{}
	queue := &queueStub{}
	svc := NewNotificationService(repo, defaultUsers(), &senderStub{}, nil, nil, nil)
	svc.UseQueue(queue)

	n, err := svc.Send(context.Background(), SendNotificationRequest{UserID: "parent-1", Message: "Bring water"})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationCoach, n.Type)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, emailJobType, queue.jobs[0].Type)

	_, err = svc.Send(context.Background(), SendNotificationRequest{UserID: "ghost", Message: "hi"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Send(context.Background(), SendNotificationRequest{UserID: "parent-1"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestNotificationDispatchSwallowsQueueErrors(t *testing.T) {
	svc := NewNotificationService(&notificationRepoStub{}, defaultUsers(), &senderStub{}, nil, nil, nil)
	svc.Dispatch(&models.Notification{ID: "n-1"})

	svc.UseQueue(&queueStub{err: jobs.ErrQueueFull})
	assert.NotPanics(t, func() { svc.Dispatch(nil, &models.Notification{ID: "n-2"}) })
}

func TestNotificationHandleEmailJob(t *testing.T) {
	sender := &senderStub{}
	svc := NewNotificationService(&notificationRepoStub{}, defaultUsers(), sender, nil, nil, nil)

	details := "Pending approval"
	err := svc.HandleEmailJob(context.Background(), jobs.Job{Type: emailJobType, Payload: models.Notification{
		UserID: "parent-1", Type: "enrollment", Message: "Enrollment submitted", Details: &details,
	}})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "asha@example.com", sender.sent[0].To)
	assert.Equal(t, "New Notification: ENROLLMENT", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].Text, "Details: Pending approval")

	assert.NoError(t, svc.HandleEmailJob(context.Background(), jobs.Job{Payload: models.Notification{UserID: "ghost"}}))
	assert.NoError(t, svc.HandleEmailJob(context.Background(), jobs.Job{Payload: "garbage"}))

	sender.err = errors.New("provider down")
	assert.Error(t, svc.HandleEmailJob(context.Background(), jobs.Job{Payload: models.Notification{UserID: "parent-1", Type: "payment"}}))
}

func TestNotificationListAndMarkRead(t *testing.T) {
	repo := &notificationRepoStub{rows: []models.Notification{
		{ID: "n-1", UserID: "parent-1", Message: "first"},
		{ID: "n-2", UserID: "parent-1", Message: "second"},
		{ID: "n-3", UserID: "parent-2", Message: "other"},
	}}
	svc := NewNotificationService(repo, defaultUsers(), nil, nil, nil, nil)

	rows, err := svc.List(context.Background(), "parent-1", false)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "n-2", rows[0].ID)

	require.NoError(t, svc.MarkRead(context.Background(), "parent-1", "n-1"))
	unread, err := svc.List(context.Background(), "parent-1", true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	assert.True(t, errors.Is(svc.MarkRead(context.Background(), "parent-2", "n-1"), appErrors.ErrNotFound))

	empty, err := svc.List(context.Background(), "nobody", false)
	require.NoError(t, err)
	assert.NotNil(t, empty)
}

package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/require"

	"github.com/playpulse/playpulse-api/pkg/config"
)

type stubEmails struct {
	last *resend.SendEmailRequest
	err  error
}

func (s *stubEmails) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	s.last = params
	if s.err != nil {
		return nil, s.err
	}
	return &resend.SendEmailResponse{Id: "msg-1"}, nil
}

func TestResendSenderBuildsRequest(t *testing.T) {
	stub := &stubEmails{}
	sender := newResendSender(stub, "PlayPulse <no-reply@playpulse.test>", nil)

	err := sender.Send(context.Background(), Message{To: "parent@example.com", Subject: "New Notification: payment", Text: "paid"})
	require.NoError(t, err)
	require.Equal(t, []string{"parent@example.com"}, stub.last.To)
	require.Equal(t, "PlayPulse <no-reply@playpulse.test>", stub.last.From)
	require.Equal(t, "paid", stub.last.Text)
}

func TestResendSenderPropagatesErrors(t *testing.T) {
	sender := newResendSender(&stubEmails{err: errors.New("rate limited")}, "from@test", nil)

	err := sender.Send(context.Background(), Message{To: "a@b.c"})
	require.ErrorContains(t, err, "rate limited")

	require.Error(t, sender.Send(context.Background(), Message{}))
}

func TestNewFallsBackToConsole(t *testing.T) {
	sender := New(config.EmailConfig{Provider: config.EmailProviderResend}, nil)
	_, ok := sender.(*ConsoleSender)
	require.True(t, ok)

	sender = New(config.EmailConfig{Provider: config.EmailProviderResend, ResendAPIKey: "re_123"}, nil)
	_, ok = sender.(*ResendSender)
	require.True(t, ok)
}

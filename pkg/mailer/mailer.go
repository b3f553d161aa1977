package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/pkg/config"
)

// Message is a plain text email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// emailSender is the subset of the Resend client used here.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender delivers through the Resend API.
type ResendSender struct {
	emails emailSender
	from   string
	logger *zap.Logger
}

func NewResendSender(apiKey, from string, logger *zap.Logger) *ResendSender {
	return newResendSender(resend.NewClient(apiKey).Emails, from, logger)
}

func newResendSender(emails emailSender, from string, logger *zap.Logger) *ResendSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResendSender{emails: emails, from: from, logger: logger}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("recipient required")
	}
	sent, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	s.logger.Debug("email sent", zap.String("message_id", sent.Id), zap.String("subject", msg.Subject))
	return nil
}

// ConsoleSender logs emails instead of sending them. Used in development.
type ConsoleSender struct {
	logger *zap.Logger
}

func NewConsoleSender(logger *zap.Logger) *ConsoleSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleSender{logger: logger}
}

func (s *ConsoleSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email (console)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}

// New picks the provider from config. Resend without an API key falls back to the console.
func New(cfg config.EmailConfig, logger *zap.Logger) Sender {
	if cfg.Provider == config.EmailProviderResend && cfg.ResendAPIKey != "" {
		return NewResendSender(cfg.ResendAPIKey, cfg.From, logger)
	}
	return NewConsoleSender(logger)
}

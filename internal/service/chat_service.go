package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/realtime"
)

const chatMessageEvent = "chat_message"

type chatRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	ListForUser(ctx context.Context, userID string) ([]models.ChatMessageDetail, error)
}

type chatPublisher interface {
	Publish(userID string, msg realtime.Envelope) int
}

// SendChatMessageRequest is a direct message to the other side of a parent/coach pair.
type SendChatMessageRequest struct {
	ReceiverID   string  `json:"receiverId" validate:"required"`
	Content      string  `json:"content" validate:"required,max=4000"`
	EnrollmentID *string `json:"enrollmentId"`
}

// ChatService stores parent/coach messages and pushes them to connected sockets.
type ChatService struct {
	repo        chatRepository
	users       userReader
	enrollments enrollmentReader
	publisher   chatPublisher
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewChatService constructs ChatService. publisher may be nil.
func NewChatService(repo chatRepository, users userReader, enrollments enrollmentReader, publisher chatPublisher, validate *validator.Validate, logger *zap.Logger) *ChatService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{repo: repo, users: users, enrollments: enrollments, publisher: publisher, validator: validate, logger: logger}
}

// Send stores a message from sender to a user of the opposite role.
func (s *ChatService) Send(ctx context.Context, sender models.UserInfo, req SendChatMessageRequest) (*models.ChatMessageDetail, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chat message")
	}
	counterpart, ok := chatCounterpart(sender.Role)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only parents and coaches can chat")
	}

	receiver, err := s.users.FindByID(ctx, req.ReceiverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, string(counterpart)+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receiver")
	}
	if receiver.Role != counterpart {
		return nil, appErrors.Clone(appErrors.ErrNotFound, string(counterpart)+" not found")
	}

	var enrollmentID *string
	if req.EnrollmentID != nil && strings.TrimSpace(*req.EnrollmentID) != "" {
		id := strings.TrimSpace(*req.EnrollmentID)
		if _, err := s.enrollments.FindByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		}
		enrollmentID = &id
	}

	msg := &models.ChatMessage{
		SenderID:     sender.ID,
		ReceiverID:   receiver.ID,
		Content:      req.Content,
		EnrollmentID: enrollmentID,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save chat message")
	}

	detail := &models.ChatMessageDetail{
		ChatMessage:  *msg,
		SenderName:   sender.Name,
		SenderRole:   sender.Role,
		ReceiverName: receiver.Name,
		ReceiverRole: receiver.Role,
	}
	if s.publisher != nil {
		envelope := realtime.Envelope{Type: chatMessageEvent, Payload: detail}
		delivered := s.publisher.Publish(receiver.ID, envelope)
		s.publisher.Publish(sender.ID, envelope)
		s.logger.Debug("chat message pushed", zap.String("message_id", msg.ID), zap.Int("receiver_sockets", delivered))
	}
	return detail, nil
}

// List returns every message the user sent or received, oldest first.
func (s *ChatService) List(ctx context.Context, userID string) ([]models.ChatMessageDetail, error) {
	messages, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chat messages")
	}
	if messages == nil {
		messages = []models.ChatMessageDetail{}
	}
	return messages, nil
}

func chatCounterpart(role models.UserRole) (models.UserRole, bool) {
	switch role {
	case models.RoleParent:
		return models.RoleCoach, true
	case models.RoleCoach:
		return models.RoleParent, true
	}
	return "", false
}

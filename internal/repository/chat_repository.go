package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/playpulse/playpulse-api/internal/models"
)

// ChatRepository persists parent-coach messages.
type ChatRepository struct {
	db *sqlx.DB
}

func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO chat_messages (id, sender_id, receiver_id, content, enrollment_id, created_at)
VALUES (:id, :sender_id, :receiver_id, :content, :enrollment_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}
	return nil
}

// ListForUser returns every message the user sent or received, oldest first.
func (r *ChatRepository) ListForUser(ctx context.Context, userID string) ([]models.ChatMessageDetail, error) {
	const query = `SELECT m.id, m.sender_id, m.receiver_id, m.content, m.enrollment_id, m.created_at,
	s.name AS sender_name, s.role AS sender_role, rc.name AS receiver_name, rc.role AS receiver_role
FROM chat_messages m
JOIN users s ON s.id = m.sender_id
JOIN users rc ON rc.id = m.receiver_id
WHERE m.sender_id = $1 OR m.receiver_id = $1
ORDER BY m.created_at ASC, m.id ASC`
	var rows []models.ChatMessageDetail
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return rows, nil
}

package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

/*
	CREATE TABLE messages (
		id              UUID PRIMARY KEY,
		conversation_id UUID NOT NULL REFERENCES conversations(id),
		sender_id       UUID NOT NULL REFERENCES users(id),
		sender_role     TEXT NOT NULL,
		content         TEXT NOT NULL,
		is_read         BOOLEAN NOT NULL DEFAULT false,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX idx_messages_conversation ON messages (conversation_id, created_at);
*/

func (r *MessageRepo) AppendMessage(ctx context.Context, m *domain.Message) error {
	if m.ConversationID == uuid.Nil {
		return domain.ErrNotFound
	}
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, sender_role, content, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.ConversationID, m.SenderID, m.SenderRole, m.Content, m.IsRead, m.CreatedAt)
	return err
}

// MarkAllReadExceptAuthor flips the read flag on messages the reader did not
// author. false -> true only; rows already read are untouched, which keeps
// the operation idempotent.
func (r *MessageRepo) MarkAllReadExceptAuthor(ctx context.Context, convID, readerID uuid.UUID) (int64, error) {
	exec := GetExecutor(ctx, r.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE messages
		SET is_read = true
		WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = false
	`, convID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *MessageRepo) ListByConversation(ctx context.Context, convID uuid.UUID) ([]domain.Message, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, conversation_id, sender_id, sender_role, content, is_read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`, convID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID,
			&m.SenderRole, &m.Content, &m.IsRead, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

/*
	CREATE TABLE conversations (
		id               UUID PRIMARY KEY,
		user_id          UUID NOT NULL REFERENCES users(id),
		lawyer_id        UUID NOT NULL REFERENCES users(id),
		last_message     TEXT NOT NULL DEFAULT '',
		last_message_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		unread_by_user   INT NOT NULL DEFAULT 0,
		unread_by_lawyer INT NOT NULL DEFAULT 0,
		status           TEXT NOT NULL DEFAULT 'active',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, lawyer_id)
	);
*/

const convColumns = `id, user_id, lawyer_id, last_message, last_message_at, unread_by_user, unread_by_lawyer, status, created_at`

func scanConversation(row interface{ Scan(...any) error }) (*domain.Conversation, error) {
	var c domain.Conversation
	err := row.Scan(
		&c.ID, &c.UserID, &c.LawyerID,
		&c.LastMessage, &c.LastMessageAt,
		&c.UnreadByUser, &c.UnreadByLawyer,
		&c.Status, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ConversationRepo) GetConversationByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	exec := GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, `SELECT `+convColumns+` FROM conversations WHERE id = $1`, id)
	return scanConversation(row)
}

func (r *ConversationRepo) FindByPair(ctx context.Context, userID, lawyerID uuid.UUID) (*domain.Conversation, error) {
	exec := GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx,
		`SELECT `+convColumns+` FROM conversations WHERE user_id = $1 AND lawyer_id = $2`,
		userID, lawyerID)
	return scanConversation(row)
}

// CreateConversation inserts the pair's conversation or, when a concurrent
// first contact already won the unique-index race, returns the winner's row.
func (r *ConversationRepo) CreateConversation(ctx context.Context, c *domain.Conversation) (*domain.Conversation, error) {
	exec := GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, `
		INSERT INTO conversations (id, user_id, lawyer_id, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, lawyer_id) DO NOTHING
		RETURNING `+convColumns+`
	`, c.ID, c.UserID, c.LawyerID, c.Status)
	created, err := scanConversation(row)
	switch {
	case err == nil:
		return created, nil
	case errors.Is(err, domain.ErrNotFound):
		// Lost the race; hand back the existing conversation.
		return r.FindByPair(ctx, c.UserID, c.LawyerID)
	default:
		return nil, err
	}
}

func (r *ConversationRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+convColumns+`
		FROM conversations
		WHERE user_id = $1 OR lawyer_id = $1
		ORDER BY last_message_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// RecordActivity caches the preview, bumps the activity timestamp and
// increments the recipient-side unread counter atomically, returning the
// counter's new value.
func (r *ConversationRepo) RecordActivity(ctx context.Context, id uuid.UUID, preview string, recipientIsLawyer bool) (int, error) {
	exec := GetExecutor(ctx, r.db)
	var query string
	if recipientIsLawyer {
		query = `
			UPDATE conversations
			SET last_message = $2, last_message_at = now(), unread_by_lawyer = unread_by_lawyer + 1
			WHERE id = $1
			RETURNING unread_by_lawyer`
	} else {
		query = `
			UPDATE conversations
			SET last_message = $2, last_message_at = now(), unread_by_user = unread_by_user + 1
			WHERE id = $1
			RETURNING unread_by_user`
	}
	var unread int
	if err := exec.QueryRowContext(ctx, query, id, preview).Scan(&unread); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return unread, nil
}

func (r *ConversationRepo) ResetUnread(ctx context.Context, id uuid.UUID, readerIsLawyer bool) error {
	exec := GetExecutor(ctx, r.db)
	column := "unread_by_user"
	if readerIsLawyer {
		column = "unread_by_lawyer"
	}
	_, err := exec.ExecContext(ctx, `UPDATE conversations SET `+column+` = 0 WHERE id = $1`, id)
	return err
}

func (r *ConversationRepo) CounterpartIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT CASE WHEN user_id = $1 THEN lawyer_id ELSE user_id END
		FROM conversations
		WHERE user_id = $1 OR lawyer_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

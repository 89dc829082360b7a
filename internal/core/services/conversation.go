package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MZhann/AI-Legal-Assistant/internal/config"
	"github.com/MZhann/AI-Legal-Assistant/internal/core/contracts"
	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
)

var tracer = otel.Tracer("conversation-service")

// ConversationUpdate is what a caller needs to notify the recipient's
// personal channel after an append.
type ConversationUpdate struct {
	ConversationID uuid.UUID
	RecipientID    uuid.UUID
	LastMessage    string
	LastMessageAt  time.Time
	UnreadCount    int
}

// ConversationService is the single logical owner of conversation mutation.
// Every write to one conversation runs under that conversation's lock and
// inside one store transaction, so concurrent sends and read receipts cannot
// lose counter updates.
type ConversationService struct {
	log   *slog.Logger
	conv  domain.ConversationRepository
	msgs  domain.MessageRepository
	users domain.UserRepository
	tx    contracts.TxManager
	locks *lockTable

	maxMessageLen int
	previewLen    int
}

func NewConversationService(
	log *slog.Logger,
	conv domain.ConversationRepository,
	msgs domain.MessageRepository,
	users domain.UserRepository,
	tx contracts.TxManager,
	cfg config.ChatConfig,
) *ConversationService {
	return &ConversationService{
		log:           log,
		conv:          conv,
		msgs:          msgs,
		users:         users,
		tx:            tx,
		locks:         newLockTable(),
		maxMessageLen: cfg.MaxMessageLength,
		previewLen:    cfg.PreviewLength,
	}
}

// GetOrCreate returns the pair's conversation, creating it on first contact.
// Safe under concurrent first contact from both sides: the unique
// (user_id, lawyer_id) index decides the winner and the loser receives the
// winner's row.
func (s *ConversationService) GetOrCreate(ctx context.Context, userID, lawyerID uuid.UUID) (*domain.Conversation, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.GetOrCreate", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
		attribute.String("lawyer_id", lawyerID.String()),
	))
	defer span.End()

	lawyer, err := s.users.GetUserByID(ctx, lawyerID)
	if err != nil {
		return nil, fmt.Errorf("%w: lawyer", domain.ErrNotFound)
	}
	if lawyer.Role != domain.RoleLawyer {
		return nil, domain.ErrNotALawyer
	}

	if conv, err := s.conv.FindByPair(ctx, userID, lawyerID); err == nil {
		return conv, nil
	}
	conv, err := s.conv.CreateConversation(ctx, &domain.Conversation{
		ID:       uuid.New(),
		UserID:   userID,
		LawyerID: lawyerID,
		Status:   domain.ConversationActive,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create conversation failed")
		s.log.ErrorContext(ctx, "conversation - get or create - create failed", "user_id", userID, "lawyer_id", lawyerID, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "conversation - get or create - ready", "conv_id", conv.ID, "user_id", userID, "lawyer_id", lawyerID)
	return conv, nil
}

// Append validates, persists and accounts one message, returning the durable
// copy plus the summary update destined for the recipient's personal channel.
// Nothing may be fanned out if persistence fails.
//
// publish, when non-nil, runs after the transaction commits but before the
// conversation's lock is released. Emitting events there guarantees room
// members observe messages in persistence order; a publish issued after
// Append returns can be overtaken by a concurrent sender.
func (s *ConversationService) Append(
	ctx context.Context,
	convID, senderID uuid.UUID,
	senderRole domain.Role,
	content string,
	publish func(msg *domain.Message, update *ConversationUpdate),
) (*domain.Message, *ConversationUpdate, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.Append", trace.WithAttributes(
		attribute.String("conv_id", convID.String()),
		attribute.String("sender_id", senderID.String()),
		attribute.Int("content_len", len(content)),
	))
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, fmt.Errorf("%w: empty message", domain.ErrValidation)
	}
	if n := len([]rune(content)); n > s.maxMessageLen {
		return nil, nil, fmt.Errorf("%w: message exceeds %d characters", domain.ErrValidation, s.maxMessageLen)
	}

	mu := s.locks.lock(convID)
	defer mu.Unlock()

	var (
		msg    *domain.Message
		update *ConversationUpdate
	)
	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		conv, err := s.conv.GetConversationByID(txCtx, convID)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(senderID) {
			return domain.ErrAuthorization
		}
		msg = &domain.Message{
			ID:             uuid.New(),
			ConversationID: convID,
			SenderID:       senderID,
			SenderRole:     senderRole,
			Content:        content,
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.msgs.AppendMessage(txCtx, msg); err != nil {
			return err
		}
		recipientID := conv.Counterpart(senderID)
		preview := truncateRunes(content, s.previewLen)
		// The sender's counterpart owns the incremented counter.
		recipientIsLawyer := recipientID == conv.LawyerID
		unread, err := s.conv.RecordActivity(txCtx, convID, preview, recipientIsLawyer)
		if err != nil {
			return err
		}
		update = &ConversationUpdate{
			ConversationID: convID,
			RecipientID:    recipientID,
			LastMessage:    preview,
			LastMessageAt:  msg.CreatedAt,
			UnreadCount:    unread,
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		s.log.ErrorContext(ctx, "conversation - append - persist failed", "conv_id", convID, "sender_id", senderID, "err", err)
		return nil, nil, err
	}
	if publish != nil {
		publish(msg, update)
	}
	s.log.InfoContext(ctx, "conversation - append - message persisted", "conv_id", convID, "msg_id", msg.ID, "sender_id", senderID)
	return msg, update, nil
}

// MarkRead flips the read flag on everything the reader did not author and
// zeroes the reader's counter. Idempotent; returns whether anything changed
// and who authored the now-read messages.
func (s *ConversationService) MarkRead(ctx context.Context, convID, readerID uuid.UUID) (bool, uuid.UUID, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.MarkRead", trace.WithAttributes(
		attribute.String("conv_id", convID.String()),
		attribute.String("reader_id", readerID.String()),
	))
	defer span.End()

	mu := s.locks.lock(convID)
	defer mu.Unlock()

	var (
		changed     bool
		counterpart uuid.UUID
	)
	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		conv, err := s.conv.GetConversationByID(txCtx, convID)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(readerID) {
			return domain.ErrAuthorization
		}
		counterpart = conv.Counterpart(readerID)
		n, err := s.msgs.MarkAllReadExceptAuthor(txCtx, convID, readerID)
		if err != nil {
			return err
		}
		changed = n > 0
		readerIsLawyer := readerID == conv.LawyerID
		return s.conv.ResetUnread(txCtx, convID, readerIsLawyer)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark read failed")
		s.log.ErrorContext(ctx, "conversation - mark read - failed", "conv_id", convID, "reader_id", readerID, "err", err)
		return false, uuid.Nil, err
	}
	return changed, counterpart, nil
}

// History returns the conversation's messages in append order.
func (s *ConversationService) History(ctx context.Context, convID, requesterID uuid.UUID) ([]domain.Message, error) {
	conv, err := s.conv.GetConversationByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(requesterID) {
		return nil, domain.ErrAuthorization
	}
	return s.msgs.ListByConversation(ctx, convID)
}

// ListForUser returns the caller's conversations, newest activity first.
func (s *ConversationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	return s.conv.ListForUser(ctx, userID)
}

// Authorize reports whether the user participates in the conversation.
func (s *ConversationService) Authorize(ctx context.Context, convID, userID uuid.UUID) error {
	conv, err := s.conv.GetConversationByID(ctx, convID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return domain.ErrAuthorization
	}
	return nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MZhann/AI-Legal-Assistant/internal/app/hub"
	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
	"github.com/MZhann/AI-Legal-Assistant/internal/core/services"
	"github.com/MZhann/AI-Legal-Assistant/internal/platform/logger"
	"github.com/MZhann/AI-Legal-Assistant/pkg/middleware"
)

type ChatHandler struct {
	userSvc *services.UserService
	convs   *services.ConversationService
	hub     *hub.Hub
}

func NewChatHandler(u *services.UserService, c *services.ConversationService, h *hub.Hub) *ChatHandler {
	return &ChatHandler{userSvc: u, convs: c, hub: h}
}

// Lawyers lists lawyer accounts, online first. The durable flag may lag a
// just-closed socket, so the live registry wins for users on this node.
func (h *ChatHandler) Lawyers(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	lawyers, err := h.userSvc.Lawyers(r.Context())
	if err != nil {
		log.ErrorContext(r.Context(), "chat handler - list lawyers failed", "err", err)
		http.Error(w, "failed to list lawyers", http.StatusInternalServerError)
		return
	}
	type lawyerDTO struct {
		ID         uuid.UUID `json:"id"`
		FirstName  string    `json:"first_name"`
		LastName   string    `json:"last_name"`
		FatherName string    `json:"father_name,omitempty"`
		IsOnline   bool      `json:"is_online"`
		LastSeenAt string    `json:"last_seen_at"`
	}
	out := make([]lawyerDTO, 0, len(lawyers))
	for _, l := range lawyers {
		out = append(out, lawyerDTO{
			ID:         l.ID,
			FirstName:  l.FirstName,
			LastName:   l.LastName,
			FatherName: l.FatherName,
			IsOnline:   l.IsOnline || h.hub.IsOnline(l.ID),
			LastSeenAt: l.LastSeenAt.Format(time.RFC3339),
		})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"lawyers": out})
}

// StartChat returns the caller's conversation with the lawyer, creating it
// on first contact.
func (h *ChatHandler) StartChat(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	lawyerID, err := uuid.Parse(r.PathValue("lawyerID"))
	if err != nil {
		http.Error(w, "invalid lawyer id", http.StatusBadRequest)
		return
	}
	conv, err := h.convs.GetOrCreate(r.Context(), principal.UserID, lawyerID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotALawyer):
			http.Error(w, "lawyer not found", http.StatusNotFound)
		default:
			log.ErrorContext(r.Context(), "chat handler - start chat failed", "lawyer_id", lawyerID, "err", err)
			http.Error(w, "failed to start chat", http.StatusInternalServerError)
		}
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"chat": conversationDTO(conv, principal.UserID)})
}

// Chats lists the caller's conversations, newest activity first.
func (h *ChatHandler) Chats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	convs, err := h.convs.ListForUser(r.Context(), principal.UserID)
	if err != nil {
		log.ErrorContext(r.Context(), "chat handler - list chats failed", "user_id", principal.UserID, "err", err)
		http.Error(w, "failed to list chats", http.StatusInternalServerError)
		return
	}
	out := make([]map[string]any, 0, len(convs))
	for i := range convs {
		out = append(out, conversationDTO(&convs[i], principal.UserID))
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"chats": out, "total": len(out)})
}

// Messages returns the conversation history in append order.
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	convID, err := uuid.Parse(r.PathValue("chatID"))
	if err != nil {
		http.Error(w, "invalid chat id", http.StatusBadRequest)
		return
	}
	msgs, err := h.convs.History(r.Context(), convID, principal.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "chat not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrAuthorization):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			log.ErrorContext(r.Context(), "chat handler - history failed", "conv_id", convID, "err", err)
			http.Error(w, "failed to load messages", http.StatusInternalServerError)
		}
		return
	}
	bodies := make([]domain.MessageBody, 0, len(msgs))
	for _, m := range msgs {
		bodies = append(bodies, domain.MessageBody{
			ID:         m.ID,
			SenderID:   m.SenderID,
			SenderRole: m.SenderRole,
			Content:    m.Content,
			IsRead:     m.IsRead,
			CreatedAt:  m.CreatedAt,
		})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": bodies})
}

func conversationDTO(c *domain.Conversation, viewer uuid.UUID) map[string]any {
	return map[string]any{
		"id":              c.ID,
		"user_id":         c.UserID,
		"lawyer_id":       c.LawyerID,
		"last_message":    c.LastMessage,
		"last_message_at": c.LastMessageAt,
		"unread_count":    c.UnreadFor(viewer),
		"status":          c.Status,
	}
}

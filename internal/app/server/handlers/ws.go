package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MZhann/AI-Legal-Assistant/internal/app/hub"
	"github.com/MZhann/AI-Legal-Assistant/internal/app/server/ws"
	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
	"github.com/MZhann/AI-Legal-Assistant/internal/core/services"
	"github.com/MZhann/AI-Legal-Assistant/internal/platform/logger"
	"github.com/MZhann/AI-Legal-Assistant/internal/platform/metrics"
	"github.com/MZhann/AI-Legal-Assistant/pkg/middleware"
)

type WSHandler struct {
	hub       *hub.Hub
	gate      *services.SessionGate
	convs     *services.ConversationService
	presence  *services.PresenceService
	heartbeat time.Duration
}

func NewWSHandler(
	h *hub.Hub,
	gate *services.SessionGate,
	convs *services.ConversationService,
	presence *services.PresenceService,
	heartbeat time.Duration,
) *WSHandler {
	return &WSHandler{hub: h, gate: gate, convs: convs, presence: presence, heartbeat: heartbeat}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // tighten later
	},
}

// Handler runs the whole connection lifecycle: gate, admit, dispatch, remove.
func (s *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	// The gate runs before the connection touches any other component. A
	// failed handshake is terminal for this attempt.
	principal, err := s.gate.Authenticate(r.Context(), middleware.BearerToken(r))
	if err != nil {
		log.WarnContext(r.Context(), "ws handler - gate refused connection", "err", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// The session outlives the upgrade request.
	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - upgrade failed", "user_id", principal.UserID, "err", err)
		cancel()
		return
	}
	socket := ws.NewWebSocket(ctx, conn)
	conn.SetCloseHandler(func(code int, text string) error {
		cancel()
		return nil
	})

	client := ws.NewClient(ctx, socket, principal.UserID, principal.Role)
	s.hub.Admit(client)
	defer cancel()
	// Remove cascades: room purge and, for the last device, the offline
	// transition. A transport failure takes the same path as a clean leave.
	defer s.hub.Remove(client.ConnID())

	log.InfoContext(ctx, "ws handler - connection established", "conn_id", client.ConnID(), "user_id", principal.UserID, "role", principal.Role)

	go s.heartbeatLoop(ctx, principal.UserID)

	// Frames from one connection are handled sequentially so one client's
	// sends reach the mutator in the order they were written.
	socket.ReadLoop(func(data []byte) {
		s.dispatch(ctx, client, data)
	})
}

func (s *WSHandler) heartbeatLoop(ctx context.Context, userID uuid.UUID) {
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.presence.Heartbeat(ctx, userID)
		}
	}
}

func (s *WSHandler) dispatch(ctx context.Context, client *ws.RuntimeClient, data []byte) {
	log := logger.FromContext(ctx)
	var in domain.InboundFrame
	if err := json.Unmarshal(data, &in); err != nil {
		s.sendError(ctx, client, domain.ErrValidation, "malformed frame")
		return
	}
	switch in.Type {
	case domain.TypeJoin:
		s.handleJoin(ctx, client, in)
	case domain.TypeLeave:
		s.hub.Leave(client.ConnID())
	case domain.TypeSend:
		s.handleSend(ctx, client, in)
	case domain.TypeMarkRead:
		s.handleMarkRead(ctx, client, in)
	case domain.TypeTyping:
		s.handleTyping(ctx, client, in)
	default:
		log.WarnContext(ctx, "ws handler - unknown frame type", "type", in.Type, "conn_id", client.ConnID())
		s.sendError(ctx, client, domain.ErrValidation, "unknown frame type")
	}
}

func (s *WSHandler) handleJoin(ctx context.Context, client *ws.RuntimeClient, in domain.InboundFrame) {
	convID, err := uuid.Parse(in.ConversationID)
	if err != nil {
		s.sendError(ctx, client, domain.ErrValidation, "invalid conversation id")
		return
	}
	if err := s.convs.Authorize(ctx, convID, client.UserID()); err != nil {
		s.sendError(ctx, client, err, "cannot join conversation")
		return
	}
	s.hub.Join(client.ConnID(), convID)
}

func (s *WSHandler) handleSend(ctx context.Context, client *ws.RuntimeClient, in domain.InboundFrame) {
	convID, err := uuid.Parse(in.ConversationID)
	if err != nil {
		s.sendError(ctx, client, domain.ErrValidation, "invalid conversation id")
		return
	}
	// The fanout runs inside Append's publish window, while the
	// conversation's lock is still held. Hub sends never block, so no I/O
	// happens under the lock, and room members observe messages in
	// persistence order.
	_, _, err = s.convs.Append(ctx, convID, client.UserID(), client.Role(), in.Content,
		func(msg *domain.Message, update *services.ConversationUpdate) {
			metrics.WsMessagesTotal.Inc()

			// Ack to the sender, then the authoritative echo to the room.
			s.hub.SendConn(ctx, client.ConnID(), domain.AckEvent{
				Type:           domain.TypeAck,
				ConversationID: convID,
				MessageID:      msg.ID,
				CreatedAt:      msg.CreatedAt,
			})
			s.hub.BroadcastRoom(ctx, convID, uuid.Nil, domain.MessageEvent{
				Type:           domain.TypeMessage,
				ConversationID: convID,
				Message: domain.MessageBody{
					ID:         msg.ID,
					SenderID:   msg.SenderID,
					SenderRole: msg.SenderRole,
					Content:    msg.Content,
					IsRead:     msg.IsRead,
					CreatedAt:  msg.CreatedAt,
				},
			})
			// Summary to the recipient's personal channel, so their
			// conversation list updates even if they never joined the room.
			s.hub.SendUser(ctx, update.RecipientID, domain.ChatUpdateEvent{
				Type:           domain.TypeChatUpdate,
				ConversationID: update.ConversationID,
				LastMessage:    update.LastMessage,
				LastMessageAt:  update.LastMessageAt,
				UnreadCount:    update.UnreadCount,
			})
		})
	if err != nil {
		// Failed appends fan out nothing; only the sender learns about it.
		s.sendError(ctx, client, err, "message not sent")
	}
}

func (s *WSHandler) handleMarkRead(ctx context.Context, client *ws.RuntimeClient, in domain.InboundFrame) {
	convID, err := uuid.Parse(in.ConversationID)
	if err != nil {
		s.sendError(ctx, client, domain.ErrValidation, "invalid conversation id")
		return
	}
	changed, counterpart, err := s.convs.MarkRead(ctx, convID, client.UserID())
	if err != nil {
		s.sendError(ctx, client, err, "mark read failed")
		return
	}
	// The receipt goes out only after the mutation is durable, and only
	// when something actually changed.
	if changed {
		s.hub.SendUser(ctx, counterpart, domain.ReadEvent{
			Type:           domain.TypeRead,
			ConversationID: convID,
			ReaderID:       client.UserID(),
		})
	}
}

// handleTyping relays the ephemeral signal to room members other than the
// typist. No persistence, no serialization; the next signal supersedes it.
func (s *WSHandler) handleTyping(ctx context.Context, client *ws.RuntimeClient, in domain.InboundFrame) {
	convID, err := uuid.Parse(in.ConversationID)
	if err != nil {
		return
	}
	// Joining ran the participant check; a connection typing into a room it
	// never joined is acting on a conversation it has no claim to.
	if room, ok := s.hub.RoomOf(client.ConnID()); !ok || room != convID {
		s.sendError(ctx, client, domain.ErrAuthorization, "not in conversation")
		return
	}
	s.hub.BroadcastRoom(ctx, convID, client.ConnID(), domain.TypingEvent{
		Type:           domain.TypeTyping,
		ConversationID: convID,
		UserID:         client.UserID(),
		IsTyping:       in.IsTyping,
	})
}

func (s *WSHandler) sendError(ctx context.Context, client *ws.RuntimeClient, err error, msg string) {
	if errors.Is(err, domain.ErrNotFound) {
		msg = "conversation not found"
	}
	s.hub.SendConn(ctx, client.ConnID(), domain.ErrorEvent{
		Type:    domain.TypeError,
		Code:    domain.ErrorCode(err),
		Message: msg,
	})
}

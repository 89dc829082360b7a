package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
	"github.com/MZhann/AI-Legal-Assistant/internal/platform/metrics"
)

// RuntimeClient is one admitted connection. It owns the buffered outbound
// queue and the single writer goroutine the gorilla API requires.
type RuntimeClient struct {
	ctx    context.Context
	cancel context.CancelFunc
	ws     *WebSocket
	connID uuid.UUID
	userID uuid.UUID
	role   domain.Role
	out    chan []byte
	once   sync.Once
}

func NewClient(parent context.Context, ws *WebSocket, userID uuid.UUID, role domain.Role) *RuntimeClient {
	ctx, cancel := context.WithCancel(parent)
	c := &RuntimeClient{
		ctx:    ctx,
		cancel: cancel,
		ws:     ws,
		connID: uuid.New(),
		userID: userID,
		role:   role,
		out:    make(chan []byte, 256),
	}
	go c.writeLoop()
	return c
}

func (c *RuntimeClient) ConnID() uuid.UUID { return c.connID }
func (c *RuntimeClient) UserID() uuid.UUID { return c.userID }
func (c *RuntimeClient) Role() domain.Role { return c.role }

// Send queues an event without blocking. A full buffer means the client is
// stale or too slow; the event is dropped, matching the best-effort fanout
// contract.
func (c *RuntimeClient) Send(ctx context.Context, data []byte) error {
	select {
	case <-c.ctx.Done():
		return errors.New("client closed")
	default:
	}
	select {
	case c.out <- data:
		return nil
	default:
		metrics.WsEventsDropped.Inc()
		return errors.New("client buffer full")
	}
}

func (c *RuntimeClient) Close() {
	c.once.Do(func() {
		c.cancel()
		c.ws.Close()
	})
}

func (c *RuntimeClient) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.out:
			if err := c.ws.WriteMessage(data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.Ping(); err != nil {
				return
			}
		}
	}
}

package handlers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/latestcomment/go-moderated-chat/internal/models"
	"github.com/latestcomment/go-moderated-chat/internal/services"
)

const (
	maxFrameSize = 64 * 1024
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
	writeWait    = 10 * time.Second
)

type WebSocketHandler struct {
	Engine     *services.Engine
	Logger     *slog.Logger
	SendBuffer int
}

func NewWebSocketHandler(engine *services.Engine, logger *slog.Logger, sendBuffer int) *WebSocketHandler {
	return &WebSocketHandler{Engine: engine, Logger: logger, SendBuffer: sendBuffer}
}

func (h *WebSocketHandler) WebSocketMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	conn := newSocketConn(c, h.SendBuffer, h.Logger)
	h.Logger.Debug("client connected", "conn", conn.id)

	go conn.writePump()
	defer func() {
		h.Engine.Disconnect(conn.id)
		conn.Close()
		// The fiber adapter recycles c once this handler returns.
		<-conn.stopped
		_ = c.Close()
		h.Logger.Debug("client disconnected", "conn", conn.id)
	}()

	c.SetReadLimit(maxFrameSize)
	_ = c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.Logger.Warn("websocket read failed", "conn", conn.id, "error", err)
			}
			return
		}
		h.Engine.Handle(conn, data)
	}
}

// socketConn adapts a websocket connection to models.Conn. Events are
// queued on send and written by writePump, the only writer of ws.
type socketConn struct {
	id     string
	ws     *websocket.Conn
	logger *slog.Logger

	send      chan models.Event
	done      chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}
}

func newSocketConn(ws *websocket.Conn, buffer int, logger *slog.Logger) *socketConn {
	return &socketConn{
		id:      uuid.New().String(),
		ws:      ws,
		logger:  logger,
		send:    make(chan models.Event, buffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (c *socketConn) ID() string { return c.id }

// Send queues ev without blocking. A full buffer drops the event for this
// connection only.
func (c *socketConn) Send(ev models.Event) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- ev:
	default:
		c.logger.Warn("send buffer full, dropping event", "conn", c.id, "type", ev.Type)
	}
}

// Close asks writePump to flush a close frame and shut the socket.
func (c *socketConn) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *socketConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.stopped)
	}()

	for {
		select {
		case ev := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				c.logger.Debug("websocket write failed", "conn", c.id, "error", err)
				c.Close()
				_ = c.ws.Close()
				return
			}

		case <-c.done:
			c.flush()
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = c.ws.Close()
			return

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				_ = c.ws.Close()
				return
			}
		}
	}
}

// flush writes whatever is still queued before the socket closes.
func (c *socketConn) flush() {
	for {
		select {
		case ev := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				return
			}
		default:
			return
		}
	}
}

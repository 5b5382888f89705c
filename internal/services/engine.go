package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/latestcomment/go-moderated-chat/internal/clock"
	"github.com/latestcomment/go-moderated-chat/internal/models"
)

// CredentialChecker grants the moderator role to a join request.
type CredentialChecker interface {
	CheckModerator(secret string) bool
}

type Options struct {
	ModerationWindow time.Duration
	Cooldown         time.Duration
	MaxNameLength    int
	MaxMessageLength int
	// HistoryLimit bounds the history log; zero keeps everything.
	HistoryLimit int
	// KickCloseDelay is how long a kicked connection stays open so the
	// kick notice can be flushed.
	KickCloseDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		ModerationWindow: 5 * time.Second,
		Cooldown:         5 * time.Second,
		MaxNameLength:    20,
		MaxMessageLength: 1000,
		KickCloseDelay:   100 * time.Millisecond,
	}
}

type Stats struct {
	Sessions int `json:"sessions"`
	Regular  int `json:"regular"`
	Pending  int `json:"pending"`
	History  int `json:"history"`
}

// Engine drives the registry, rate limiter, moderation queue and history
// log for every inbound event and timer firing. All of its state is
// guarded by mu. Outbound sends happen with mu held; Conn.Send never
// blocks, and holding the lock keeps every session's view of presence and
// history in mutation order.
type Engine struct {
	mu sync.Mutex

	opts    Options
	checker CredentialChecker
	clock   clock.Clock
	logger  *slog.Logger

	registry *Registry
	limiter  RateLimiter
	queue    *Queue
	history  *HistoryLog
	router   Router

	// closing holds kicked connections waiting for their delayed close.
	closing map[string]struct{}
}

func NewEngine(opts Options, checker CredentialChecker, clk clock.Clock, logger *slog.Logger) *Engine {
	e := &Engine{
		opts:     opts,
		checker:  checker,
		clock:    clk,
		logger:   logger,
		registry: NewRegistry(),
		limiter:  RateLimiter{Cooldown: opts.Cooldown},
		history:  NewHistoryLog(opts.HistoryLimit),
		closing:  make(map[string]struct{}),
	}
	e.queue = NewQueue(clk, opts.ModerationWindow, e.expire)
	return e
}

// Handle decodes one raw frame from conn and dispatches it. Malformed
// frames are logged and dropped.
func (e *Engine) Handle(conn models.Conn, raw []byte) {
	var ev models.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		e.logger.Warn("malformed inbound event", "conn", conn.ID(), "error", err)
		return
	}
	e.Dispatch(conn, ev)
}

// Dispatch applies one decoded inbound event from conn. The moderator
// credential check runs before the engine lock is taken.
func (e *Engine) Dispatch(conn models.Conn, ev models.Event) {
	granted := false
	if ev.Type == models.TypeJoin && strings.TrimSpace(ev.Username) == models.ModeratorName {
		granted = e.checker != nil && e.checker.CheckModerator(ev.Password)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.Type {
	case models.TypeJoin:
		e.join(conn, ev, granted)
	case models.TypeMessage:
		e.submit(conn, ev.Message)
	case models.TypeMessageApproved:
		e.decideAsModerator(conn, ev.MessageID, models.DecisionApproved)
	case models.TypeMessageRejected:
		e.decideAsModerator(conn, ev.MessageID, models.DecisionRejected)
	case models.TypeClearHistory:
		e.clearHistory(conn)
	case models.TypeKickAllUsers:
		e.kickAll(conn)
	default:
		e.logger.Debug("ignoring inbound event", "conn", conn.ID(), "type", ev.Type)
	}
}

// Disconnect tears down the session bound to connID, if any.
func (e *Engine) Disconnect(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.closing, connID)
	wasModerator := e.registry.IsModerator(connID)
	s, err := e.registry.Unregister(connID)
	if err != nil {
		return
	}
	e.queue.Forget(connID)

	if s.Role == models.RoleModerator {
		if wasModerator {
			e.logger.Info("moderator disconnected", "conn", connID)
		}
		return
	}

	e.logger.Info("user left", "conn", connID, "username", s.Name)
	snap := e.snapshot()
	e.deliver(
		e.router.PresenceLeft(snap, s.Name, e.clock.Now().UTC()),
		e.router.OnlineUsers(snap),
	)
}

// Shutdown disarms every pending timer without resolving the messages.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n := e.queue.ClearAll(); n > 0 {
		e.logger.Info("discarded pending messages on shutdown", "count", n)
	}
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Stats{
		Sessions: e.registry.Len(),
		Regular:  len(e.registry.Regular()),
		Pending:  e.queue.Len(),
		History:  e.history.Len(),
	}
}

// join registers conn. granted is the result of the moderator credential
// check, made by Dispatch outside the lock.
func (e *Engine) join(conn models.Conn, ev models.Event, granted bool) {
	if e.registry.Get(conn.ID()) != nil {
		e.logger.Debug("ignoring join from joined connection", "conn", conn.ID())
		return
	}
	if _, kicked := e.closing[conn.ID()]; kicked {
		e.logger.Debug("ignoring join from kicked connection", "conn", conn.ID())
		return
	}

	name, role, err := e.validateJoin(ev, granted)
	if err != nil {
		e.logger.Info("join rejected", "conn", conn.ID(), "error", err)
		conn.Send(models.JoinError(joinErrorReason(err)))
		return
	}

	previous := e.registry.CurrentModerator()
	s, err := e.registry.Register(conn, name, role)
	if err != nil {
		e.logger.Info("join rejected", "conn", conn.ID(), "error", err)
		conn.Send(models.JoinError(joinErrorReason(err)))
		return
	}
	conn.Send(models.JoinSuccess())

	if role == models.RoleModerator {
		if previous != nil {
			e.logger.Info("moderator replaced", "conn", conn.ID(), "previous", previous.ID)
		} else {
			e.logger.Info("moderator connected", "conn", conn.ID())
		}
		conn.Send(models.ChatHistory(e.history.All()))
		for _, msg := range e.queue.ListPending() {
			conn.Send(models.PendingForModerator(msg))
		}
		return
	}

	e.logger.Info("user joined", "conn", conn.ID(), "username", s.Name)
	snap := e.snapshot()
	e.deliver(
		e.router.PresenceJoined(snap, s, e.clock.Now().UTC()),
		e.router.OnlineUsers(snap),
	)
}

func (e *Engine) validateJoin(ev models.Event, granted bool) (string, models.Role, error) {
	name := strings.TrimSpace(ev.Username)
	if name == models.ModeratorName {
		if !granted {
			return "", 0, ErrModeratorDenied
		}
		return name, models.RoleModerator, nil
	}
	if n := utf8.RuneCountInString(name); n == 0 || n > e.opts.MaxNameLength {
		return "", 0, fmt.Errorf("%w: must be 1 to %d characters", ErrInvalidName, e.opts.MaxNameLength)
	}
	return name, models.RoleRegular, nil
}

func joinErrorReason(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateName):
		return "That username is already in use. Please choose another."
	case errors.Is(err, ErrModeratorDenied):
		return "Invalid moderator credential."
	default:
		return err.Error()
	}
}

func (e *Engine) submit(conn models.Conn, content string) {
	s := e.registry.Get(conn.ID())
	if s == nil || s.Role != models.RoleRegular {
		return
	}

	if strings.TrimSpace(content) == "" {
		conn.Send(models.MessageError(ErrEmptyContent.Error()))
		return
	}
	if utf8.RuneCountInString(content) > e.opts.MaxMessageLength {
		conn.Send(models.MessageError(fmt.Sprintf("%s (max %d characters)", ErrContentTooLong, e.opts.MaxMessageLength)))
		return
	}

	now := e.clock.Now()
	verdict := e.limiter.TryAccept(s, now)
	if !verdict.Allowed {
		conn.Send(models.CooldownError(verdict.RemainingSeconds))
		return
	}

	msg := e.queue.Submit(s, content, now)
	s.LastAcceptedAt = now
	e.logger.Debug("message pending", "id", msg.ID, "username", s.Name)

	conn.Send(models.MessagePending(msg))
	e.deliver(e.router.ToModerator(e.snapshot(), models.PendingForModerator(msg))...)
}

func (e *Engine) decideAsModerator(conn models.Conn, id string, d models.Decision) {
	if !e.registry.IsModerator(conn.ID()) {
		return
	}
	e.resolve(id, d)
}

// expire is the auto-approval timer callback.
func (e *Engine) expire(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resolve(id, models.DecisionApproved)
}

// resolve applies the terminal transition for id. Removal from the queue
// is the guard: whichever of decision or timer gets here first wins.
func (e *Engine) resolve(id string, d models.Decision) {
	msg, err := e.queue.Decide(id)
	if err != nil {
		e.logger.Debug("decision on unknown message", "id", id, "decision", d)
		return
	}
	e.history.Append(msg.Resolve(d))
	e.logger.Info("message decided", "id", id, "decision", d)

	snap := e.snapshot()
	if d == models.DecisionApproved {
		e.deliver(e.router.Approved(snap, msg)...)
	} else {
		e.deliver(e.router.Rejected(snap, msg)...)
	}
	e.deliver(e.router.ToModerator(snap, models.ChatHistory(e.history.All()))...)
}

func (e *Engine) clearHistory(conn models.Conn) {
	if !e.registry.IsModerator(conn.ID()) {
		return
	}
	e.history.Clear()
	e.logger.Info("history cleared", "conn", conn.ID())
	conn.Send(models.ChatHistory(nil))
}

func (e *Engine) kickAll(conn models.Conn) {
	if !e.registry.IsModerator(conn.ID()) {
		return
	}

	removed := e.registry.RetainModerator()
	kicked := 0
	for _, s := range removed {
		e.queue.Forget(s.ID)
		if s.Role != models.RoleRegular {
			continue
		}
		kicked++
		e.closing[s.ID] = struct{}{}
		s.Conn.Send(models.KickAllUsers())
		e.clock.AfterFunc(e.opts.KickCloseDelay, s.Conn.Close)
	}
	discarded := e.queue.ClearAll()
	e.logger.Info("kicked all users", "conn", conn.ID(), "users", kicked, "discarded", discarded)
}

func (e *Engine) snapshot() Snapshot {
	return Snapshot{
		Regular:   e.registry.Regular(),
		Names:     e.registry.ListRegular(),
		Moderator: e.registry.CurrentModerator(),
	}
}

func (e *Engine) deliver(deliveries ...Delivery) {
	for _, d := range deliveries {
		for _, s := range d.To {
			s.Conn.Send(d.Event)
		}
	}
}

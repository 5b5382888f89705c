package services

import (
	"fmt"
	"time"

	"github.com/latestcomment/go-moderated-chat/internal/clock"
	"github.com/latestcomment/go-moderated-chat/internal/models"
)

type pendingEntry struct {
	msg   models.PendingMessage
	timer *clock.Timer
}

// Queue holds messages awaiting a moderation decision and owns one
// auto-approval timer per entry. It is not safe for concurrent use; the
// expire callback must re-enter through the same serialization as every
// other call.
type Queue struct {
	clock    clock.Clock
	window   time.Duration
	onExpire func(id string)

	entries map[string]*pendingEntry
	order   []string
	// lastStamp is the last millisecond used in an id per session.
	lastStamp map[string]int64
}

// NewQueue returns a queue whose timers call onExpire with the message id
// once window has elapsed without a decision.
func NewQueue(clk clock.Clock, window time.Duration, onExpire func(id string)) *Queue {
	return &Queue{
		clock:     clk,
		window:    window,
		onExpire:  onExpire,
		entries:   make(map[string]*pendingEntry),
		lastStamp: make(map[string]int64),
	}
}

// Submit queues content from s and arms its auto-approval timer.
func (q *Queue) Submit(s *models.Session, content string, now time.Time) models.PendingMessage {
	stamp := now.UnixMilli()
	if last, ok := q.lastStamp[s.ID]; ok && stamp <= last {
		stamp = last + 1
	}
	q.lastStamp[s.ID] = stamp

	msg := models.PendingMessage{
		ID:        fmt.Sprintf("%s-%d", s.ID, stamp),
		Username:  s.Name,
		Content:   content,
		Timestamp: now.UTC(),
		UserID:    s.ID,
	}
	id := msg.ID
	q.entries[id] = &pendingEntry{
		msg:   msg,
		timer: q.clock.AfterFunc(q.window, func() { q.onExpire(id) }),
	}
	q.order = append(q.order, id)
	return msg
}

// Decide removes id from the queue and disarms its timer. It returns
// ErrNotFound when id is unknown or already resolved, which makes a late
// timer or a duplicate decision a no-op.
func (q *Queue) Decide(id string) (models.PendingMessage, error) {
	entry, ok := q.entries[id]
	if !ok {
		return models.PendingMessage{}, fmt.Errorf("decide %s: %w", id, ErrNotFound)
	}
	entry.timer.Stop()
	delete(q.entries, id)
	for i, existing := range q.order {
		if existing == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return entry.msg, nil
}

// ListPending returns the pending messages in submission order.
func (q *Queue) ListPending() []models.PendingMessage {
	out := make([]models.PendingMessage, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.entries[id].msg)
	}
	return out
}

// ClearAll disarms every timer and drops every entry without resolving
// them.
func (q *Queue) ClearAll() int {
	n := len(q.entries)
	for _, entry := range q.entries {
		entry.timer.Stop()
	}
	q.entries = make(map[string]*pendingEntry)
	q.order = nil
	return n
}

// Forget drops id bookkeeping for a session that has gone away.
func (q *Queue) Forget(sessionID string) {
	delete(q.lastStamp, sessionID)
}

func (q *Queue) Len() int {
	return len(q.entries)
}

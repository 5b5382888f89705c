package services

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/latestcomment/go-moderated-chat/internal/clock"
	"github.com/latestcomment/go-moderated-chat/internal/models"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeConn struct {
	id string

	mu     sync.Mutex
	events []models.Event
	closed bool
}

func newConn(id string) *fakeConn { return &fakeConn{id: id} }

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(ev models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) Events() []models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Event(nil), c.events...)
}

func (c *fakeConn) Types() []models.EventType {
	events := c.Events()
	types := make([]models.EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func (c *fakeConn) Last() models.Event {
	events := c.Events()
	if len(events) == 0 {
		return models.Event{}
	}
	return events[len(events)-1]
}

func (c *fakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

type staticChecker string

func (s staticChecker) CheckModerator(candidate string) bool {
	return candidate != "" && candidate == string(s)
}

const testSecret = "s3cret"

func newTestEngine(t *testing.T) (*Engine, *clock.FakeClock) {
	t.Helper()
	return newTestEngineWithChecker(t, staticChecker(testSecret))
}

func newTestEngineWithChecker(t *testing.T, checker CredentialChecker) (*Engine, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(epoch)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(DefaultOptions(), checker, clk, logger), clk
}

// gatedChecker blocks every credential check until release is closed.
type gatedChecker struct {
	entered chan struct{}
	release chan struct{}
}

func newGatedChecker() *gatedChecker {
	return &gatedChecker{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (c *gatedChecker) CheckModerator(string) bool {
	c.entered <- struct{}{}
	<-c.release
	return false
}

package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latestcomment/go-moderated-chat/internal/clock"
	"github.com/latestcomment/go-moderated-chat/internal/models"
)

func newTestQueue(t *testing.T) (*Queue, *clock.FakeClock, *[]string) {
	t.Helper()
	clk := clock.Fake(epoch)
	var expired []string
	var q *Queue
	q = NewQueue(clk, 5*time.Second, func(id string) {
		if _, err := q.Decide(id); err == nil {
			expired = append(expired, id)
		}
	})
	return q, clk, &expired
}

func TestQueueSubmitSnapshotsSession(t *testing.T) {
	t.Parallel()

	q, _, _ := newTestQueue(t)
	s := &models.Session{ID: "c1", Name: "Ana"}

	msg := q.Submit(s, "hola", epoch)
	s.Name = "Renamed"

	assert.Equal(t, "c1-1767268800000", msg.ID)
	assert.Equal(t, "Ana", msg.Username)
	assert.Equal(t, "hola", msg.Content)
	assert.Equal(t, "c1", msg.UserID)
	assert.Equal(t, epoch, msg.Timestamp)
	assert.Equal(t, []models.PendingMessage{msg}, q.ListPending())
}

func TestQueueIDsAreUniqueWithinOneMillisecond(t *testing.T) {
	t.Parallel()

	q, _, _ := newTestQueue(t)
	s := &models.Session{ID: "c1", Name: "Ana"}

	first := q.Submit(s, "one", epoch)
	second := q.Submit(s, "two", epoch)
	third := q.Submit(s, "three", epoch.Add(time.Millisecond))

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, second.ID, third.ID)
	assert.Equal(t, 3, q.Len())
}

func TestQueueAutoApprovesAfterWindow(t *testing.T) {
	t.Parallel()

	q, clk, expired := newTestQueue(t)
	msg := q.Submit(&models.Session{ID: "c1", Name: "Ana"}, "hola", epoch)

	clk.Advance(4999 * time.Millisecond)
	assert.Empty(t, *expired)

	clk.Advance(time.Millisecond)
	assert.Equal(t, []string{msg.ID}, *expired)
	assert.Equal(t, 0, q.Len())
}

func TestQueueDecideDisarmsTimer(t *testing.T) {
	t.Parallel()

	q, clk, expired := newTestQueue(t)
	msg := q.Submit(&models.Session{ID: "c1", Name: "Ana"}, "hola", epoch)

	got, err := q.Decide(msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
	assert.Equal(t, 0, clk.Pending())

	clk.Advance(time.Minute)
	assert.Empty(t, *expired)
}

func TestQueueSecondDecisionIsNotFound(t *testing.T) {
	t.Parallel()

	q, _, _ := newTestQueue(t)
	msg := q.Submit(&models.Session{ID: "c1", Name: "Ana"}, "hola", epoch)

	_, err := q.Decide(msg.ID)
	require.NoError(t, err)
	_, err = q.Decide(msg.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = q.Decide("unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueueDecisionAfterTimerIsNotFound(t *testing.T) {
	t.Parallel()

	q, clk, expired := newTestQueue(t)
	msg := q.Submit(&models.Session{ID: "c1", Name: "Ana"}, "hola", epoch)

	clk.Advance(5 * time.Second)
	require.Len(t, *expired, 1)

	_, err := q.Decide(msg.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueueListPendingKeepsSubmissionOrder(t *testing.T) {
	t.Parallel()

	q, _, _ := newTestQueue(t)
	a := q.Submit(&models.Session{ID: "a", Name: "Ana"}, "1", epoch)
	b := q.Submit(&models.Session{ID: "b", Name: "Bob"}, "2", epoch.Add(time.Second))
	c := q.Submit(&models.Session{ID: "c", Name: "Cleo"}, "3", epoch.Add(2*time.Second))

	_, err := q.Decide(b.ID)
	require.NoError(t, err)

	assert.Equal(t, []models.PendingMessage{a, c}, q.ListPending())
}

func TestQueueClearAllDisarmsEveryTimer(t *testing.T) {
	t.Parallel()

	q, clk, expired := newTestQueue(t)
	q.Submit(&models.Session{ID: "a", Name: "Ana"}, "1", epoch)
	q.Submit(&models.Session{ID: "b", Name: "Bob"}, "2", epoch)

	assert.Equal(t, 2, q.ClearAll())
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.ListPending())
	assert.Equal(t, 0, clk.Pending())

	clk.Advance(time.Minute)
	assert.Empty(t, *expired)
}

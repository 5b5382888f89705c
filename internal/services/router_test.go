package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latestcomment/go-moderated-chat/internal/models"
)

func sessionIDs(sessions []*models.Session) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID
	}
	return out
}

func testSnapshot() Snapshot {
	return Snapshot{
		Regular: []*models.Session{
			{ID: "a", Name: "Ana"},
			{ID: "b", Name: "Bob"},
			{ID: "c", Name: "Cleo"},
		},
		Names:     []string{"Ana", "Bob", "Cleo"},
		Moderator: &models.Session{ID: "mod", Name: models.ModeratorName, Role: models.RoleModerator},
	}
}

func TestRouterPresence(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	var router Router

	joined := router.PresenceJoined(snap, snap.Regular[1], epoch)
	assert.Equal(t, []string{"a", "c"}, sessionIDs(joined.To))
	assert.Equal(t, models.TypeUserJoined, joined.Event.Type)
	assert.Equal(t, "Bob", joined.Event.Username)

	left := router.PresenceLeft(snap, "Dan", epoch)
	assert.Equal(t, []string{"a", "b", "c"}, sessionIDs(left.To))
	assert.Equal(t, "Dan", left.Event.Username)

	online := router.OnlineUsers(snap)
	assert.Equal(t, []string{"a", "b", "c"}, sessionIDs(online.To))
	assert.Equal(t, []string{"Ana", "Bob", "Cleo"}, online.Event.Users)
}

func TestRouterApprovedSkipsSubmitter(t *testing.T) {
	t.Parallel()

	msg := models.PendingMessage{ID: "b-1", UserID: "b", Username: "Bob", Content: "hi"}
	out := Router{}.Approved(testSnapshot(), msg)

	require.Len(t, out, 2)
	assert.Equal(t, []string{"a", "c"}, sessionIDs(out[0].To))
	assert.Equal(t, models.ChatMessage(msg), out[0].Event)
	assert.Equal(t, []string{"b"}, sessionIDs(out[1].To))
	assert.Equal(t, models.MessageApproved("b-1"), out[1].Event)
}

func TestRouterApprovedForDepartedSubmitter(t *testing.T) {
	t.Parallel()

	msg := models.PendingMessage{ID: "z-1", UserID: "z", Username: "Zed", Content: "hi"}
	out := Router{}.Approved(testSnapshot(), msg)

	require.Len(t, out, 1)
	assert.Equal(t, []string{"a", "b", "c"}, sessionIDs(out[0].To))
}

func TestRouterRejectedReachesSubmitterOnly(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	out := Router{}.Rejected(snap, models.PendingMessage{ID: "a-1", UserID: "a"})
	require.Len(t, out, 1)
	assert.Equal(t, []string{"a"}, sessionIDs(out[0].To))
	assert.Equal(t, models.MessageRejected("a-1"), out[0].Event)

	assert.Empty(t, Router{}.Rejected(snap, models.PendingMessage{ID: "z-1", UserID: "z"}))
}

func TestRouterToModerator(t *testing.T) {
	t.Parallel()

	ev := models.ChatHistory(nil)
	out := Router{}.ToModerator(testSnapshot(), ev)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"mod"}, sessionIDs(out[0].To))

	assert.Empty(t, Router{}.ToModerator(Snapshot{}, ev), "dropped without a moderator")
}

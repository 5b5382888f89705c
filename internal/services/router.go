package services

import (
	"time"

	"github.com/latestcomment/go-moderated-chat/internal/models"
)

// Snapshot is the registry view a routing decision is made against.
type Snapshot struct {
	Regular   []*models.Session
	// Names lists the regular display names in presence order.
	Names     []string
	Moderator *models.Session
}

// Delivery pairs one event with the sessions that receive it.
type Delivery struct {
	To    []*models.Session
	Event models.Event
}

// Router decides the audience of every outbound event. It holds no state.
type Router struct{}

// PresenceJoined announces joiner to every other regular session.
func (Router) PresenceJoined(snap Snapshot, joiner *models.Session, at time.Time) Delivery {
	return Delivery{
		To:    except(snap.Regular, joiner.ID),
		Event: models.UserJoined(joiner.Name, at),
	}
}

// PresenceLeft announces a departure to every remaining regular session.
func (Router) PresenceLeft(snap Snapshot, name string, at time.Time) Delivery {
	return Delivery{To: snap.Regular, Event: models.UserLeft(name, at)}
}

// OnlineUsers pushes the current regular name list to every regular
// session.
func (Router) OnlineUsers(snap Snapshot) Delivery {
	return Delivery{To: snap.Regular, Event: models.OnlineUsers(snap.Names)}
}

// Approved broadcasts msg to every regular session except its submitter,
// who gets a private acknowledgment instead.
func (Router) Approved(snap Snapshot, msg models.PendingMessage) []Delivery {
	out := []Delivery{{
		To:    except(snap.Regular, msg.UserID),
		Event: models.ChatMessage(msg),
	}}
	if submitter := find(snap.Regular, msg.UserID); submitter != nil {
		out = append(out, Delivery{
			To:    []*models.Session{submitter},
			Event: models.MessageApproved(msg.ID),
		})
	}
	return out
}

// Rejected notifies the submitter only.
func (Router) Rejected(snap Snapshot, msg models.PendingMessage) []Delivery {
	submitter := find(snap.Regular, msg.UserID)
	if submitter == nil {
		return nil
	}
	return []Delivery{{
		To:    []*models.Session{submitter},
		Event: models.MessageRejected(msg.ID),
	}}
}

// ToModerator addresses ev to the current moderator. Without one the
// event is dropped.
func (Router) ToModerator(snap Snapshot, ev models.Event) []Delivery {
	if snap.Moderator == nil {
		return nil
	}
	return []Delivery{{To: []*models.Session{snap.Moderator}, Event: ev}}
}

func except(sessions []*models.Session, id string) []*models.Session {
	out := make([]*models.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

func find(sessions []*models.Session, id string) *models.Session {
	for _, s := range sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

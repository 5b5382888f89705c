package models

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	// Client -> Server
	TypeJoin         EventType = "join"
	TypeClearHistory EventType = "clear_history"

	// Both directions
	TypeMessage         EventType = "message"
	TypeMessageApproved EventType = "message_approved"
	TypeMessageRejected EventType = "message_rejected"
	TypeKickAllUsers    EventType = "kick_all_users"

	// Server -> Client
	TypeJoinSuccess    EventType = "join_success"
	TypeJoinError      EventType = "join_error"
	TypeMessagePending EventType = "message_pending"
	TypeMessageError   EventType = "message_error"
	TypeUserJoined     EventType = "user_joined"
	TypeUserLeft       EventType = "user_left"
	TypeOnlineUsers    EventType = "online_users"
	TypePendingMessage EventType = "pending_message"
	TypeChatHistory    EventType = "chat_history"
	TypeCooldownError  EventType = "cooldown_error"
)

// Event is the single frame shape exchanged over the socket. The Type
// field selects which of the optional fields are meaningful.
type Event struct {
	Type              EventType       `json:"type"`
	Username          string          `json:"username,omitempty"`
	Password          string          `json:"password,omitempty"`
	Message           string          `json:"message,omitempty"`
	Timestamp         *time.Time      `json:"timestamp,omitempty"`
	Users             []string        `json:"users,omitempty"`
	MessageID         string          `json:"messageId,omitempty"`
	PendingMessage    *PendingMessage `json:"pendingMessage,omitempty"`
	History           []HistoryEntry  `json:"history,omitempty"`
	CooldownRemaining int             `json:"cooldownRemaining,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// MarshalJSON always emits the list payloads of online_users and
// chat_history, even when empty, so clients can tell "cleared" from
// "absent".
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	switch e.Type {
	case TypeChatHistory:
		history := e.History
		if history == nil {
			history = []HistoryEntry{}
		}
		return json.Marshal(struct {
			plain
			History []HistoryEntry `json:"history"`
		}{plain(e), history})
	case TypeOnlineUsers:
		users := e.Users
		if users == nil {
			users = []string{}
		}
		return json.Marshal(struct {
			plain
			Users []string `json:"users"`
		}{plain(e), users})
	}
	return json.Marshal(plain(e))
}

func JoinSuccess() Event { return Event{Type: TypeJoinSuccess} }

func JoinError(reason string) Event { return Event{Type: TypeJoinError, Error: reason} }

func MessageError(reason string) Event { return Event{Type: TypeMessageError, Error: reason} }

func MessagePending(m PendingMessage) Event {
	ts := m.Timestamp
	return Event{Type: TypeMessagePending, MessageID: m.ID, Message: m.Content, Timestamp: &ts}
}

func MessageApproved(id string) Event { return Event{Type: TypeMessageApproved, MessageID: id} }

func MessageRejected(id string) Event { return Event{Type: TypeMessageRejected, MessageID: id} }

// ChatMessage is the broadcast copy of an approved message.
func ChatMessage(m PendingMessage) Event {
	ts := m.Timestamp
	return Event{Type: TypeMessage, Username: m.Username, Message: m.Content, Timestamp: &ts}
}

func UserJoined(name string, at time.Time) Event {
	return Event{Type: TypeUserJoined, Username: name, Timestamp: &at}
}

func UserLeft(name string, at time.Time) Event {
	return Event{Type: TypeUserLeft, Username: name, Timestamp: &at}
}

func OnlineUsers(names []string) Event { return Event{Type: TypeOnlineUsers, Users: names} }

func PendingForModerator(m PendingMessage) Event {
	return Event{Type: TypePendingMessage, PendingMessage: &m}
}

func ChatHistory(entries []HistoryEntry) Event {
	return Event{Type: TypeChatHistory, History: entries}
}

func CooldownError(remainingSeconds int) Event {
	return Event{Type: TypeCooldownError, CooldownRemaining: remainingSeconds}
}

func KickAllUsers() Event { return Event{Type: TypeKickAllUsers} }

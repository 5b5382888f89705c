package models

import "time"

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// PendingMessage is a submitted message awaiting a moderation decision.
// Username is captured at submission time.
type PendingMessage struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Content   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`
}

// HistoryEntry is the terminal record of a moderated message.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Content   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Status    Decision  `json:"status"`
}

// Resolve produces the history record for m with the given outcome.
func (m PendingMessage) Resolve(d Decision) HistoryEntry {
	return HistoryEntry{
		ID:        m.ID,
		Username:  m.Username,
		Content:   m.Content,
		Timestamp: m.Timestamp,
		Status:    d,
	}
}

package services

import "github.com/latestcomment/go-moderated-chat/internal/models"

// HistoryLog is the append-only record of moderation decisions. A positive
// limit keeps only the newest entries.
type HistoryLog struct {
	entries []models.HistoryEntry
	limit   int
}

func NewHistoryLog(limit int) *HistoryLog {
	return &HistoryLog{limit: limit}
}

// Append records entry at its submission-order position.
func (h *HistoryLog) Append(entry models.HistoryEntry) {
	i := len(h.entries)
	for i > 0 && h.entries[i-1].Timestamp.After(entry.Timestamp) {
		i--
	}
	h.entries = append(h.entries, models.HistoryEntry{})
	copy(h.entries[i+1:], h.entries[i:])
	h.entries[i] = entry
	if h.limit > 0 && len(h.entries) > h.limit {
		h.entries = append([]models.HistoryEntry(nil), h.entries[len(h.entries)-h.limit:]...)
	}
}

// All returns a copy of the log in submission order.
func (h *HistoryLog) All() []models.HistoryEntry {
	return append([]models.HistoryEntry{}, h.entries...)
}

func (h *HistoryLog) Clear() {
	h.entries = nil
}

func (h *HistoryLog) Len() int {
	return len(h.entries)
}

package services

import (
	"time"

	"github.com/latestcomment/go-moderated-chat/internal/models"
)

// Verdict is the result of a rate-limit check. RemainingSeconds is set
// only when the attempt is denied.
type Verdict struct {
	Allowed          bool
	RemainingSeconds int
}

// RateLimiter enforces a fixed cooldown between accepted messages of one
// session. It reads Session.LastAcceptedAt but never writes it; the caller
// stamps the session once the message is actually queued.
type RateLimiter struct {
	Cooldown time.Duration
}

func (l RateLimiter) TryAccept(s *models.Session, now time.Time) Verdict {
	if s.LastAcceptedAt.IsZero() {
		return Verdict{Allowed: true}
	}
	elapsed := now.Sub(s.LastAcceptedAt)
	if elapsed >= l.Cooldown {
		return Verdict{Allowed: true}
	}
	remaining := l.Cooldown - elapsed
	seconds := int((remaining + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return Verdict{RemainingSeconds: seconds}
}

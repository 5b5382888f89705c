package models

import "time"

type Role int

const (
	RoleRegular Role = iota
	RoleModerator
)

func (r Role) String() string {
	if r == RoleModerator {
		return "moderator"
	}
	return "regular"
}

// ModeratorName is the reserved display name a moderator joins with. It is
// never shown to regular users and is exempt from uniqueness checks.
const ModeratorName = "__ADMIN__"

type Session struct {
	ID   string
	Name string
	Role Role
	Conn Conn `json:"-"`
	// LastAcceptedAt is zero until the first message is accepted into the
	// moderation queue.
	LastAcceptedAt time.Time
}

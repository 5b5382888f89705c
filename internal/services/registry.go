package services

import (
	"fmt"
	"strings"

	"github.com/latestcomment/go-moderated-chat/internal/models"
)

// Registry maps live connections to sessions. It is not safe for
// concurrent use; the Engine serializes access.
type Registry struct {
	sessions    map[string]*models.Session
	order       []string
	moderatorID string
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*models.Session)}
}

// Register inserts a session for conn. Regular names are unique
// case-insensitively among regular sessions; moderator names are not
// checked. Registering a moderator makes it the current moderator, and any
// previous moderator session loses that status but stays registered.
func (r *Registry) Register(conn models.Conn, name string, role models.Role) (*models.Session, error) {
	if role == models.RoleRegular {
		for _, s := range r.sessions {
			if s.Role == models.RoleRegular && strings.EqualFold(s.Name, name) {
				return nil, fmt.Errorf("register %q: %w", name, ErrDuplicateName)
			}
		}
	}

	id := conn.ID()
	if _, exists := r.sessions[id]; !exists {
		r.order = append(r.order, id)
	}
	s := &models.Session{ID: id, Name: name, Role: role, Conn: conn}
	r.sessions[id] = s
	if role == models.RoleModerator {
		r.moderatorID = id
	}
	return s, nil
}

// Unregister removes and returns the session for id.
func (r *Registry) Unregister(id string) (*models.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unregister %s: %w", id, ErrNotFound)
	}
	delete(r.sessions, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.moderatorID == id {
		r.moderatorID = ""
	}
	return s, nil
}

func (r *Registry) Get(id string) *models.Session {
	return r.sessions[id]
}

// IsModerator reports whether id is the current moderator.
func (r *Registry) IsModerator(id string) bool {
	return id != "" && r.moderatorID == id
}

// CurrentModerator returns the current moderator session or nil.
func (r *Registry) CurrentModerator() *models.Session {
	if r.moderatorID == "" {
		return nil
	}
	return r.sessions[r.moderatorID]
}

// Regular returns the regular sessions in insertion order.
func (r *Registry) Regular() []*models.Session {
	out := make([]*models.Session, 0, len(r.order))
	for _, id := range r.order {
		if s := r.sessions[id]; s.Role == models.RoleRegular {
			out = append(out, s)
		}
	}
	return out
}

// ListRegular returns the display names of regular sessions in insertion
// order.
func (r *Registry) ListRegular() []string {
	regular := r.Regular()
	names := make([]string, len(regular))
	for i, s := range regular {
		names[i] = s.Name
	}
	return names
}

// RetainModerator drops every session except the current moderator and
// returns the removed sessions in insertion order.
func (r *Registry) RetainModerator() []*models.Session {
	var removed []*models.Session
	var kept []string
	for _, id := range r.order {
		if id == r.moderatorID {
			kept = append(kept, id)
			continue
		}
		removed = append(removed, r.sessions[id])
		delete(r.sessions, id)
	}
	r.order = kept
	return removed
}

func (r *Registry) Len() int {
	return len(r.sessions)
}

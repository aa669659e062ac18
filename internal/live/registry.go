package live

import (
	"sync"

	"github.com/google/uuid"
)

// Conn is one open live connection of a user.
type Conn interface {
	ID() string
	UserID() uuid.UUID
	// Send must not block. An error means the connection is unusable.
	Send(msg Message) error
	Close()
}

// Registry maps users to their open connections. A user may hold several
// connections at once (tabs, devices). The registry starts empty and is
// never persisted.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[uuid.UUID]map[string]Conn),
	}
}

func (r *Registry) Register(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.conns[c.UserID()]
	if !ok {
		byID = make(map[string]Conn)
		r.conns[c.UserID()] = byID
	}
	byID[c.ID()] = c
}

// Unregister removes one connection and reports whether it was present.
// Removing an unknown handle is a no-op, so every exit path may call it.
func (r *Registry) Unregister(userID uuid.UUID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.conns[userID]
	if !ok {
		return false
	}
	if _, ok := byID[connID]; !ok {
		return false
	}

	delete(byID, connID)
	if len(byID) == 0 {
		delete(r.conns, userID)
	}
	return true
}

// ConnectionsFor returns a snapshot of the user's connections.
func (r *Registry) ConnectionsFor(userID uuid.UUID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byID := r.conns[userID]
	result := make([]Conn, 0, len(byID))
	for _, c := range byID {
		result = append(result, c)
	}
	return result
}

// Count returns the number of open connections across all users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, byID := range r.conns {
		n += len(byID)
	}
	return n
}

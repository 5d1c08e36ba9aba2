package presence

import "sync"

// Registry is the single source of truth for which user identities are
// currently represented by a live connection. It maps a user id to exactly
// one connection id; a later registration for the same identity silently
// replaces the previous mapping.
//
// The registry is pure state, status broadcasts are issued by the caller.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]string // user id -> connection id
	order []string          // user ids in registration order
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]string),
	}
}

// SetOnline records or overwrites the mapping for userID. An overwrite keeps
// the identity's original position in the registration order. Empty
// arguments are a silent no-op.
func (r *Registry) SetOnline(userID, connID string) {
	if userID == "" || connID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[userID]; !ok {
		r.order = append(r.order, userID)
	}
	r.conns[userID] = connID
}

// Lookup returns the connection id currently representing userID.
func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.conns[userID]
	return connID, ok
}

// RemoveByConnection removes the presence entry owned by connID, if any, and
// returns the user id it was bound to. The scan is linear in the number of
// online users; at most one entry is removed.
func (r *Registry) RemoveByConnection(connID string) (string, bool) {
	if connID == "" {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, userID := range r.order {
		if r.conns[userID] == connID {
			delete(r.conns, userID)
			r.order = append(r.order[:i], r.order[i+1:]...)
			return userID, true
		}
	}
	return "", false
}

// AllUserIDs returns the currently registered user identities in
// registration order.
func (r *Registry) AllUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// NoUsers returns the number of registered identities.
func (r *Registry) NoUsers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

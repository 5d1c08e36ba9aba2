package room

import "sync"

// Rooms tracks which connections have joined which conversation rooms. A
// room has no existence of its own, it is created on first join and removed
// when its last member disconnects.
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{} // room id -> set of connection ids
}

func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[string]map[string]struct{}),
	}
}

// Join subscribes the connection to the named room. Joining twice is
// idempotent, empty arguments are a silent no-op. There is no explicit
// leave, membership only ends via DropConnection.
func (r *Rooms) Join(connID, roomID string) {
	if connID == "" || roomID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.members[roomID]
	if !ok {
		set = make(map[string]struct{})
		r.members[roomID] = set
	}
	set[connID] = struct{}{}
}

// Members returns the connection ids currently subscribed to the room.
func (r *Rooms) Members(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.members[roomID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set))
	for connID := range set {
		ids = append(ids, connID)
	}
	return ids
}

// DropConnection removes the connection from every room it joined. Rooms
// left empty are deleted so the table does not leak over time.
func (r *Rooms) DropConnection(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID, set := range r.members {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.members, roomID)
		}
	}
}

// Counts returns the current member count per room.
func (r *Rooms) Counts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int, len(r.members))
	for roomID, set := range r.members {
		counts[roomID] = len(set)
	}
	return counts
}

// NoRooms returns the number of non-empty rooms.
func (r *Rooms) NoRooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

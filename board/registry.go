package board

import (
	"sync"

	"boardsync/domain"
)

// Registry is the presence map: connection id to display name. A connection
// is registered anonymously when its transport opens and gains a name on the
// first join message. The registry is the single source of truth for the
// online-users list.
type Registry struct {
	mu      sync.Mutex
	names   map[string]string
	known   map[string]struct{}
	ordered []string // ids in join order, named connections only
}

func NewRegistry() *Registry {
	return &Registry{
		names: make(map[string]string),
		known: make(map[string]struct{}),
	}
}

// Register adds an anonymous entry. Registering an already-known id is a
// no-op.
func (r *Registry) Register(connID string) {
	r.mu.Lock()
	r.known[connID] = struct{}{}
	r.mu.Unlock()
}

// SetName assigns or overwrites the display name for a known connection.
// Unknown ids are ignored.
func (r *Registry) SetName(connID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.known[connID]; !ok {
		return
	}
	if _, named := r.names[connID]; !named {
		r.ordered = append(r.ordered, connID)
	}
	r.names[connID] = name
}

// Name returns the display name for a connection and whether one was set.
func (r *Registry) Name(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.names[connID]
	return name, ok
}

// Remove deletes the entry for a closing connection and returns the name it
// had, if any, so the caller can decide whether to announce the departure.
func (r *Registry) Remove(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.known[connID]; !ok {
		return "", false
	}
	delete(r.known, connID)
	name, named := r.names[connID]
	if !named {
		return "", false
	}
	delete(r.names, connID)
	for i, id := range r.ordered {
		if id == connID {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
	return name, true
}

// Users lists all named connections in join order.
func (r *Registry) Users() []domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.ordered))
	for _, id := range r.ordered {
		out = append(out, domain.User{ID: id, Username: r.names[id]})
	}
	return out
}

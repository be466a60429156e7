package alarm

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// Registry holds the last known state of every area.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Subscribers are called outside the lock, in registration order.
type Registry struct {
	mu          sync.RWMutex
	areas       map[string]Area
	subscribers []func(Area)
	now         func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		areas: make(map[string]Area),
		now:   time.Now,
	}
}

// Subscribe registers fn to be called with the new state whenever an area
// appears or its name, mode, alarm flag or changed-by identity changes.
func (r *Registry) Subscribe(fn func(Area)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Update stores the gateway's view of an area. An empty name or
// changed-by identity keeps the previous value. Returns true if anything
// subscribers care about changed.
func (r *Registry) Update(area Area) bool {
	r.mu.Lock()
	prev, existed := r.areas[area.ID]
	if area.Name == "" {
		area.Name = prev.Name
	}
	if area.LastChangedBy == "" {
		area.LastChangedBy = prev.LastChangedBy
	}
	if area.UpdatedAt.IsZero() {
		area.UpdatedAt = r.now().UTC()
	}
	r.areas[area.ID] = area

	changed := !existed ||
		prev.Name != area.Name ||
		prev.Mode != area.Mode ||
		prev.VerifiedAlarm != area.VerifiedAlarm ||
		prev.LastChangedBy != area.LastChangedBy
	subs := slices.Clone(r.subscribers)
	r.mu.Unlock()

	if changed {
		for _, fn := range subs {
			fn(area)
		}
	}
	return changed
}

// SetChangedBy records who last commanded an area.
func (r *Registry) SetChangedBy(id, identity string) {
	r.mu.Lock()
	area, ok := r.areas[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	changed := area.LastChangedBy != identity
	area.LastChangedBy = identity
	area.UpdatedAt = r.now().UTC()
	r.areas[id] = area
	subs := slices.Clone(r.subscribers)
	r.mu.Unlock()

	if changed {
		for _, fn := range subs {
			fn(area)
		}
	}
}

// Get returns the area with id.
func (r *Registry) Get(id string) (Area, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.areas[id]
	return a, ok
}

// List returns every area sorted by ID.
func (r *Registry) List() []Area {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Area, 0, len(r.areas))
	for _, id := range slices.Sorted(maps.Keys(r.areas)) {
		out = append(out, r.areas[id])
	}
	return out
}

// Len returns the number of known areas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.areas)
}

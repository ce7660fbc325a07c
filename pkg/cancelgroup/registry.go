// Package cancelgroup maps group names to lists of cancel handles so every
// in-flight transport belonging to one logical context ("everything for this
// namespace") can be torn down in one call.
package cancelgroup

import "sync"

// Registry is an append/drain multimap of group name to cancel handles.
// Handles are invoke-once capabilities; re-running a drained group is a
// no-op. Safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	groups map[string][]func()
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{groups: map[string][]func(){}}
}

// Add appends a handle to the named group.
func (r *Registry) Add(group string, cancel func()) {
	r.mu.Lock()
	r.groups[group] = append(r.groups[group], cancel)
	r.mu.Unlock()
}

// Run atomically drains the named group and invokes every handle it held.
// A handle added concurrently with Run either lands before the drain and is
// invoked now, or after and is invoked by the next Run — never dropped.
// Unknown or empty groups are a no-op.
func (r *Registry) Run(group string) {
	r.mu.Lock()
	handles := r.groups[group]
	delete(r.groups, group)
	r.mu.Unlock()
	for _, cancel := range handles {
		cancel()
	}
}

// Len reports how many handles the named group currently holds.
func (r *Registry) Len(group string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups[group])
}

package effect

import (
	"strings"
	"sync"
)

// ID is an interned effect name. Comparing and hashing an ID is a single
// integer operation.
type ID uint32

// NoID is the zero ID; it is never returned by Intern.
const NoID ID = 0

var interner = struct {
	mu    sync.RWMutex
	ids   map[string]ID
	names []string
}{
	ids:   make(map[string]ID),
	names: []string{""},
}

// Intern returns the ID for name, allocating one on first use.
// Names are case-insensitive and trimmed.
//
// Precondition: name must be non-empty after trimming.
// Postcondition: Intern(name).String() == the normalised name; repeated calls return the same ID.
func Intern(name string) ID {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		panic("effect: Intern precondition violated: name must be non-empty")
	}

	interner.mu.RLock()
	id, ok := interner.ids[key]
	interner.mu.RUnlock()
	if ok {
		return id
	}

	interner.mu.Lock()
	defer interner.mu.Unlock()
	if id, ok := interner.ids[key]; ok {
		return id
	}
	id = ID(len(interner.names))
	interner.names = append(interner.names, key)
	interner.ids[key] = id
	return id
}

// Lookup returns the ID for name without allocating one.
//
// Postcondition: ok is false iff name has never been interned.
func Lookup(name string) (ID, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	interner.mu.RLock()
	defer interner.mu.RUnlock()
	id, ok := interner.ids[key]
	return id, ok
}

// String returns the interned name, or "" for NoID and unknown IDs.
func (id ID) String() string {
	interner.mu.RLock()
	defer interner.mu.RUnlock()
	if int(id) >= len(interner.names) {
		return ""
	}
	return interner.names[id]
}

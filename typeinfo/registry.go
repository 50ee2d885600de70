package typeinfo

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Entry is a single (name, type) association in a registry snapshot.
type Entry struct {
	Name string
	Type reflect.Type
}

// nameRegistry maps names to struct types so lookups can be done from
// strings. Explicit registrations are authoritative; lookups also record
// derived names (short and package-qualified) as a convenience.
type nameRegistry struct {
	mu      sync.RWMutex
	types   map[string]reflect.Type
	derived map[string]bool
}

var names = &nameRegistry{
	types:   make(map[string]reflect.Type, 64),
	derived: make(map[string]bool, 64),
}

func (r *nameRegistry) register(name string, t reflect.Type, derived bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.types[name]
	if !ok || existing == t {
		r.types[name] = t
		r.derived[name] = derived && (r.derived[name] || !ok)
		return nil
	}

	// Conflicting types under one name: explicit registrations beat derived
	// ones, colliding derived short names are last-write-wins, and two
	// explicit registrations are a caller bug.
	switch {
	case derived && !r.derived[name]:
		return nil
	case derived:
		r.types[name] = t
		return nil
	case r.derived[name]:
		r.types[name] = t
		r.derived[name] = false
		return nil
	default:
		return fmt.Errorf("typeinfo: name %q already registered to %s", name, existing)
	}
}

// Register associates a name with a struct type for string lookups.
// Registering the same name to a different type is an error.
func Register(name string, target any) error {
	t, err := resolveType(target)
	if err != nil {
		return err
	}
	return names.register(name, t, false)
}

// LookupName returns the type registered under name.
func LookupName(name string) (reflect.Type, bool) {
	names.mu.RLock()
	defer names.mu.RUnlock()
	t, ok := names.types[name]
	return t, ok
}

// Entries returns a sorted snapshot of the registry for diagnostics.
func Entries() []Entry {
	names.mu.RLock()
	defer names.mu.RUnlock()

	out := make([]Entry, 0, len(names.types))
	for name, t := range names.types {
		out = append(out, Entry{Name: name, Type: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ResetRegistry clears all name registrations. Tests only.
func ResetRegistry() {
	names.mu.Lock()
	defer names.mu.Unlock()
	clear(names.types)
	clear(names.derived)
}

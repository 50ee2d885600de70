package attr

import (
	"reflect"
	"sync"
)

// Provider lets a type declare its own type-level attributes, the same way
// a model can declare its own table name in an ORM.
type Provider interface {
	Attributes() []Attribute
}

var providerType = reflect.TypeOf((*Provider)(nil)).Elem()

// Constant is a named constant registered against a type, with its value
// and attached attributes. Go reflection has no view of declared constants,
// so they are carried by registration only.
type Constant struct {
	Name  string
	Value any
	Attrs []Attribute
}

type typeEntry struct {
	attrs      []Attribute
	methods    map[string][]Attribute
	consts     map[string]*Constant
	constOrder []string
}

type attrRegistry struct {
	mu    sync.RWMutex
	types map[reflect.Type]*typeEntry
}

var registry = &attrRegistry{
	types: make(map[reflect.Type]*typeEntry),
}

func (r *attrRegistry) entry(t reflect.Type) *typeEntry {
	e, ok := r.types[t]
	if !ok {
		e = &typeEntry{}
		r.types[t] = e
	}
	return e
}

// For attaches type-level attributes to T. Repeated calls append.
func For[T any](attrs ...Attribute) {
	t := normalize(reflect.TypeOf((*T)(nil)).Elem())

	registry.mu.Lock()
	defer registry.mu.Unlock()

	e := registry.entry(t)
	e.attrs = append(e.attrs, attrs...)
}

// ForMethod attaches attributes to a method of T, by name.
func ForMethod[T any](method string, attrs ...Attribute) {
	t := normalize(reflect.TypeOf((*T)(nil)).Elem())

	registry.mu.Lock()
	defer registry.mu.Unlock()

	e := registry.entry(t)
	if e.methods == nil {
		e.methods = make(map[string][]Attribute, 4)
	}
	e.methods[method] = append(e.methods[method], attrs...)
}

// ForConst registers a named constant of T together with its attributes.
// Re-registering a name replaces its value and appends its attributes.
func ForConst[T any](name string, value any, attrs ...Attribute) {
	t := normalize(reflect.TypeOf((*T)(nil)).Elem())

	registry.mu.Lock()
	defer registry.mu.Unlock()

	e := registry.entry(t)
	if e.consts == nil {
		e.consts = make(map[string]*Constant, 4)
	}
	c, ok := e.consts[name]
	if !ok {
		c = &Constant{Name: name}
		e.consts[name] = c
		e.constOrder = append(e.constOrder, name)
	}
	c.Value = value
	c.Attrs = append(c.Attrs, attrs...)
}

// ResetRegistry drops all registered attributes and constants. Tests only.
func ResetRegistry() {
	registry.mu.Lock()
	registry.types = make(map[reflect.Type]*typeEntry)
	registry.mu.Unlock()
	deepCache.Purge()
}

// registeredType returns the registered attributes for t.
func registeredType(t reflect.Type) []Attribute {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	if e, ok := registry.types[t]; ok {
		return e.attrs
	}
	return nil
}

func registeredMethod(t reflect.Type, method string) []Attribute {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	if e, ok := registry.types[t]; ok {
		return e.methods[method]
	}
	return nil
}

func registeredConsts(t reflect.Type) []Constant {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	e, ok := registry.types[t]
	if !ok {
		return nil
	}

	out := make([]Constant, 0, len(e.constOrder))
	for _, name := range e.constOrder {
		out = append(out, *e.consts[name])
	}
	return out
}

// providerAttrs returns attributes a type declares about itself through
// the Provider interface, checking both value and pointer receivers.
func providerAttrs(t reflect.Type) []Attribute {
	if t.Implements(providerType) {
		return reflect.New(t).Elem().Interface().(Provider).Attributes()
	}
	if reflect.PointerTo(t).Implements(providerType) {
		return reflect.New(t).Interface().(Provider).Attributes()
	}
	return nil
}

// normalize strips pointers down to the named element type.
func normalize(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

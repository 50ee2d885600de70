package typeinfo

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotStruct reports a lookup target whose kind is not struct.
	ErrNotStruct = errors.New("typeinfo: not a struct type")

	// ErrNotRegistered reports a name lookup with no registered type.
	ErrNotRegistered = errors.New("typeinfo: name not registered")
)

var (
	infoCache  sync.Map // map[reflect.Type]*TypeInfo
	buildGroup singleflight.Group
)

// Lookup returns the introspection handle for a struct type. The target
// may be a reflect.Type, an instance, a pointer (dereferenced), or the
// registered name of a type. Handles are cached for the life of the
// process: the same type always yields the identical *TypeInfo.
func Lookup(target any) (*TypeInfo, error) {
	t, err := resolveType(target)
	if err != nil {
		return nil, err
	}

	if cached, ok := infoCache.Load(t); ok {
		return cached.(*TypeInfo), nil
	}

	// Deduplicate concurrent first builds of the same type.
	v, err, _ := buildGroup.Do(flightKey(t), func() (any, error) {
		if cached, ok := infoCache.Load(t); ok {
			return cached, nil
		}
		info, err := build(t)
		if err != nil {
			return nil, err
		}
		actual, _ := infoCache.LoadOrStore(t, info)
		registerDerived(actual.(*TypeInfo))
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*TypeInfo), nil
}

// flightKey returns a unique build-dedup key for a type. Type strings are
// ambiguous across packages (two packages named m can each declare a T,
// both printing "m.T"), so the key comes from the runtime type pointer.
func flightKey(t reflect.Type) string {
	return strconv.FormatUint(uint64(reflect.ValueOf(t).Pointer()), 36)
}

// MustLookup is Lookup for targets known to be structs; it panics on error.
func MustLookup(target any) *TypeInfo {
	info, err := Lookup(target)
	if err != nil {
		panic(err)
	}
	return info
}

// resolveType normalizes a lookup target to a struct reflect.Type.
func resolveType(target any) (reflect.Type, error) {
	if target == nil {
		return nil, fmt.Errorf("typeinfo: nil target: %w", ErrNotStruct)
	}

	var t reflect.Type
	switch v := target.(type) {
	case reflect.Type:
		t = v
	case string:
		named, ok := LookupName(v)
		if !ok {
			return nil, fmt.Errorf("typeinfo: %q: %w", v, ErrNotRegistered)
		}
		t = named
	default:
		t = reflect.TypeOf(target)
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("typeinfo: %s: %w", t.Kind(), ErrNotStruct)
	}
	return t, nil
}

// registerDerived makes a freshly built type addressable by name, so
// string targets like "User" or "User.Rename" resolve after the first
// reflection of the type. Short names are last-write-wins across packages.
func registerDerived(info *TypeInfo) {
	names.register(info.Name, info.Type, true)
	if info.Qualified != info.Name {
		names.register(info.Qualified, info.Type, true)
	}
}

// ClearCache drops every cached handle. Tests only; cached handles are
// otherwise process-lifetime.
func ClearCache() {
	infoCache.Range(func(key, _ any) bool {
		infoCache.Delete(key)
		return true
	})
}

// CacheLen returns the number of cached handles.
func CacheLen() int {
	n := 0
	infoCache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

package attr

import (
	"fmt"
	"reflect"

	"github.com/bermudaphp/reflection/cache"
)

// Target is the kind of declaration a deep-scan match was found on.
type Target uint8

const (
	TargetType Target = iota
	TargetField
	TargetMethod
	TargetConst
)

func (t Target) String() string {
	switch t {
	case TargetType:
		return "type"
	case TargetField:
		return "field"
	case TargetMethod:
		return "method"
	case TargetConst:
		return "const"
	default:
		return "unknown"
	}
}

// Match is one attribute found by a deep scan, with the path of the
// declaration that carries it. Paths are formatted as:
//
//	type:     User
//	field:    User.Email (promoted: User.Audit.CreatedAt)
//	method:   User.Rename()
//	constant: User.StatusActive
type Match struct {
	Path string
	Kind Target
	Attr Attribute
}

type deepKey struct {
	t    reflect.Type
	name string
}

const deepCacheSize = 256

var deepCache = cache.NewLRU[deepKey, []Match](deepCacheSize)

// Deep scans a struct type and all of its members for attributes. With a
// non-empty name only matching attributes are returned; with "" every
// attribute on every declaration is. A scan that finds nothing returns an
// empty, non-nil slice. Results are memoized per (type, name).
func Deep(target any, name string) ([]Match, error) {
	t := typeOf(target)
	if t == nil {
		return nil, fmt.Errorf("attr: cannot deep-scan %T: %w", target, ErrNotStruct)
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("attr: cannot deep-scan %s: %w", t.Kind(), ErrNotStruct)
	}

	return deepCache.GetOrBuild(deepKey{t: t, name: name}, func() ([]Match, error) {
		return scan(t, name)
	})
}

// ClearCache drops the deep-scan and tag-parse caches. Tests only.
func ClearCache() {
	deepCache.Purge()
	defaultParser.ClearCache()
}

// embeddedRef is one anonymous embedded struct type reached while
// flattening, with the field path it is embedded at.
type embeddedRef struct {
	t    reflect.Type
	path string
}

func scan(t reflect.Type, name string) ([]Match, error) {
	matches := make([]Match, 0, 8)
	root := t.Name()
	if root == "" {
		root = t.String()
	}

	for _, a := range Of(t) {
		matches = appendMatch(matches, root, TargetType, a, name)
	}

	var embedded []embeddedRef
	var err error
	matches, embedded, err = scanFields(matches, nil, t, root, name, map[reflect.Type]bool{t: true})
	if err != nil {
		return nil, err
	}

	// Registrations made on embedded declaring types surface at the
	// embedding path.
	for _, e := range embedded {
		for _, a := range Of(e.t) {
			matches = appendMatch(matches, e.path, TargetType, a, name)
		}
		for _, c := range registeredConsts(e.t) {
			for _, a := range c.Attrs {
				matches = appendMatch(matches, e.path+"."+c.Name, TargetConst, a, name)
			}
		}
	}

	// Pointer method set covers value-receiver and promoted methods too.
	pt := reflect.PointerTo(t)
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		for _, a := range methodAttrs(t, embedded, m.Name) {
			matches = appendMatch(matches, root+"."+m.Name+"()", TargetMethod, a, name)
		}
	}

	for _, c := range registeredConsts(t) {
		for _, a := range c.Attrs {
			matches = appendMatch(matches, root+"."+c.Name, TargetConst, a, name)
		}
	}

	return matches, nil
}

// methodAttrs unions attributes registered on the scanned type with those
// registered on embedded types that declare or promote the method, so
// ForMethod on a declaring type stays visible from every embedder.
func methodAttrs(t reflect.Type, embedded []embeddedRef, name string) []Attribute {
	var attrs []Attribute
	attrs = append(attrs, registeredMethod(t, name)...)
	for _, e := range embedded {
		if _, ok := reflect.PointerTo(e.t).MethodByName(name); ok {
			attrs = append(attrs, registeredMethod(e.t, name)...)
		}
	}
	return attrs
}

// scanFields walks fields depth-first, flattening anonymous embedded
// structs so promoted members appear with their full path, and records
// every embedded struct type it descends into. The seen map breaks
// embedding cycles through pointers.
func scanFields(matches []Match, embedded []embeddedRef, t reflect.Type, prefix, name string, seen map[reflect.Type]bool) ([]Match, []embeddedRef, error) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		path := prefix + "." + f.Name

		attrs, err := ParseField(f)
		if err != nil {
			return nil, nil, fmt.Errorf("attr: field %s: %w", path, err)
		}
		for _, a := range attrs {
			matches = appendMatch(matches, path, TargetField, a, name)
		}

		if !f.Anonymous {
			continue
		}
		ft := normalize(f.Type)
		if ft.Kind() != reflect.Struct || seen[ft] {
			continue
		}
		seen[ft] = true
		embedded = append(embedded, embeddedRef{t: ft, path: path})
		matches, embedded, err = scanFields(matches, embedded, ft, path, name, seen)
		if err != nil {
			return nil, nil, err
		}
	}
	return matches, embedded, nil
}

func appendMatch(matches []Match, path string, kind Target, a Attribute, name string) []Match {
	if name != "" && a.Name != name {
		return matches
	}
	return append(matches, Match{Path: path, Kind: kind, Attr: a})
}

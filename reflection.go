package reflection

import (
	"fmt"
	"reflect"

	"github.com/bermudaphp/reflection/attr"
	"github.com/bermudaphp/reflection/typeinfo"
)

// Reflect returns the cached introspection handle for a struct type.
// The target may be an instance, a pointer, a reflect.Type or a
// registered type name.
func Reflect(target any) (*typeinfo.TypeInfo, error) {
	return typeinfo.Lookup(target)
}

// MustReflect is Reflect for targets known to be structs; panics on error.
func MustReflect(target any) *typeinfo.TypeInfo {
	return typeinfo.MustLookup(target)
}

// Register associates a name with a struct type for string lookups,
// both for Reflect("name") and for "name.Method" callable resolution.
func Register(name string, target any) error {
	return typeinfo.Register(name, target)
}

// Attributes returns the attributes attached to a type, instance or
// struct field. See the attr package for the full accessor surface.
func Attributes(target any) []attr.Attribute {
	return attr.Of(target)
}

// DeepAttributes scans a struct type and all of its members for
// attributes with the given name ("" matches all).
func DeepAttributes(target any, name string) ([]attr.Match, error) {
	return attr.Deep(target, name)
}

// Init fills every zero-valued, generator-bound field of the struct
// pointed to by target, e.g. fields declared `attr:"id;gen:uuid"`.
func Init(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("reflection: init target must be a non-nil struct pointer, got %T", target)
	}

	info, err := typeinfo.Lookup(target)
	if err != nil {
		return err
	}

	elem := v.Elem()
	for _, f := range info.Fields {
		if f.Generator == nil || !f.Exported {
			continue
		}

		fv, err := elem.FieldByIndexErr(f.Index)
		if err != nil || !fv.IsZero() {
			continue
		}

		raw, err := f.Generator.Generate()
		if err != nil {
			return fmt.Errorf("reflection: init %s.%s: %w", info.Name, f.Path, err)
		}
		if err := assignGenerated(fv, raw); err != nil {
			return fmt.Errorf("reflection: init %s.%s: %w", info.Name, f.Path, err)
		}
	}
	return nil
}

// assignGenerated stores a generated value in a field, converting where
// the types allow it. String fields additionally accept any Stringer,
// which covers uuid.UUID and ulid.ULID.
func assignGenerated(field reflect.Value, value any) error {
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(field.Type()):
		field.Set(rv)
	case rv.Type().ConvertibleTo(field.Type()):
		field.Set(rv.Convert(field.Type()))
	default:
		s, ok := value.(fmt.Stringer)
		if !ok || field.Kind() != reflect.String {
			return fmt.Errorf("cannot store generated %s in %s", rv.Type(), field.Type())
		}
		field.SetString(s.String())
	}
	return nil
}

// ClearCache drops every memoized introspection handle: type handles,
// attribute parse and deep-scan results, and callable descriptors.
// Registrations (type names, functions, attributes) survive. Tests only.
func ClearCache() {
	typeinfo.ClearCache()
	attr.ClearCache()
	methodCache.Clear()
	funcDescCache.Range(func(key, _ any) bool {
		funcDescCache.Delete(key)
		return true
	})
}

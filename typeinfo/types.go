// Package typeinfo builds and caches introspection handles for struct
// types. A handle describes the type's shape once: fields (with embedded
// structs flattened), methods, attached attributes and derived names.
// Handles are built on first lookup and live for the life of the process.
package typeinfo

import (
	"fmt"
	"reflect"

	"github.com/bermudaphp/reflection/attr"
	"github.com/bermudaphp/reflection/generate"
)

// TypeInfo is the cached introspection handle for one struct type.
// The same reflect.Type always resolves to the identical *TypeInfo.
type TypeInfo struct {
	Type      reflect.Type
	Name      string // short type name, e.g. "User"
	PkgPath   string
	Qualified string // PkgPath + "." + Name
	Singular  string // snake_case derived name, e.g. "blog_post"
	Plural    string // pluralized derived name, e.g. "blog_posts"

	Attrs []attr.Attribute // type-level attributes

	Fields    []*FieldInfo          // declaration order, embedded structs flattened
	FieldMap  map[string]*FieldInfo // promoted field name -> info
	Methods   []*MethodInfo         // exported methods of the pointer type
	MethodMap map[string]*MethodInfo
}

// Field returns the field handle for a (possibly promoted) field name.
func (ti *TypeInfo) Field(name string) (*FieldInfo, bool) {
	f, ok := ti.FieldMap[name]
	return f, ok
}

// Method returns the method handle by name.
func (ti *TypeInfo) Method(name string) (*MethodInfo, bool) {
	m, ok := ti.MethodMap[name]
	return m, ok
}

// New allocates a fresh instance of the type and returns a pointer to it.
func (ti *TypeInfo) New() any {
	return reflect.New(ti.Type).Interface()
}

// Attr returns the first type-level attribute with the given name.
func (ti *TypeInfo) Attr(name string) (attr.Attribute, bool) {
	for _, a := range ti.Attrs {
		if a.Is(name) {
			return a, true
		}
	}
	return attr.Attribute{}, false
}

// FieldInfo describes one struct field, including fields promoted from
// anonymous embedded structs (Index then holds the full traversal path).
type FieldInfo struct {
	Name      string
	Path      string // dotted path from the root type, e.g. "Audit.CreatedAt"
	Type      reflect.Type
	Index     []int
	Offset    uintptr
	Tag       reflect.StructTag
	Attrs     []attr.Attribute
	Exported  bool
	Anonymous bool

	// Generator is bound from the field's gen attribute, nil otherwise.
	Generator generate.Generator
}

// Attr returns the first attribute of the field with the given name.
func (f *FieldInfo) Attr(name string) (attr.Attribute, bool) {
	for _, a := range f.Attrs {
		if a.Is(name) {
			return a, true
		}
	}
	return attr.Attribute{}, false
}

// Get reads the field's value from an instance of the owning type.
func (f *FieldInfo) Get(target any) (any, error) {
	v := reflect.ValueOf(target)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("typeinfo: get %s: nil pointer", f.Name)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("typeinfo: get %s: target is %s, not struct", f.Name, v.Kind())
	}
	if !f.Exported {
		return nil, fmt.Errorf("typeinfo: get %s: field is unexported", f.Name)
	}

	fv, err := v.FieldByIndexErr(f.Index)
	if err != nil {
		return nil, fmt.Errorf("typeinfo: get %s: %w", f.Name, err)
	}
	return fv.Interface(), nil
}

// Set writes a value into the field of a struct pointed to by target.
// Values are converted when the types allow it.
func (f *FieldInfo) Set(target any, value any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("typeinfo: set %s: target must be a non-nil struct pointer", f.Name)
	}
	if !f.Exported {
		return fmt.Errorf("typeinfo: set %s: field is unexported", f.Name)
	}

	fv, err := v.Elem().FieldByIndexErr(f.Index)
	if err != nil {
		return fmt.Errorf("typeinfo: set %s: %w", f.Name, err)
	}

	if value == nil {
		fv.Set(reflect.Zero(f.Type))
		return nil
	}

	val := reflect.ValueOf(value)
	switch {
	case val.Type().AssignableTo(f.Type):
		fv.Set(val)
	case val.Type().ConvertibleTo(f.Type):
		fv.Set(val.Convert(f.Type))
	default:
		return fmt.Errorf("typeinfo: set %s: cannot assign %s to %s", f.Name, val.Type(), f.Type)
	}
	return nil
}

// MethodInfo describes one exported method of the type. Methods are taken
// from the pointer method set, which covers value receivers too.
type MethodInfo struct {
	Name     string
	Method   reflect.Method
	In       []reflect.Type // parameter types, receiver excluded
	Out      []reflect.Type
	Variadic bool
	PtrRecv  bool // method requires a pointer receiver
}

// Attrs returns the attributes registered for this method on its type.
func (m *MethodInfo) Attrs(owner *TypeInfo) []attr.Attribute {
	return attr.OfMethod(owner.Type, m.Name)
}

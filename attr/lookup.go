package attr

import (
	"errors"
	"reflect"
)

// ErrNotStruct is returned by Deep when the target is not a struct type.
var ErrNotStruct = errors.New("attr: target is not a struct type")

// Of returns the attributes attached to target. The target may be a
// reflect.Type, a reflect.StructField, or any value (its dynamic type is
// used; pointers are dereferenced). For types, Provider-declared attributes
// come first, then registered ones. A target with no attributes yields nil.
func Of(target any) []Attribute {
	if f, ok := target.(reflect.StructField); ok {
		attrs, _ := ParseField(f)
		return attrs
	}

	t := typeOf(target)
	if t == nil {
		return nil
	}

	provided := providerAttrs(t)
	registered := registeredType(t)
	if len(registered) == 0 {
		return provided
	}

	// Never append into the provider's (or registry's) backing array.
	attrs := make([]Attribute, 0, len(provided)+len(registered))
	attrs = append(attrs, provided...)
	return append(attrs, registered...)
}

// First returns the first attribute of target with the given name.
// The zero Attribute and false signal a miss.
func First(target any, name string) (Attribute, bool) {
	return first(Of(target), name)
}

// Has reports whether target carries an attribute with the given name.
func Has(target any, name string) bool {
	_, ok := First(target, name)
	return ok
}

// OfMethod returns the attributes registered for a method of target's type.
func OfMethod(target any, method string) []Attribute {
	t := typeOf(target)
	if t == nil {
		return nil
	}
	return registeredMethod(t, method)
}

// Constants returns the named constants registered for target's type, in
// registration order.
func Constants(target any) []Constant {
	t := typeOf(target)
	if t == nil {
		return nil
	}
	return registeredConsts(t)
}

// OfConst returns the attributes of one registered constant.
func OfConst(target any, name string) []Attribute {
	for _, c := range Constants(target) {
		if c.Name == name {
			return c.Attrs
		}
	}
	return nil
}

// typeOf resolves a lookup target to its normalized reflect.Type.
func typeOf(target any) reflect.Type {
	if target == nil {
		return nil
	}
	if t, ok := target.(reflect.Type); ok {
		return normalize(t)
	}
	return normalize(reflect.TypeOf(target))
}

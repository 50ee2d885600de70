// Package attr reads structured annotations ("attributes") attached to Go
// declarations. Field attributes come from struct tags, type, method and
// constant attributes from an explicit registry or from types implementing
// Provider. Lookups that find nothing return zero values, never errors.
package attr

// Attribute is one structured annotation attached to a declaration.
// An attribute has a name, optional positional arguments and optional
// named key=value parameters.
type Attribute struct {
	Name   string
	Args   []string          // positional arguments, in declaration order
	Params map[string]string // named key=value arguments
}

// New builds an attribute with positional arguments only. Named parameters
// are added with Set.
func New(name string, args ...string) Attribute {
	return Attribute{Name: name, Args: args}
}

// Set returns a copy of the attribute with a named parameter added.
func (a Attribute) Set(key, value string) Attribute {
	params := make(map[string]string, len(a.Params)+1)
	for k, v := range a.Params {
		params[k] = v
	}
	params[key] = value
	a.Params = params
	return a
}

// Arg returns the positional argument at i, or "" when out of range.
func (a Attribute) Arg(i int) string {
	if i < 0 || i >= len(a.Args) {
		return ""
	}
	return a.Args[i]
}

// Param returns the named parameter value, or "" when absent.
func (a Attribute) Param(key string) string {
	return a.Params[key]
}

// Is reports whether the attribute has the given name.
func (a Attribute) Is(name string) bool {
	return a.Name == name
}

// IsZero reports whether the attribute is the miss value.
func (a Attribute) IsZero() bool {
	return a.Name == "" && len(a.Args) == 0 && len(a.Params) == 0
}

// first returns the first attribute with the given name from a slice.
func first(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

package typeinfo

import (
	"fmt"
	"reflect"

	"github.com/bermudaphp/reflection/attr"
	"github.com/bermudaphp/reflection/generate"
)

// genAttr is the attribute binding a value generator to a field,
// e.g. `attr:"gen:uuid"`.
const genAttr = "gen"

// build constructs the full handle for a struct type. Expensive reflection
// happens here exactly once per type; Lookup caches the result.
func build(t reflect.Type) (*TypeInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("typeinfo: %s: %w", t.Kind(), ErrNotStruct)
	}

	name := t.Name()
	if name == "" {
		name = t.String()
	}
	singular := SnakeCase(name)

	info := &TypeInfo{
		Type:     t,
		Name:     name,
		PkgPath:  t.PkgPath(),
		Singular: singular,
		Plural:   Plural(singular),
		Attrs:    attr.Of(t),
	}
	if info.PkgPath != "" {
		info.Qualified = info.PkgPath + "." + name
	} else {
		info.Qualified = name
	}

	numFields := t.NumField()
	info.Fields = make([]*FieldInfo, 0, numFields)
	info.FieldMap = make(map[string]*FieldInfo, numFields)

	if err := collectFields(info, t, "", nil, map[reflect.Type]bool{t: true}); err != nil {
		return nil, err
	}

	pt := reflect.PointerTo(t)
	numMethods := pt.NumMethod()
	info.Methods = make([]*MethodInfo, 0, numMethods)
	info.MethodMap = make(map[string]*MethodInfo, numMethods)

	for i := 0; i < numMethods; i++ {
		m := pt.Method(i)
		_, onValue := t.MethodByName(m.Name)

		mi := &MethodInfo{
			Name:     m.Name,
			Method:   m,
			Variadic: m.Type.IsVariadic(),
			PtrRecv:  !onValue,
		}
		// Skip the receiver at input index 0.
		for j := 1; j < m.Type.NumIn(); j++ {
			mi.In = append(mi.In, m.Type.In(j))
		}
		for j := 0; j < m.Type.NumOut(); j++ {
			mi.Out = append(mi.Out, m.Type.Out(j))
		}

		info.Methods = append(info.Methods, mi)
		info.MethodMap[m.Name] = mi
	}

	return info, nil
}

// collectFields walks fields depth-first, flattening anonymous embedded
// structs. Shallower declarations win name collisions, matching Go's own
// promotion rules for the unambiguous cases. The seen map breaks embedding
// cycles through pointer types.
func collectFields(info *TypeInfo, t reflect.Type, prefix string, index []int, seen map[reflect.Type]bool) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)

		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}

		fieldIndex := make([]int, len(index)+1)
		copy(fieldIndex, index)
		fieldIndex[len(index)] = i

		attrs, err := attr.ParseField(f)
		if err != nil {
			return fmt.Errorf("typeinfo: %s.%s: %w", info.Name, path, err)
		}

		fi := &FieldInfo{
			Name:      f.Name,
			Path:      path,
			Type:      f.Type,
			Index:     fieldIndex,
			Offset:    f.Offset,
			Tag:       f.Tag,
			Attrs:     attrs,
			Exported:  f.IsExported(),
			Anonymous: f.Anonymous,
		}

		if a, ok := fi.Attr(genAttr); ok {
			gen, ok := generate.Get(a.Arg(0))
			if !ok {
				return fmt.Errorf("typeinfo: %s.%s: unknown generator %q", info.Name, path, a.Arg(0))
			}
			fi.Generator = gen
		}

		info.Fields = append(info.Fields, fi)
		if prev, taken := info.FieldMap[f.Name]; !taken || len(fieldIndex) < len(prev.Index) {
			info.FieldMap[f.Name] = fi
		}

		if !f.Anonymous {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() != reflect.Struct || seen[ft] {
			continue
		}
		seen[ft] = true
		if err := collectFields(info, ft, path, fieldIndex, seen); err != nil {
			return err
		}
	}
	return nil
}

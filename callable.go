package reflection

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/bermudaphp/reflection/cache"
	"github.com/bermudaphp/reflection/typeinfo"
)

var (
	// ErrNotCallable reports a Callable target that is not a function,
	// method, registered name or invokable object.
	ErrNotCallable = errors.New("reflection: target is not callable")

	// ErrFuncNotFound reports a name that resolves to nothing.
	ErrFuncNotFound = errors.New("reflection: function not found")
)

// invokeMethod is the method name that makes an object invokable.
const invokeMethod = "Invoke"

// FuncInfo is the cached introspection handle for a callable.
type FuncInfo struct {
	Name     string // short name, e.g. "Rename" or "func1" for closures
	FullName string // runtime-qualified name, e.g. "pkg.(*User).Rename"
	Type     reflect.Type
	In       []reflect.Type // parameter types; unbound methods include the receiver first
	Out      []reflect.Type
	Variadic bool
	IsMethod bool
	Recv     reflect.Type // receiver type for methods, nil otherwise
	Bound    bool         // receiver captured inside the callable value
	File     string
	Line     int

	fn reflect.Value
}

type methodKey struct {
	t    reflect.Type
	name string
}

var (
	funcDescCache sync.Map // map[uintptr]*FuncInfo, unbound descriptors by code entry
	methodCache   = cache.NewStore[methodKey, *FuncInfo]()
	funcRegistry  = cache.NewStore[string, *FuncInfo]()
)

// Callable classifies a target and returns its introspection handle.
// Accepted forms:
//
//   - func values: named functions, closures, method values;
//   - names registered with RegisterFunc;
//   - qualified strings "Type.Method" for types known to the typeinfo
//     registry (every reflected type registers its names);
//   - invokable objects: values whose type declares an Invoke method.
//
// Anything else fails with ErrNotCallable; unresolved names fail with
// ErrFuncNotFound.
func Callable(target any) (*FuncInfo, error) {
	switch v := target.(type) {
	case nil:
		return nil, fmt.Errorf("reflection: nil target: %w", ErrNotCallable)

	case string:
		return callableByName(v)

	default:
		rv := reflect.ValueOf(target)
		if rv.Kind() == reflect.Func {
			if rv.IsNil() {
				return nil, fmt.Errorf("reflection: nil func: %w", ErrNotCallable)
			}
			return funcFromValue(rv), nil
		}
		if rv.MethodByName(invokeMethod).IsValid() {
			return Method(target, invokeMethod)
		}
		return nil, fmt.Errorf("reflection: %T: %w", target, ErrNotCallable)
	}
}

// MustCallable is Callable for targets known to be callable; panics on error.
func MustCallable(target any) *FuncInfo {
	fi, err := Callable(target)
	if err != nil {
		panic(err)
	}
	return fi
}

// RegisterFunc associates a name with a function so it can be resolved by
// Callable(name). The same handle instance is returned for every lookup.
func RegisterFunc(name string, fn any) error {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return fmt.Errorf("reflection: register %q: %T: %w", name, fn, ErrNotCallable)
	}

	fi := funcFromValue(rv)
	funcRegistry.Set(name, fi)
	return nil
}

// Method returns the handle for a method bound to a receiver, the
// equivalent of reflecting an object-and-method-name pair. The bound
// handle's In excludes the receiver and Call invokes on recv directly.
func Method(recv any, name string) (*FuncInfo, error) {
	if recv == nil {
		return nil, fmt.Errorf("reflection: nil receiver: %w", ErrNotCallable)
	}

	rv := reflect.ValueOf(recv)
	mv := rv.MethodByName(name)
	if !mv.IsValid() {
		return nil, fmt.Errorf("reflection: method %q not found on %s (pointer-receiver methods need a pointer target): %w",
			name, rv.Type(), ErrFuncNotFound)
	}

	desc, err := methodDescriptor(rv.Type(), name)
	if err != nil {
		return nil, err
	}

	bound := *desc
	bound.Bound = true
	bound.In = desc.In[1:] // drop the receiver
	bound.Type = mv.Type()
	bound.fn = mv
	return &bound, nil
}

// callableByName resolves registered function names and "Type.Method"
// strings.
func callableByName(name string) (*FuncInfo, error) {
	if fi, ok := funcRegistry.Get(name); ok {
		return fi, nil
	}

	if idx := strings.LastIndexByte(name, '.'); idx > 0 && idx < len(name)-1 {
		typeName, methodName := name[:idx], name[idx+1:]
		if t, ok := typeinfo.LookupName(typeName); ok {
			desc, err := methodDescriptor(reflect.PointerTo(t), methodName)
			if err != nil {
				return nil, err
			}
			return desc, nil
		}
	}

	return nil, fmt.Errorf("reflection: %q: %w", name, ErrFuncNotFound)
}

// methodDescriptor builds (or returns the cached) unbound handle for a
// method of t. In includes the receiver at position 0 and fn is the
// receiver-first method func, so the descriptor itself is invokable with
// an explicit receiver argument.
func methodDescriptor(t reflect.Type, name string) (*FuncInfo, error) {
	return methodCache.GetOrBuild(methodKey{t: t, name: name}, func() (*FuncInfo, error) {
		m, ok := t.MethodByName(name)
		if !ok {
			return nil, fmt.Errorf("reflection: method %q not found on %s: %w", name, t, ErrFuncNotFound)
		}

		fi := &FuncInfo{
			Name:     m.Name,
			Type:     m.Func.Type(),
			Variadic: m.Type.IsVariadic(),
			IsMethod: true,
			Recv:     t,
			fn:       m.Func,
		}
		for i := 0; i < m.Type.NumIn(); i++ {
			fi.In = append(fi.In, m.Type.In(i))
		}
		for i := 0; i < m.Type.NumOut(); i++ {
			fi.Out = append(fi.Out, m.Type.Out(i))
		}
		if rf := runtime.FuncForPC(m.Func.Pointer()); rf != nil {
			fi.FullName = rf.Name()
			fi.File, fi.Line = rf.FileLine(rf.Entry())
		}
		if fi.FullName == "" {
			fi.FullName = t.String() + "." + name
		}
		return fi, nil
	})
}

// funcFromValue describes a func value. Descriptors are cached by code
// entry point; the returned handle carries the concrete value so method
// values bound to different receivers never share state.
func funcFromValue(v reflect.Value) *FuncInfo {
	pc := v.Pointer()

	if cached, ok := funcDescCache.Load(pc); ok {
		fi := *cached.(*FuncInfo)
		fi.fn = v
		return &fi
	}

	desc := &FuncInfo{
		Type:     v.Type(),
		Variadic: v.Type().IsVariadic(),
	}
	for i := 0; i < v.Type().NumIn(); i++ {
		desc.In = append(desc.In, v.Type().In(i))
	}
	for i := 0; i < v.Type().NumOut(); i++ {
		desc.Out = append(desc.Out, v.Type().Out(i))
	}

	if rf := runtime.FuncForPC(pc); rf != nil {
		desc.FullName = rf.Name()
		desc.File, desc.Line = rf.FileLine(rf.Entry())
	}
	desc.Name = shortFuncName(desc.FullName)
	// Method values compile to a "-fm" wrapper around the real method.
	if strings.HasSuffix(desc.FullName, "-fm") {
		desc.IsMethod = true
		desc.Bound = true
	}

	funcDescCache.Store(pc, desc)

	fi := *desc
	fi.fn = v
	return &fi
}

// shortFuncName extracts the bare name from a runtime-qualified one, e.g.
// "github.com/x/pkg.(*User).Rename-fm" -> "Rename".
func shortFuncName(full string) string {
	if full == "" {
		return ""
	}
	name := strings.TrimSuffix(full, "-fm")
	if idx := strings.LastIndexByte(name, '.'); idx != -1 {
		name = name[idx+1:]
	}
	return name
}

// Call invokes the callable. Arguments are checked for arity and
// converted when their types allow it; unbound method handles expect the
// receiver as the first argument.
func (fi *FuncInfo) Call(args ...any) ([]any, error) {
	if !fi.fn.IsValid() {
		return nil, fmt.Errorf("reflection: %s: handle is not invokable", fi.FullName)
	}

	ft := fi.fn.Type()
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("reflection: %s: want at least %d args, got %d", fi.FullName, fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("reflection: %s: want %d args, got %d", fi.FullName, fixed, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= fixed {
			pt = ft.In(fixed).Elem()
		} else {
			pt = ft.In(i)
		}

		if arg == nil {
			in[i] = reflect.Zero(pt)
			continue
		}

		av := reflect.ValueOf(arg)
		switch {
		case av.Type().AssignableTo(pt):
			in[i] = av
		case av.Type().ConvertibleTo(pt):
			in[i] = av.Convert(pt)
		default:
			return nil, fmt.Errorf("reflection: %s: arg %d: cannot use %s as %s", fi.FullName, i, av.Type(), pt)
		}
	}

	outs := fi.fn.Call(in)
	results := make([]any, len(outs))
	for i, out := range outs {
		results[i] = out.Interface()
	}
	return results, nil
}

// NumIn returns the number of parameters, receiver included when unbound.
func (fi *FuncInfo) NumIn() int { return len(fi.In) }

// NumOut returns the number of results.
func (fi *FuncInfo) NumOut() int { return len(fi.Out) }

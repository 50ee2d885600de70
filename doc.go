// Package reflection wraps the standard reflect package with a
// process-lifetime cache of introspection handles and convenience
// accessors for structured metadata attached to types, fields, methods
// and constants.
//
// Reflecting a struct type once builds a TypeInfo handle that is reused
// for every later lookup of the same type:
//
//	info, err := reflection.Reflect(User{})
//
// Callables are classified and described the same way, whether they are
// named functions, closures, method values, registered names, qualified
// "Type.Method" strings, or invokable objects:
//
//	fn, err := reflection.Callable("User.Rename")
//	out, err := fn.Call(&u, "bob")
//
// Attribute metadata lives in the attr subpackage; typeinfo and generate
// hold the type handles and the attribute-bound value generators.
package reflection

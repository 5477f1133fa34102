// Package runtime provides the high-level reflection API over an environment.
//
// # Quick Start
//
//	b := env.NewBuilder()
//	// ... define types, methods, fields and handles
//	mem, err := b.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rt := runtime.NewWithDefaults(mem)
//
//	// Handles back to members
//	m, err := rt.MethodFromHandle(handle)
//	f, err := rt.FieldFromHandleIn(fieldHandle, declaringType.Handle)
//
// # Generic Declaring Types
//
// A handle for a member of a constructed generic type does not say which
// instantiation it belongs to. MethodFromHandle and FieldFromHandle fail with
// an ambiguous_generic error for such handles; pass the declaring type to the
// ...In variants instead. A declaring type that disagrees with the handle
// fails with context_mismatch.
//
// # Delegates
//
//	CreateDelegate(t, method, throw)              - open, relaxed signature rules
//	CreateDelegateClosed(t, first, method, throw) - may capture first
//	CreateDelegateByName(t, obj, name, ...)       - instance method, exact match
//	CreateStaticDelegateByName(t, typ, name, ...) - static method, exact match
//	BindDelegate(req)                             - full request, exact mode included
//
// Binding failures return a nil delegate unless throw is set.
//
// # Typed References and Enums
//
//	ref, err := rt.MakeTypedReference(obj, []*binder.Field{outerInner, innerPoint})
//	table, err := rt.EnumTable(enumType)
//	fmt.Println(table.Format(3)) // "Read, Write"
//
// Enum tables and delegate invoke descriptors are computed once per type and
// cached on the type for the life of the process.
package runtime

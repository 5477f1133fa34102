// Package metadata defines the data model shared by the resolution and binding layers.
//
// Handles (TypeHandle, MethodHandle, FieldHandle) are opaque value-comparable tokens
// produced ahead of time. Types, methods and fields are described by Type, MethodDef
// and FieldDef; an execution environment owns them and hands them out through handles.
//
// # Generic types
//
// A constructed generic type (Definition != nil) shares the member rows of its
// definition. Member lookups by token go through AnchoringDefinition. Generic
// parameters are types of kind KindGenericParameter and are replaced by
// Substitute when a member is viewed through a constructed type, also inside
// nested instantiations such as List<T>. Environments register instantiations
// on their definition with AddInstance so Substitute can find them.
//
// A constructed type laid out for its own type arguments carries FieldOffsets;
// read offsets through FieldOffset rather than FieldDef.Offset.
//
// # Cache slots
//
// Every Type carries one publish-once slot per CacheKind. Slots are filled with
// PublishCached, which uses compare-and-swap: concurrent first requests may each
// compute a value, exactly one is kept, and readers never see a partial value.
// Whatever is computed for a slot must be a pure function of the type.
package metadata

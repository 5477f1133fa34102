// Package env defines what the reflection layer needs from an execution
// environment and provides Memory, an in-memory implementation.
//
// A Builder assembles types, members, handles, enum values, invoke thunks and
// class constructors, then Build freezes them into a Memory:
//
//	b := env.NewBuilder()
//	point := b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Point", Kind: metadata.KindStruct})
//	x := b.AddField(point, env.FieldSpec{Name: "X", Type: b.Core().Int32, Public: true})
//	b.LayoutFields(point)
//	h := b.FieldHandle(x, nil)
//
//	mem, err := b.Build()
//
// Handles index dense tables; handle 0 is never issued. A handle registered
// with SharedMethodHandle or SharedFieldHandle belongs to several
// instantiations and only resolves through the contextual lookups.
//
// Builder calls record the first failure and keep going; Build reports it.
package env

// Package reflectruntime turns handles produced ahead of time back into live
// reflection metadata.
//
// A compiled program refers to types, methods and fields through opaque
// handles. This module resolves those handles against an execution
// environment, binds them to members, creates delegates over methods, computes
// typed references through chains of embedded fields and caches enum tables
// per type.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	reflectruntime/
//	├── metadata/        Handles, tokens, types, members and per-type cache slots
//	├── env/             Environment interfaces and the in-memory Builder/Memory
//	├── resolver/        Handle to (declaring type, token) resolution
//	├── binder/          Bound methods, constructors and fields
//	├── delegate/        Delegate binding by method or by name, invoke descriptors
//	├── typedref/        Typed references over embedded field chains
//	├── enuminfo/        Sorted, width-masked enum tables
//	├── runtime/         Facade wiring every component behind one entry point
//	├── image/           YAML metadata images
//	├── witenv/          Metadata types derived from WIT definitions
//	├── errors/          Structured error types for debugging
//	└── cmd/reflect/     CLI and interactive type browser
//
// # Quick Start
//
// Load an image and resolve its handles:
//
//	img, err := image.LoadFile("demo.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rt := runtime.NewWithDefaults(img.Env)
//	m, err := rt.MethodFromHandle(img.MethodHandles["compute"])
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(m) // "System.Int32 Demo.Base.Compute(System.Int32)"
//
// # Generic Declaring Types
//
// A handle for a member of a constructed generic type is shared by every
// instantiation. The context-free lookups fail with an ambiguous_generic error
// for such handles; pass the declaring type to the ...In variants instead.
//
// # Thread Safety
//
// env.Memory is immutable after Build. Runtime, its binder and its caches are
// safe for concurrent use. Cached results live for the life of the process.
package reflectruntime

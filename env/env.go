package env

import "github.com/wippyai/reflect-runtime/metadata"

// MethodEntry is what an environment knows about a method handle.
type MethodEntry struct {
	MethodArgs    []metadata.TypeHandle
	DeclaringType metadata.TypeHandle
	Token         metadata.Token
}

// FieldEntry is what an environment knows about a field handle.
type FieldEntry struct {
	DeclaringType metadata.TypeHandle
	Token         metadata.Token
}

// EnumRawData is the unsorted name/value table of an enum type. Values are
// raw bit patterns; signed values may be sign-extended to 64 bits.
type EnumRawData struct {
	Names   []string
	Values  []uint64
	IsFlags bool
}

// ExecutionEnvironment answers raw handle queries. It is a pure query
// interface: implementations must be safe for concurrent use and must not
// change their answers over time.
type ExecutionEnvironment interface {
	// TryGetMethodFromHandle looks a method handle up without context. The
	// returned declaring type is the method's true declaring type.
	TryGetMethodFromHandle(h metadata.MethodHandle) (MethodEntry, bool)

	// TryGetMethodFromHandleAndType looks a method handle up in the given
	// declaring context.
	TryGetMethodFromHandleAndType(h metadata.MethodHandle, ctx metadata.DeclaringContext) (MethodEntry, bool)

	// TryGetFieldFromHandle looks a field handle up without context.
	TryGetFieldFromHandle(h metadata.FieldHandle) (FieldEntry, bool)

	// TryGetFieldFromHandleAndType looks a field handle up in the given
	// declaring context.
	TryGetFieldFromHandleAndType(h metadata.FieldHandle, ctx metadata.DeclaringContext) (FieldEntry, bool)

	// GetEnumRawData returns the unsorted values of an enum type.
	GetEnumRawData(t metadata.TypeHandle) (EnumRawData, bool)

	// GetInvokeThunk returns the dynamic invoke thunk address for a method.
	GetInvokeThunk(m *metadata.MethodDef) uintptr

	// GetStaticConstructorContext returns the class constructor context of a
	// type, or 0 when the type has none.
	GetStaticConstructorContext(t metadata.TypeHandle) uintptr
}

// TypeSource maps type handles to their runtime descriptions.
type TypeSource interface {
	TypeFromHandle(h metadata.TypeHandle) (*metadata.Type, bool)
}

// ClassConstructorRunner runs a class constructor identified by the context
// an ExecutionEnvironment returned. Running an already-run constructor is a no-op.
type ClassConstructorRunner interface {
	EnsureClassConstructorRun(context uintptr) error
}

// Environment is the full collaborator surface consumed by the runtime.
type Environment interface {
	ExecutionEnvironment
	TypeSource
}

// TypeName returns a printable identity for a handle, falling back to the
// raw handle when the source does not know it.
func TypeName(src TypeSource, h metadata.TypeHandle) string {
	if src != nil {
		if t, ok := src.TypeFromHandle(h); ok {
			return t.FullName()
		}
	}
	return h.String()
}

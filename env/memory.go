package env

import (
	"cmp"
	"slices"
	"sync"

	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
)

// Memory is an in-memory ExecutionEnvironment and TypeSource assembled by a
// Builder. It is immutable after Build, so lookups take no locks.
type Memory struct {
	byName        map[string]*metadata.Type
	methodsIn     map[contextKey]MethodEntry
	fieldsIn      map[contextKey]FieldEntry
	enums         map[metadata.TypeHandle]EnumRawData
	thunks        map[*metadata.MethodDef]uintptr
	cctorContexts map[metadata.TypeHandle]uintptr
	cctors        map[uintptr]*classConstructor
	core          Core
	types         table[*metadata.Type]
	methods       table[methodSlot]
	fields        table[fieldSlot]
}

type contextKey struct {
	handle    uint64
	declaring metadata.TypeHandle
}

type methodSlot struct {
	entry       MethodEntry
	contextFree bool
}

type fieldSlot struct {
	entry       FieldEntry
	contextFree bool
}

type classConstructor struct {
	err  error
	run  func() error
	once sync.Once
}

var (
	_ ExecutionEnvironment   = (*Memory)(nil)
	_ TypeSource             = (*Memory)(nil)
	_ ClassConstructorRunner = (*Memory)(nil)
)

func newMemory() *Memory {
	return &Memory{
		byName:        make(map[string]*metadata.Type),
		methodsIn:     make(map[contextKey]MethodEntry),
		fieldsIn:      make(map[contextKey]FieldEntry),
		enums:         make(map[metadata.TypeHandle]EnumRawData),
		thunks:        make(map[*metadata.MethodDef]uintptr),
		cctorContexts: make(map[metadata.TypeHandle]uintptr),
		cctors:        make(map[uintptr]*classConstructor),
		types:         newTable[*metadata.Type](64),
		methods:       newTable[methodSlot](64),
		fields:        newTable[fieldSlot](64),
	}
}

// TryGetMethodFromHandle implements ExecutionEnvironment.
func (m *Memory) TryGetMethodFromHandle(h metadata.MethodHandle) (MethodEntry, bool) {
	slot, ok := m.methods.get(h.Value())
	if !ok || !slot.contextFree {
		return MethodEntry{}, false
	}
	return slot.entry, true
}

// TryGetMethodFromHandleAndType implements ExecutionEnvironment.
func (m *Memory) TryGetMethodFromHandleAndType(h metadata.MethodHandle, ctx metadata.DeclaringContext) (MethodEntry, bool) {
	e, ok := m.methodsIn[contextKey{handle: h.Value(), declaring: ctx.Type}]
	return e, ok
}

// TryGetFieldFromHandle implements ExecutionEnvironment.
func (m *Memory) TryGetFieldFromHandle(h metadata.FieldHandle) (FieldEntry, bool) {
	slot, ok := m.fields.get(h.Value())
	if !ok || !slot.contextFree {
		return FieldEntry{}, false
	}
	return slot.entry, true
}

// TryGetFieldFromHandleAndType implements ExecutionEnvironment.
func (m *Memory) TryGetFieldFromHandleAndType(h metadata.FieldHandle, ctx metadata.DeclaringContext) (FieldEntry, bool) {
	e, ok := m.fieldsIn[contextKey{handle: h.Value(), declaring: ctx.Type}]
	return e, ok
}

// GetEnumRawData implements ExecutionEnvironment.
func (m *Memory) GetEnumRawData(t metadata.TypeHandle) (EnumRawData, bool) {
	d, ok := m.enums[t]
	if !ok {
		return EnumRawData{}, false
	}
	// callers sort in place
	return EnumRawData{
		Names:   append([]string(nil), d.Names...),
		Values:  append([]uint64(nil), d.Values...),
		IsFlags: d.IsFlags,
	}, true
}

// GetInvokeThunk implements ExecutionEnvironment.
func (m *Memory) GetInvokeThunk(def *metadata.MethodDef) uintptr {
	return m.thunks[def]
}

// GetStaticConstructorContext implements ExecutionEnvironment.
func (m *Memory) GetStaticConstructorContext(t metadata.TypeHandle) uintptr {
	return m.cctorContexts[t]
}

// EnsureClassConstructorRun implements ClassConstructorRunner.
func (m *Memory) EnsureClassConstructorRun(context uintptr) error {
	cc, ok := m.cctors[context]
	if !ok {
		return errors.New(errors.PhaseRuntime, errors.KindNotFound).
			Value(context).
			Detail("no class constructor at context %#x", context).
			Build()
	}
	cc.once.Do(func() {
		cc.err = cc.run()
	})
	return cc.err
}

// TypeFromHandle implements TypeSource.
func (m *Memory) TypeFromHandle(h metadata.TypeHandle) (*metadata.Type, bool) {
	return m.types.get(h.Value())
}

// LookupType finds a type by its full name.
func (m *Memory) LookupType(fullName string) (*metadata.Type, bool) {
	t, ok := m.byName[fullName]
	return t, ok
}

// Types returns every type in handle order.
func (m *Memory) Types() []*metadata.Type {
	out := make([]*metadata.Type, 0, m.types.len())
	m.types.each(func(_ uint64, t *metadata.Type) bool {
		out = append(out, t)
		return true
	})
	return out
}

// Core returns the well-known types.
func (m *Memory) Core() Core {
	return m.core
}

// MethodHandles returns every method handle with its context-free entry, if any.
func (m *Memory) MethodHandles() []metadata.MethodHandle {
	out := make([]metadata.MethodHandle, 0, m.methods.len())
	m.methods.each(func(h uint64, _ methodSlot) bool {
		out = append(out, metadata.NewMethodHandle(h))
		return true
	})
	return out
}

// FieldHandles returns every field handle.
func (m *Memory) FieldHandles() []metadata.FieldHandle {
	out := make([]metadata.FieldHandle, 0, m.fields.len())
	m.fields.each(func(h uint64, _ fieldSlot) bool {
		out = append(out, metadata.NewFieldHandle(h))
		return true
	})
	return out
}

// MethodContexts returns the declaring types a method handle is registered under.
func (m *Memory) MethodContexts(h metadata.MethodHandle) []metadata.TypeHandle {
	var out []metadata.TypeHandle
	if slot, ok := m.methods.get(h.Value()); ok && slot.contextFree {
		out = append(out, slot.entry.DeclaringType)
	}
	start := len(out)
	for k := range m.methodsIn {
		if k.handle == h.Value() && !containsHandle(out, k.declaring) {
			out = append(out, k.declaring)
		}
	}
	slices.SortFunc(out[start:], func(a, b metadata.TypeHandle) int {
		return cmp.Compare(a.Value(), b.Value())
	})
	return out
}

func containsHandle(hs []metadata.TypeHandle, h metadata.TypeHandle) bool {
	for _, x := range hs {
		if x == h {
			return true
		}
	}
	return false
}

package env

import (
	"fmt"

	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
)

// Synthetic address ranges handed out for entry points, invoke thunks and
// class constructor contexts.
const (
	entryPointBase   uintptr = 0x1000_0000
	invokeThunkBase  uintptr = 0x2000_0000
	cctorContextBase uintptr = 0x3000_0000
	addressStride    uintptr = 0x10
)

const pointerSize = 8

// TypeSpec describes a type definition.
type TypeSpec struct {
	Base       *metadata.Type
	Underlying *metadata.Type
	Namespace  string
	Name       string
	Interfaces []*metadata.Type
	// GenericArity declares an open generic definition.
	GenericArity int
	Kind         metadata.TypeKind
	Element      metadata.ElementType
	MetadataOnly bool
	// Root suppresses the default base type.
	Root bool
}

// MethodSpec describes a method definition.
type MethodSpec struct {
	Return       *metadata.Type
	Name         string
	Params       []metadata.Param
	EntryPoint   uintptr
	GenericArity int
	Static       bool
	Public       bool
	Constructor  bool
	MetadataOnly bool
}

// FieldSpec describes a field definition.
type FieldSpec struct {
	Type   *metadata.Type
	Name   string
	Offset int
	Static bool
	Public bool
}

// Builder assembles a Memory environment. A Builder is not safe for
// concurrent use; the Memory it builds is.
type Builder struct {
	err        error
	m          *Memory
	instances  map[string]*metadata.Type
	sequential map[*metadata.Type]bool
	order      []*metadata.Type // instantiations in creation order
	core       Core
	rows       [256]uint32
	built      bool
}

// NewBuilder returns a builder pre-populated with the core types.
func NewBuilder() *Builder {
	b := &Builder{
		m:          newMemory(),
		instances:  make(map[string]*metadata.Type),
		sequential: make(map[*metadata.Type]bool),
	}
	b.defineCore()
	b.m.core = b.core
	return b
}

// Core returns the well-known types.
func (b *Builder) Core() Core {
	return b.core
}

// Lookup finds a type defined so far by its full name.
func (b *Builder) Lookup(fullName string) (*metadata.Type, bool) {
	return b.m.LookupType(fullName)
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) nextToken(table uint8) metadata.Token {
	b.rows[table]++
	return metadata.MakeToken(table, b.rows[table])
}

func (b *Builder) register(t *metadata.Type) {
	t.Handle = metadata.NewTypeHandle(b.m.types.insert(t))
}

// DefineType adds a type definition and returns it.
func (b *Builder) DefineType(spec TypeSpec) *metadata.Type {
	t := &metadata.Type{
		Namespace:    spec.Namespace,
		Name:         spec.Name,
		Kind:         spec.Kind,
		Element:      spec.Element,
		Base:         spec.Base,
		Underlying:   spec.Underlying,
		Interfaces:   spec.Interfaces,
		GenericArity: spec.GenericArity,
		MetadataOnly: spec.MetadataOnly,
		Token:        b.nextToken(metadata.TableType),
	}
	if t.Base == nil && !spec.Root {
		t.Base = b.defaultBase(t)
	}
	if t.Kind == metadata.KindEnum {
		if t.Underlying == nil {
			t.Underlying = b.core.Int32
		}
		if t.Element == metadata.ElementNone && t.Underlying != nil {
			t.Element = t.Underlying.Element
		}
	}

	name := t.FullName()
	if _, dup := b.m.byName[name]; dup {
		b.fail(errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Type(name).
			Detail("type defined twice").
			Build())
	}
	b.register(t)
	b.m.byName[name] = t
	return t
}

func (b *Builder) defaultBase(t *metadata.Type) *metadata.Type {
	switch t.Kind {
	case metadata.KindClass:
		return b.core.Object
	case metadata.KindStruct, metadata.KindPrimitive:
		return b.core.ValueType
	case metadata.KindEnum:
		return b.core.Enum
	case metadata.KindDelegate:
		return b.core.Delegate
	default:
		return nil
	}
}

// GenericParameter creates the generic parameter at position of a type
// definition, or of a generic method when method is set.
func (b *Builder) GenericParameter(name string, position int, method bool) *metadata.Type {
	t := &metadata.Type{
		Name:            name,
		Kind:            metadata.KindGenericParameter,
		Position:        position,
		MethodParameter: method,
	}
	b.register(t)
	return t
}

// maxGenericDepth bounds how deeply type arguments may nest.
const maxGenericDepth = 16

// Instantiate returns the constructed generic type def[args...], creating it
// on first use. The base type and interfaces are substituted against args;
// Build repeats this for definitions whose hierarchy was set afterwards.
func (b *Builder) Instantiate(def *metadata.Type, args ...*metadata.Type) *metadata.Type {
	if !def.IsGenericDefinition() || len(args) != def.GenericArity {
		b.fail(errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Type(def.FullName()).
			Detail("cannot instantiate with %d type arguments", len(args)).
			Build())
		return def
	}

	key := fmt.Sprintf("%d[%s]", def.Handle.Value(), metadata.HandlesKey(handlesOf(args)))
	if t, ok := b.instances[key]; ok {
		return t
	}

	t := &metadata.Type{
		Namespace:    def.Namespace,
		Name:         def.Name,
		Kind:         def.Kind,
		Element:      def.Element,
		GenericArity: def.GenericArity,
		Definition:   def,
		TypeArgs:     append([]*metadata.Type(nil), args...),
		MetadataOnly: def.MetadataOnly,
		Token:        def.Token,
	}
	if depth(t) > maxGenericDepth {
		b.fail(errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Type(def.FullName()).
			Detail("type arguments nest deeper than %d", maxGenericDepth).
			Build())
		return def
	}
	b.register(t)
	b.instances[key] = t
	b.order = append(b.order, t)
	b.m.byName[t.FullName()] = t
	def.AddInstance(t)
	b.closeHierarchy(t)
	return t
}

func depth(t *metadata.Type) int {
	d := 0
	for _, a := range t.TypeArgs {
		d = max(d, depth(a))
	}
	return d + 1
}

// substitute is metadata.Substitute that instantiates constructed results
// which do not exist yet. Results nesting deeper than maxGenericDepth are
// left open, so recursive generic signatures stay finite.
func (b *Builder) substitute(t *metadata.Type, typeArgs, methodArgs []*metadata.Type) *metadata.Type {
	if t == nil || t.Kind == metadata.KindGenericParameter {
		return metadata.Substitute(t, typeArgs, methodArgs)
	}
	args, changed := metadata.SubstituteArgs(t, typeArgs, methodArgs, b.substitute)
	if !changed {
		return t
	}
	d := 0
	for _, a := range args {
		d = max(d, depth(a))
	}
	if d+1 > maxGenericDepth {
		return t
	}
	return b.Instantiate(t.Definition, args...)
}

// closeHierarchy derives the base type and interfaces of a constructed type
// from its definition.
func (b *Builder) closeHierarchy(t *metadata.Type) {
	def := t.Definition
	t.Base = b.substitute(def.Base, t.TypeArgs, nil)
	t.Underlying = def.Underlying
	t.Interfaces = nil
	for _, iface := range def.Interfaces {
		t.Interfaces = append(t.Interfaces, b.substitute(iface, t.TypeArgs, nil))
	}
}

// closeMembers instantiates every constructed type the members of t refer to
// once their generic parameters are replaced by t's type arguments.
func (b *Builder) closeMembers(t *metadata.Type) {
	def := t.Definition
	for _, f := range def.Fields {
		b.substitute(f.Type, t.TypeArgs, nil)
	}
	for _, m := range def.Methods {
		b.closeSignature(m, t.TypeArgs, nil)
	}
}

func (b *Builder) closeSignature(m *metadata.MethodDef, typeArgs, methodArgs []*metadata.Type) {
	b.substitute(m.Return, typeArgs, methodArgs)
	for _, p := range m.Params {
		b.substitute(p.Type, typeArgs, methodArgs)
	}
}

// closeInstances brings every constructed type up to date with its
// definition. Instantiations created along the way are processed too.
func (b *Builder) closeInstances() {
	for i := 0; i < len(b.order) && b.err == nil; i++ {
		t := b.order[i]
		b.closeHierarchy(t)
		b.closeMembers(t)
	}
	for i := 0; i < len(b.order) && b.err == nil; i++ {
		b.layoutInstance(b.order[i], nil)
	}
}

// AddMethod declares a method on owner's definition.
func (b *Builder) AddMethod(owner *metadata.Type, spec MethodSpec) *metadata.MethodDef {
	owner = owner.AnchoringDefinition()
	m := &metadata.MethodDef{
		Owner:        owner,
		Name:         spec.Name,
		Params:       spec.Params,
		Return:       spec.Return,
		GenericArity: spec.GenericArity,
		Static:       spec.Static,
		Public:       spec.Public,
		Constructor:  spec.Constructor,
		MetadataOnly: spec.MetadataOnly,
		EntryPoint:   spec.EntryPoint,
		Token:        b.nextToken(metadata.TableMethod),
	}
	if m.Constructor && m.Name == "" {
		m.Name = ".ctor"
	}
	if m.EntryPoint == 0 && !m.MetadataOnly {
		m.EntryPoint = entryPointBase + uintptr(m.Token.Row())*addressStride
	}
	owner.Methods = append(owner.Methods, m)
	return m
}

// AddField declares a field on owner's definition at an explicit offset.
func (b *Builder) AddField(owner *metadata.Type, spec FieldSpec) *metadata.FieldDef {
	owner = owner.AnchoringDefinition()
	if spec.Offset < 0 {
		b.fail(errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Path(owner.FullName(), spec.Name).
			Detail("negative field offset %d", spec.Offset).
			Build())
	}
	f := &metadata.FieldDef{
		Owner:  owner,
		Name:   spec.Name,
		Type:   spec.Type,
		Offset: spec.Offset,
		Static: spec.Static,
		Public: spec.Public,
		Token:  b.nextToken(metadata.TableField),
	}
	owner.Fields = append(owner.Fields, f)
	return f
}

// DefineDelegate adds a delegate type with a constructor and an Invoke method.
func (b *Builder) DefineDelegate(namespace, name string, ret *metadata.Type, params ...*metadata.Type) *metadata.Type {
	t := b.DefineType(TypeSpec{Namespace: namespace, Name: name, Kind: metadata.KindDelegate})
	b.AddInvoke(t, ret, params...)
	return t
}

// AddInvoke gives a delegate type its constructor and an Invoke method with
// a dynamic invoke thunk.
func (b *Builder) AddInvoke(t *metadata.Type, ret *metadata.Type, params ...*metadata.Type) *metadata.MethodDef {
	if !t.IsDelegate() {
		b.fail(errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Type(t.FullName()).
			Detail("Invoke on a non-delegate type").
			Build())
		return nil
	}
	b.AddMethod(t, MethodSpec{
		Constructor: true,
		Public:      true,
		Params: []metadata.Param{
			{Name: "object", Type: b.core.Object},
			{Name: "method", Type: b.core.IntPtr},
		},
	})
	ps := make([]metadata.Param, len(params))
	for i, p := range params {
		ps[i] = metadata.Param{Name: fmt.Sprintf("arg%d", i+1), Type: p}
	}
	invoke := b.AddMethod(t, MethodSpec{Name: "Invoke", Public: true, Params: ps, Return: ret})
	b.SetInvokeThunk(invoke, invokeThunkBase+uintptr(invoke.Token.Row())*addressStride)
	return invoke
}

// MethodHandle registers a handle for def as seen on type on, with optional
// generic method arguments. The handle resolves without context; when on is
// a constructed generic type it also resolves in on's context.
func (b *Builder) MethodHandle(def *metadata.MethodDef, on *metadata.Type, methodArgs ...*metadata.Type) metadata.MethodHandle {
	if on == nil {
		on = def.Owner
	}
	entry := MethodEntry{
		DeclaringType: on.Handle,
		Token:         def.Token,
		MethodArgs:    handlesOf(methodArgs),
	}
	if len(methodArgs) > 0 {
		b.closeSignature(def, on.TypeArgs, methodArgs)
	}
	h := b.m.methods.insert(methodSlot{entry: entry, contextFree: true})
	if on.IsConstructedGeneric() {
		b.m.methodsIn[contextKey{handle: h, declaring: on.Handle}] = entry
	}
	return metadata.NewMethodHandle(h)
}

// SharedMethodHandle registers a handle used by code shared across the given
// instantiations of a generic type. Without context it reports the first
// instantiation, so only the contextual lookup is meaningful.
func (b *Builder) SharedMethodHandle(def *metadata.MethodDef, contexts ...*metadata.Type) metadata.MethodHandle {
	slot := methodSlot{entry: MethodEntry{Token: def.Token}}
	if len(contexts) > 0 {
		slot.entry.DeclaringType = contexts[0].Handle
		slot.contextFree = true
	}
	h := b.m.methods.insert(slot)
	for _, c := range contexts {
		b.m.methodsIn[contextKey{handle: h, declaring: c.Handle}] = MethodEntry{
			DeclaringType: c.Handle,
			Token:         def.Token,
		}
	}
	return metadata.NewMethodHandle(h)
}

// FieldHandle registers a handle for def as seen on type on.
func (b *Builder) FieldHandle(def *metadata.FieldDef, on *metadata.Type) metadata.FieldHandle {
	if on == nil {
		on = def.Owner
	}
	entry := FieldEntry{DeclaringType: on.Handle, Token: def.Token}
	h := b.m.fields.insert(fieldSlot{entry: entry, contextFree: true})
	if on.IsConstructedGeneric() {
		b.m.fieldsIn[contextKey{handle: h, declaring: on.Handle}] = entry
	}
	return metadata.NewFieldHandle(h)
}

// SharedFieldHandle is the field counterpart of SharedMethodHandle.
func (b *Builder) SharedFieldHandle(def *metadata.FieldDef, contexts ...*metadata.Type) metadata.FieldHandle {
	slot := fieldSlot{entry: FieldEntry{Token: def.Token}}
	if len(contexts) > 0 {
		slot.entry.DeclaringType = contexts[0].Handle
		slot.contextFree = true
	}
	h := b.m.fields.insert(slot)
	for _, c := range contexts {
		b.m.fieldsIn[contextKey{handle: h, declaring: c.Handle}] = FieldEntry{
			DeclaringType: c.Handle,
			Token:         def.Token,
		}
	}
	return metadata.NewFieldHandle(h)
}

// SetEnumValues records the raw, unsorted values of an enum type.
func (b *Builder) SetEnumValues(t *metadata.Type, names []string, values []uint64, isFlags bool) {
	if !t.IsEnum() || len(names) != len(values) {
		b.fail(errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Type(t.FullName()).
			Detail("enum values: %d names, %d values", len(names), len(values)).
			Build())
		return
	}
	b.m.enums[t.Handle] = EnumRawData{
		Names:   append([]string(nil), names...),
		Values:  append([]uint64(nil), values...),
		IsFlags: isFlags,
	}
}

// SetSignedEnumValues records signed enum values as sign-extended bit patterns.
func (b *Builder) SetSignedEnumValues(t *metadata.Type, names []string, values []int64, isFlags bool) {
	raw := make([]uint64, len(values))
	for i, v := range values {
		raw[i] = uint64(v)
	}
	b.SetEnumValues(t, names, raw, isFlags)
}

// SetInvokeThunk records the dynamic invoke thunk of a method.
func (b *Builder) SetInvokeThunk(def *metadata.MethodDef, thunk uintptr) {
	b.m.thunks[def] = thunk
}

// SetClassConstructor registers the class constructor of t and returns its context.
func (b *Builder) SetClassConstructor(t *metadata.Type, run func() error) uintptr {
	ctx := cctorContextBase + uintptr(t.Handle.Value())*addressStride
	b.m.cctorContexts[t.Handle] = ctx
	b.m.cctors[ctx] = &classConstructor{run: run}
	return ctx
}

// Build finalizes the environment. The builder must not be used afterwards.
func (b *Builder) Build() (*Memory, error) {
	if b.built {
		return nil, errors.InvalidArgument(errors.PhaseLoad, "builder", "already built")
	}
	b.built = true
	if b.err == nil {
		b.closeInstances()
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.m, nil
}

func handlesOf(types []*metadata.Type) []metadata.TypeHandle {
	if len(types) == 0 {
		return nil
	}
	hs := make([]metadata.TypeHandle, len(types))
	for i, t := range types {
		hs[i] = t.Handle
	}
	return hs
}

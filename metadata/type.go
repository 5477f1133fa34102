package metadata

import (
	"strings"
	"sync/atomic"
)

// Type is the runtime description of a type: a definition, a constructed
// generic instantiation, or a generic parameter.
//
// A Type is immutable once published by its environment, except for its
// cache slots. Types must not be copied.
type Type struct {
	Base       *Type
	Underlying *Type // enum underlying integral type
	Definition *Type // generic type definition of a constructed type
	Namespace  string
	Name       string
	TypeArgs   []*Type
	Interfaces []*Type
	Methods    []*MethodDef
	Fields     []*FieldDef
	// FieldOffsets holds per-instantiation offsets of a constructed type,
	// parallel to Definition.Fields. Nil means the definition's offsets apply.
	FieldOffsets []int
	instances    map[string]*Type
	cache        [numCacheKinds]atomic.Value
	Handle     TypeHandle
	Token      Token
	// GenericArity is the number of generic parameters of a definition.
	GenericArity int
	// Position is the index of a generic parameter in its owner's list.
	Position int
	Kind     TypeKind
	Element  ElementType
	// MethodParameter marks a generic parameter owned by a method.
	MethodParameter bool
	// MetadataOnly marks a type that has no runtime type descriptor.
	MetadataOnly bool
}

// FullName returns the namespace-qualified name, with type arguments for
// constructed generic types.
func (t *Type) FullName() string {
	if t == nil {
		return "void"
	}
	var b strings.Builder
	if t.Namespace != "" {
		b.WriteString(t.Namespace)
		b.WriteByte('.')
	}
	b.WriteString(t.Name)
	if len(t.TypeArgs) > 0 {
		b.WriteByte('[')
		for i, a := range t.TypeArgs {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(a.FullName())
		}
		b.WriteByte(']')
	}
	return b.String()
}

func (t *Type) String() string { return t.FullName() }

// IsValueType reports whether instances are stored inline.
func (t *Type) IsValueType() bool {
	switch t.Kind {
	case KindStruct, KindEnum:
		return true
	case KindPrimitive:
		return t.Element != ElementString && t.Element != ElementObject && t.Element != ElementVoid
	default:
		return false
	}
}

// IsEmbeddable reports whether a field of this type lives inside its
// containing object rather than behind a reference.
func (t *Type) IsEmbeddable() bool { return t.IsValueType() }

func (t *Type) IsEnum() bool      { return t.Kind == KindEnum }
func (t *Type) IsDelegate() bool  { return t.Kind == KindDelegate }
func (t *Type) IsInterface() bool { return t.Kind == KindInterface }

// IsGenericDefinition reports whether t is an open generic type definition.
func (t *Type) IsGenericDefinition() bool {
	return t.GenericArity > 0 && t.Definition == nil
}

// IsConstructedGeneric reports whether t is an instantiation of a generic definition.
func (t *Type) IsConstructedGeneric() bool { return t.Definition != nil }

// ContainsGenericParameters reports whether t or any of its type arguments is
// still open.
func (t *Type) ContainsGenericParameters() bool {
	if t.Kind == KindGenericParameter || t.IsGenericDefinition() {
		return true
	}
	for _, a := range t.TypeArgs {
		if a.ContainsGenericParameters() {
			return true
		}
	}
	return false
}

// AnchoringDefinition returns the type whose metadata declares t's members.
func (t *Type) AnchoringDefinition() *Type {
	if t.Definition != nil {
		return t.Definition
	}
	return t
}

// MethodByToken finds a method declared on t's anchoring definition.
func (t *Type) MethodByToken(tok Token) (*MethodDef, bool) {
	for _, m := range t.AnchoringDefinition().Methods {
		if m.Token == tok {
			return m, true
		}
	}
	return nil, false
}

// FieldByToken finds a field declared on t's anchoring definition.
func (t *Type) FieldByToken(tok Token) (*FieldDef, bool) {
	for _, f := range t.AnchoringDefinition().Fields {
		if f.Token == tok {
			return f, true
		}
	}
	return nil, false
}

// FieldOffset returns the byte offset of f inside an instance of t.
func (t *Type) FieldOffset(f *FieldDef) int {
	if t.Definition != nil && t.FieldOffsets != nil && f.Owner == t.Definition {
		for i, df := range t.Definition.Fields {
			if df == f && i < len(t.FieldOffsets) {
				return t.FieldOffsets[i]
			}
		}
	}
	return f.Offset
}

// Instance returns the registered instantiation of the definition t with args.
func (t *Type) Instance(args []*Type) (*Type, bool) {
	inst, ok := t.instances[instanceKey(args)]
	return inst, ok
}

// AddInstance registers inst as the instantiation of t with inst.TypeArgs.
// Environments call it while they are being assembled.
func (t *Type) AddInstance(inst *Type) {
	if t.instances == nil {
		t.instances = make(map[string]*Type)
	}
	t.instances[instanceKey(inst.TypeArgs)] = inst
}

func instanceKey(args []*Type) string {
	hs := make([]TypeHandle, len(args))
	for i, a := range args {
		hs[i] = a.Handle
	}
	return HandlesKey(hs)
}

// FieldByName finds a field declared on t's anchoring definition.
func (t *Type) FieldByName(name string) (*FieldDef, bool) {
	for _, f := range t.AnchoringDefinition().Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// InvokeMethod returns the Invoke method of a delegate type.
func (t *Type) InvokeMethod() (*MethodDef, bool) {
	if !t.IsDelegate() {
		return nil, false
	}
	for _, m := range t.AnchoringDefinition().Methods {
		if m.Name == "Invoke" && !m.Static {
			return m, true
		}
	}
	return nil, false
}

// Param is a method parameter.
type Param struct {
	Type *Type
	Name string
}

// MethodDef is a method definition row.
type MethodDef struct {
	Owner        *Type
	Return       *Type // nil for void
	Name         string
	Params       []Param
	EntryPoint   uintptr
	GenericArity int
	Token        Token
	Static       bool
	Public       bool
	Constructor  bool
	// MetadataOnly marks a method with no runtime implementation.
	MetadataOnly bool
}

// ParamTypes returns the declared parameter types.
func (m *MethodDef) ParamTypes() []*Type {
	types := make([]*Type, len(m.Params))
	for i, p := range m.Params {
		types[i] = p.Type
	}
	return types
}

// FieldDef is a field definition row.
type FieldDef struct {
	Owner  *Type
	Type   *Type
	Name   string
	Offset int // byte offset inside an instance of the owner
	Token  Token
	Static bool
	Public bool
}

// Substitute replaces generic parameters with the matching type arguments,
// including those nested inside constructed types such as List<T>. A
// constructed result must already be registered on its definition; when it is
// not, t is returned unchanged.
func Substitute(t *Type, typeArgs, methodArgs []*Type) *Type {
	if t == nil {
		return nil
	}
	if t.Kind == KindGenericParameter {
		args := typeArgs
		if t.MethodParameter {
			args = methodArgs
		}
		if t.Position < 0 || t.Position >= len(args) || args[t.Position] == nil {
			return t
		}
		return args[t.Position]
	}
	args, changed := SubstituteArgs(t, typeArgs, methodArgs, Substitute)
	if !changed {
		return t
	}
	if inst, ok := t.Definition.Instance(args); ok {
		return inst
	}
	return t
}

// SubstituteArgs applies sub to the type arguments of a constructed type t
// and reports whether any argument changed.
func SubstituteArgs(t *Type, typeArgs, methodArgs []*Type, sub func(t *Type, typeArgs, methodArgs []*Type) *Type) ([]*Type, bool) {
	if t.Definition == nil || !t.ContainsGenericParameters() {
		return nil, false
	}
	args := make([]*Type, len(t.TypeArgs))
	changed := false
	for i, a := range t.TypeArgs {
		args[i] = sub(a, typeArgs, methodArgs)
		changed = changed || args[i] != a
	}
	return args, changed
}

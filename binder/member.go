package binder

import (
	"strings"

	"github.com/wippyai/reflect-runtime/metadata"
)

// MemberKind tags the concrete variant behind a Member.
type MemberKind uint8

const (
	KindMethod MemberKind = iota
	KindConstructor
	KindField
)

func (k MemberKind) String() string {
	switch k {
	case KindMethod:
		return "method"
	case KindConstructor:
		return "constructor"
	case KindField:
		return "field"
	default:
		return "unknown"
	}
}

// Member is a bound method, constructor or field. The set of implementations
// is closed: *Method, *Constructor and *Field. Consumers switch on the
// concrete type.
type Member interface {
	Kind() MemberKind
	Name() string
	Token() metadata.Token
	// DefiningType is the type whose metadata declares the member.
	DefiningType() *metadata.Type
	// ReflectedType is the contextual type the member was obtained through.
	ReflectedType() *metadata.Type
	// Equal reports value identity, independent of which binder produced
	// either member.
	Equal(other Member) bool
	String() string

	member()
}

type memberBase struct {
	defining  *metadata.Type
	reflected *metadata.Type
	token     metadata.Token
}

func (m *memberBase) Token() metadata.Token         { return m.token }
func (m *memberBase) DefiningType() *metadata.Type  { return m.defining }
func (m *memberBase) ReflectedType() *metadata.Type { return m.reflected }
func (m *memberBase) member()                       {}

func (m *memberBase) same(o *memberBase) bool {
	return m.defining == o.defining && m.reflected == o.reflected && m.token == o.token
}

// methodCore is shared by methods and constructors.
type methodCore struct {
	memberBase
	def  *metadata.MethodDef
	args []*metadata.Type
}

// Def returns the method definition row.
func (m *methodCore) Def() *metadata.MethodDef { return m.def }

func (m *methodCore) Name() string { return m.def.Name }

// DeclaringType is the contextual declaring type.
func (m *methodCore) DeclaringType() *metadata.Type { return m.reflected }

// GenericArgs returns the generic method arguments, if the method was instantiated.
func (m *methodCore) GenericArgs() []*metadata.Type { return m.args }

// IsGenericDefinition reports a generic method that has not been instantiated.
func (m *methodCore) IsGenericDefinition() bool {
	return m.def.GenericArity > 0 && len(m.args) == 0
}

// ContainsGenericParameters reports whether the method or its declaring type is still open.
func (m *methodCore) ContainsGenericParameters() bool {
	return m.IsGenericDefinition() || m.reflected.ContainsGenericParameters()
}

func (m *methodCore) IsStatic() bool { return m.def.Static }
func (m *methodCore) IsPublic() bool { return m.def.Public }

// RuntimeBacked reports whether the runtime implements the method, as
// opposed to it being known from metadata alone.
func (m *methodCore) RuntimeBacked() bool {
	return !m.def.MetadataOnly && !m.reflected.MetadataOnly
}

// EntryPoint returns the method's code address, 0 when it has none.
func (m *methodCore) EntryPoint() uintptr { return m.def.EntryPoint }

// Parameters returns the parameter types with generic parameters substituted.
func (m *methodCore) Parameters() []*metadata.Type {
	out := make([]*metadata.Type, len(m.def.Params))
	for i, p := range m.def.Params {
		out[i] = metadata.Substitute(p.Type, m.reflected.TypeArgs, m.args)
	}
	return out
}

// ReturnType returns the substituted return type, nil for void.
func (m *methodCore) ReturnType() *metadata.Type {
	return metadata.Substitute(m.def.Return, m.reflected.TypeArgs, m.args)
}

func (m *methodCore) same(o *methodCore) bool {
	if !m.memberBase.same(&o.memberBase) || len(m.args) != len(o.args) {
		return false
	}
	for i := range m.args {
		if m.args[i] != o.args[i] {
			return false
		}
	}
	return true
}

func (m *methodCore) signature() string {
	var b strings.Builder
	if ret := m.ReturnType(); ret != nil {
		b.WriteString(ret.FullName())
	} else {
		b.WriteString("void")
	}
	b.WriteByte(' ')
	b.WriteString(m.reflected.FullName())
	b.WriteByte('.')
	b.WriteString(m.def.Name)
	if len(m.args) > 0 {
		b.WriteByte('[')
		for i, a := range m.args {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(a.FullName())
		}
		b.WriteByte(']')
	}
	b.WriteByte('(')
	for i, p := range m.Parameters() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.FullName())
	}
	b.WriteByte(')')
	return b.String()
}

// Method is a bound ordinary method.
type Method struct {
	methodCore
}

func (m *Method) Kind() MemberKind { return KindMethod }
func (m *Method) String() string   { return m.signature() }

func (m *Method) Equal(other Member) bool {
	o, ok := other.(*Method)
	return ok && (m == o || m.same(&o.methodCore))
}

// Constructor is a bound instance constructor.
type Constructor struct {
	methodCore
}

func (c *Constructor) Kind() MemberKind { return KindConstructor }
func (c *Constructor) String() string   { return c.signature() }

func (c *Constructor) Equal(other Member) bool {
	o, ok := other.(*Constructor)
	return ok && (c == o || c.same(&o.methodCore))
}

// Field is a bound field.
type Field struct {
	memberBase
	def *metadata.FieldDef
}

// Def returns the field definition row.
func (f *Field) Def() *metadata.FieldDef { return f.def }

func (f *Field) Kind() MemberKind { return KindField }
func (f *Field) Name() string     { return f.def.Name }

// DeclaringType is the contextual declaring type.
func (f *Field) DeclaringType() *metadata.Type { return f.reflected }

// FieldType returns the declared type with generic parameters substituted.
func (f *Field) FieldType() *metadata.Type {
	return metadata.Substitute(f.def.Type, f.reflected.TypeArgs, nil)
}

// Offset is the byte offset of the field inside an instance of its declaring
// type, as laid out for that type's own type arguments.
func (f *Field) Offset() int    { return f.reflected.FieldOffset(f.def) }
func (f *Field) IsStatic() bool { return f.def.Static }
func (f *Field) IsPublic() bool { return f.def.Public }

func (f *Field) String() string {
	return f.FieldType().FullName() + " " + f.reflected.FullName() + "::" + f.def.Name
}

func (f *Field) Equal(other Member) bool {
	o, ok := other.(*Field)
	return ok && (f == o || f.memberBase.same(&o.memberBase))
}

var (
	_ Member = (*Method)(nil)
	_ Member = (*Constructor)(nil)
	_ Member = (*Field)(nil)
)

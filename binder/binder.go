// Package binder turns resolved (declaring type, token, arguments) tuples
// into member descriptions.
//
// Binding is idempotent: the same tuple always yields an Equal member, and a
// Binder caches what it has bound so repeated requests return the same
// pointer. The cache is a performance contract only; members bound by
// different binders over the same environment still compare Equal.
package binder

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
	"github.com/wippyai/reflect-runtime/resolver"
)

// cacheKey identifies a bound member by its contextual type, token and
// generic method arguments.
type cacheKey struct {
	args    string
	context metadata.TypeHandle
	token   metadata.Token
}

// Binder binds members and caches the results. It is safe for concurrent use.
type Binder struct {
	cache sync.Map // map[cacheKey]Member
}

// New creates a binder with an empty cache.
func New() *Binder {
	return &Binder{}
}

// BindMethod binds a resolved method handle. Constructors come back as
// *Constructor, everything else as *Method.
func (b *Binder) BindMethod(ref resolver.MethodRef) (Member, error) {
	if ref.DeclaringType == nil {
		return nil, errors.NilArgument(errors.PhaseBind, "declaringType")
	}
	def, ok := ref.DeclaringType.MethodByToken(ref.Token)
	if !ok {
		return nil, errors.New(errors.PhaseBind, errors.KindNotFound).
			Type(ref.DeclaringType.FullName()).
			Value(ref.Token).
			Detail("no method with token %s", ref.Token).
			Build()
	}
	if len(ref.MethodArgs) > 0 && len(ref.MethodArgs) != def.GenericArity {
		return nil, errors.New(errors.PhaseBind, errors.KindInvalidArgument).
			Argument("methodArgs").
			Type(ref.DeclaringType.FullName()).
			Detail("%s takes %d generic arguments, got %d", def.Name, def.GenericArity, len(ref.MethodArgs)).
			Build()
	}
	return b.Method(def, ref.DeclaringType, ref.MethodArgs...), nil
}

// BindField binds a resolved field handle.
func (b *Binder) BindField(ref resolver.FieldRef) (*Field, error) {
	if ref.DeclaringType == nil {
		return nil, errors.NilArgument(errors.PhaseBind, "declaringType")
	}
	def, ok := ref.DeclaringType.FieldByToken(ref.Token)
	if !ok {
		return nil, errors.New(errors.PhaseBind, errors.KindNotFound).
			Type(ref.DeclaringType.FullName()).
			Value(ref.Token).
			Detail("no field with token %s", ref.Token).
			Build()
	}
	return b.Field(def, ref.DeclaringType), nil
}

// Method binds def as seen through reflected, instantiated with args.
func (b *Binder) Method(def *metadata.MethodDef, reflected *metadata.Type, args ...*metadata.Type) Member {
	key := cacheKey{context: reflected.Handle, token: def.Token, args: typesKey(args)}
	if cached, ok := b.cache.Load(key); ok {
		return cached.(Member)
	}

	core := methodCore{
		memberBase: memberBase{
			defining:  reflected.AnchoringDefinition(),
			reflected: reflected,
			token:     def.Token,
		},
		def: def,
	}
	if len(args) > 0 {
		core.args = append([]*metadata.Type(nil), args...)
	}

	var m Member
	if def.Constructor {
		m = &Constructor{methodCore: core}
	} else {
		m = &Method{methodCore: core}
	}
	actual, loaded := b.cache.LoadOrStore(key, m)
	if !loaded {
		Logger().Debug("bound method",
			zap.String("type", reflected.FullName()),
			zap.String("method", def.Name))
	}
	return actual.(Member)
}

// Field binds def as seen through reflected.
func (b *Binder) Field(def *metadata.FieldDef, reflected *metadata.Type) *Field {
	key := cacheKey{context: reflected.Handle, token: def.Token}
	if cached, ok := b.cache.Load(key); ok {
		return cached.(*Field)
	}
	f := &Field{
		memberBase: memberBase{
			defining:  reflected.AnchoringDefinition(),
			reflected: reflected,
			token:     def.Token,
		},
		def: def,
	}
	actual, _ := b.cache.LoadOrStore(key, f)
	return actual.(*Field)
}

// DeclaredMethods binds every method and constructor declared on t, in
// declaration order.
func (b *Binder) DeclaredMethods(t *metadata.Type) []Member {
	defs := t.AnchoringDefinition().Methods
	out := make([]Member, len(defs))
	for i, def := range defs {
		out[i] = b.Method(def, t)
	}
	return out
}

// DeclaredFields binds every field declared on t, in declaration order.
func (b *Binder) DeclaredFields(t *metadata.Type) []*Field {
	defs := t.AnchoringDefinition().Fields
	out := make([]*Field, len(defs))
	for i, def := range defs {
		out[i] = b.Field(def, t)
	}
	return out
}

func typesKey(types []*metadata.Type) string {
	if len(types) == 0 {
		return ""
	}
	hs := make([]metadata.TypeHandle, len(types))
	for i, t := range types {
		hs[i] = t.Handle
	}
	return metadata.HandlesKey(hs)
}

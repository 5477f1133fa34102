// Package resolver turns opaque method and field handles back into
// (declaring type, token, generic arguments) tuples.
//
// A handle alone cannot say which instantiation of a generic type it belongs
// to. The context-free entry points therefore refuse members of constructed
// generic types, and the contextual entry points verify that the supplied
// declaring type is the one the handle was issued for.
package resolver

import (
	"go.uber.org/zap"

	"github.com/wippyai/reflect-runtime/env"
	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
)

// MethodRef is a resolved method handle.
type MethodRef struct {
	DeclaringType *metadata.Type
	MethodArgs    []*metadata.Type
	Token         metadata.Token
}

// FieldRef is a resolved field handle.
type FieldRef struct {
	DeclaringType *metadata.Type
	Token         metadata.Token
}

// Resolver resolves handles against an execution environment. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	env   env.ExecutionEnvironment
	types env.TypeSource
}

// New creates a resolver.
func New(e env.ExecutionEnvironment, types env.TypeSource) *Resolver {
	return &Resolver{env: e, types: types}
}

// ResolveMethod resolves a method handle without a declaring context.
func (r *Resolver) ResolveMethod(h metadata.MethodHandle) (MethodRef, error) {
	entry, ok := r.env.TryGetMethodFromHandle(h)
	if !ok {
		return MethodRef{}, errors.InvalidHandle(errors.PhaseResolve, h)
	}
	declaring, err := r.typeOf(entry.DeclaringType, h)
	if err != nil {
		return MethodRef{}, err
	}
	if declaring.IsConstructedGeneric() {
		return MethodRef{}, errors.AmbiguousGeneric(errors.PhaseResolve, h.String(), declaring.FullName())
	}
	args, err := r.typesOf(entry.MethodArgs, h)
	if err != nil {
		return MethodRef{}, err
	}
	return MethodRef{DeclaringType: declaring, Token: entry.Token, MethodArgs: args}, nil
}

// ResolveMethodIn resolves a method handle in the given declaring context.
// Generic method arguments in ctx are used when the environment recorded
// none; when both are present they must agree.
func (r *Resolver) ResolveMethodIn(h metadata.MethodHandle, ctx metadata.DeclaringContext) (MethodRef, error) {
	if ctx.Type.IsNil() {
		return MethodRef{}, errors.InvalidArgument(errors.PhaseResolve, "declaringType", "declaring type handle is nil")
	}

	entry, ok := r.env.TryGetMethodFromHandleAndType(h, ctx)
	if !ok {
		entry, ok = r.env.TryGetMethodFromHandle(h)
		if !ok {
			return MethodRef{}, errors.InvalidHandle(errors.PhaseResolve, h)
		}
		Logger().Debug("method resolved through context-free table",
			zap.Stringer("handle", h),
			zap.Stringer("context", ctx.Type))
		if entry.DeclaringType != ctx.Type {
			return MethodRef{}, r.mismatch(ctx.Type, entry.DeclaringType)
		}
	}

	argHandles := entry.MethodArgs
	if len(ctx.MethodArgs) > 0 {
		if len(argHandles) > 0 && !metadata.EqualHandles(argHandles, ctx.MethodArgs) {
			return MethodRef{}, errors.New(errors.PhaseResolve, errors.KindContextMismatch).
				Type(env.TypeName(r.types, ctx.Type)).
				Detail("generic method arguments [%s] do not match [%s]",
					metadata.HandlesKey(ctx.MethodArgs), metadata.HandlesKey(argHandles)).
				Build()
		}
		argHandles = ctx.MethodArgs
	}

	declaring, err := r.typeOf(entry.DeclaringType, h)
	if err != nil {
		return MethodRef{}, err
	}
	args, err := r.typesOf(argHandles, h)
	if err != nil {
		return MethodRef{}, err
	}
	return MethodRef{DeclaringType: declaring, Token: entry.Token, MethodArgs: args}, nil
}

// ResolveField resolves a field handle without a declaring context.
func (r *Resolver) ResolveField(h metadata.FieldHandle) (FieldRef, error) {
	entry, ok := r.env.TryGetFieldFromHandle(h)
	if !ok {
		return FieldRef{}, errors.InvalidHandle(errors.PhaseResolve, h)
	}
	declaring, err := r.typeOf(entry.DeclaringType, h)
	if err != nil {
		return FieldRef{}, err
	}
	if declaring.IsConstructedGeneric() {
		return FieldRef{}, errors.AmbiguousGeneric(errors.PhaseResolve, h.String(), declaring.FullName())
	}
	return FieldRef{DeclaringType: declaring, Token: entry.Token}, nil
}

// ResolveFieldIn resolves a field handle in the given declaring context.
func (r *Resolver) ResolveFieldIn(h metadata.FieldHandle, ctx metadata.DeclaringContext) (FieldRef, error) {
	if ctx.Type.IsNil() {
		return FieldRef{}, errors.InvalidArgument(errors.PhaseResolve, "declaringType", "declaring type handle is nil")
	}

	entry, ok := r.env.TryGetFieldFromHandleAndType(h, ctx)
	if !ok {
		entry, ok = r.env.TryGetFieldFromHandle(h)
		if !ok {
			return FieldRef{}, errors.InvalidHandle(errors.PhaseResolve, h)
		}
		Logger().Debug("field resolved through context-free table",
			zap.Stringer("handle", h),
			zap.Stringer("context", ctx.Type))
		if entry.DeclaringType != ctx.Type {
			return FieldRef{}, r.mismatch(ctx.Type, entry.DeclaringType)
		}
	}

	declaring, err := r.typeOf(entry.DeclaringType, h)
	if err != nil {
		return FieldRef{}, err
	}
	return FieldRef{DeclaringType: declaring, Token: entry.Token}, nil
}

func (r *Resolver) mismatch(supplied, actual metadata.TypeHandle) error {
	return errors.ContextMismatch(errors.PhaseResolve,
		env.TypeName(r.types, supplied),
		env.TypeName(r.types, actual))
}

// typeOf maps a declaring type handle reported by the environment. A handle
// the type source does not know makes the member handle itself unusable.
func (r *Resolver) typeOf(th metadata.TypeHandle, member any) (*metadata.Type, error) {
	t, ok := r.types.TypeFromHandle(th)
	if !ok {
		return nil, errors.New(errors.PhaseResolve, errors.KindInvalidHandle).
			Value(member).
			Detail("declaring type %s of %v is unknown", th, member).
			Build()
	}
	return t, nil
}

func (r *Resolver) typesOf(hs []metadata.TypeHandle, member any) ([]*metadata.Type, error) {
	if len(hs) == 0 {
		return nil, nil
	}
	out := make([]*metadata.Type, len(hs))
	for i, th := range hs {
		t, ok := r.types.TypeFromHandle(th)
		if !ok {
			return nil, errors.New(errors.PhaseResolve, errors.KindInvalidHandle).
				Value(member).
				Detail("generic argument %d (%s) of %v is unknown", i, th, member).
				Build()
		}
		out[i] = t
	}
	return out, nil
}

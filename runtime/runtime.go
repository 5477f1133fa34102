package runtime

import (
	"go.uber.org/zap"

	"github.com/wippyai/reflect-runtime/binder"
	"github.com/wippyai/reflect-runtime/delegate"
	"github.com/wippyai/reflect-runtime/enuminfo"
	"github.com/wippyai/reflect-runtime/env"
	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
	"github.com/wippyai/reflect-runtime/resolver"
	"github.com/wippyai/reflect-runtime/typedref"
)

// Options configures a Runtime.
type Options struct {
	// StaticSearchAncestors makes static by-name delegate binding search base
	// types as well as the target type.
	StaticSearchAncestors bool
}

// DefaultOptions returns default runtime configuration.
func DefaultOptions() Options {
	return Options{
		StaticSearchAncestors: true,
	}
}

// Runtime is the reflection entry point over one environment. Thread-safe.
type Runtime struct {
	env       env.Environment
	cctors    env.ClassConstructorRunner
	resolver  *resolver.Resolver
	members   *binder.Binder
	delegates *delegate.Binder
	enums     *enuminfo.Cache
	options   Options
}

// New creates a runtime over e. When e also implements
// env.ClassConstructorRunner, RunClassConstructor uses it.
func New(e env.Environment, opts Options) *Runtime {
	members := binder.New()
	r := &Runtime{
		env:      e,
		resolver: resolver.New(e, e),
		members:  members,
		delegates: delegate.New(e, members, delegate.Options{
			StaticSearchAncestors: opts.StaticSearchAncestors,
		}),
		enums:   enuminfo.New(e),
		options: opts,
	}
	if runner, ok := e.(env.ClassConstructorRunner); ok {
		r.cctors = runner
	}
	return r
}

// NewWithDefaults creates a runtime with default options.
func NewWithDefaults(e env.Environment) *Runtime {
	return New(e, DefaultOptions())
}

// Options returns the configuration.
func (r *Runtime) Options() Options {
	return r.options
}

// Environment returns the environment the runtime resolves against.
func (r *Runtime) Environment() env.Environment {
	return r.env
}

// Binder returns the member binder shared by every runtime operation.
func (r *Runtime) Binder() *binder.Binder {
	return r.members
}

// TypeFromHandle returns the type a type handle names.
func (r *Runtime) TypeFromHandle(h metadata.TypeHandle) (*metadata.Type, error) {
	t, ok := r.env.TypeFromHandle(h)
	if !ok {
		return nil, errors.InvalidHandle(errors.PhaseRuntime, h)
	}
	return t, nil
}

// MethodFromHandle resolves and binds a method handle without context.
func (r *Runtime) MethodFromHandle(h metadata.MethodHandle) (binder.Member, error) {
	ref, err := r.resolver.ResolveMethod(h)
	if err != nil {
		return nil, err
	}
	return r.members.BindMethod(ref)
}

// MethodFromHandleIn resolves and binds a method handle in a declaring context.
func (r *Runtime) MethodFromHandleIn(h metadata.MethodHandle, ctx metadata.DeclaringContext) (binder.Member, error) {
	ref, err := r.resolver.ResolveMethodIn(h, ctx)
	if err != nil {
		return nil, err
	}
	return r.members.BindMethod(ref)
}

// FieldFromHandle resolves and binds a field handle without context.
func (r *Runtime) FieldFromHandle(h metadata.FieldHandle) (*binder.Field, error) {
	ref, err := r.resolver.ResolveField(h)
	if err != nil {
		return nil, err
	}
	return r.members.BindField(ref)
}

// FieldFromHandleIn resolves and binds a field handle on a declaring type.
func (r *Runtime) FieldFromHandleIn(h metadata.FieldHandle, declaringType metadata.TypeHandle) (*binder.Field, error) {
	ref, err := r.resolver.ResolveFieldIn(h, metadata.Context(declaringType))
	if err != nil {
		return nil, err
	}
	return r.members.BindField(ref)
}

// MakeTypedReference returns the type and offset reached by following
// fields from target.
func (r *Runtime) MakeTypedReference(target metadata.Object, fields []*binder.Field) (typedref.Reference, error) {
	return typedref.Build(target, fields)
}

// EnumTable returns the sorted value table of an enum type.
func (r *Runtime) EnumTable(t *metadata.Type) (*enuminfo.Table, error) {
	return r.enums.Table(t)
}

// TypeCode returns the type code of t.
func (r *Runtime) TypeCode(t *metadata.Type) metadata.TypeCode {
	return metadata.TypeCodeOf(t)
}

// RunClassConstructor runs t's class constructor unless it already ran.
// Types without one succeed immediately. A failing constructor reports the
// same error on every call.
func (r *Runtime) RunClassConstructor(t *metadata.Type) error {
	if t == nil {
		return errors.NilArgument(errors.PhaseRuntime, "type")
	}
	ctx := r.env.GetStaticConstructorContext(t.Handle)
	if ctx == 0 {
		return nil
	}
	if r.cctors == nil {
		return errors.NotRuntimeBacked(errors.PhaseRuntime, "type", "class constructor of "+t.FullName())
	}
	Logger().Debug("running class constructor",
		zap.String("type", t.FullName()),
		zap.Uintptr("context", ctx))
	return r.cctors.EnsureClassConstructorRun(ctx)
}

// FunctionPointer returns the code address of a method or constructor.
func (r *Runtime) FunctionPointer(m binder.Member) (uintptr, error) {
	var entry uintptr
	switch v := m.(type) {
	case *binder.Method:
		if v == nil {
			return 0, errors.NilArgument(errors.PhaseRuntime, "method")
		}
		if !v.RuntimeBacked() {
			return 0, errors.NotRuntimeBacked(errors.PhaseRuntime, "method", v.String())
		}
		entry = v.EntryPoint()
	case *binder.Constructor:
		if v == nil {
			return 0, errors.NilArgument(errors.PhaseRuntime, "method")
		}
		if !v.RuntimeBacked() {
			return 0, errors.NotRuntimeBacked(errors.PhaseRuntime, "method", v.String())
		}
		entry = v.EntryPoint()
	case *binder.Field:
		if v == nil {
			return 0, errors.NilArgument(errors.PhaseRuntime, "method")
		}
		return 0, errors.NotRuntimeBacked(errors.PhaseRuntime, "method", "function pointer of field "+v.String())
	case nil:
		return 0, errors.NilArgument(errors.PhaseRuntime, "method")
	}
	if entry == 0 {
		return 0, errors.NotRuntimeBacked(errors.PhaseRuntime, "method", "entry point of "+m.String())
	}
	return entry, nil
}

// FunctionPointerFromHandle resolves a method handle, in declaringType's
// context when it is set, and returns its code address.
func (r *Runtime) FunctionPointerFromHandle(h metadata.MethodHandle, declaringType metadata.TypeHandle) (uintptr, error) {
	var (
		m   binder.Member
		err error
	)
	if declaringType.IsNil() {
		m, err = r.MethodFromHandle(h)
	} else {
		m, err = r.MethodFromHandleIn(h, metadata.Context(declaringType))
	}
	if err != nil {
		return 0, err
	}
	return r.FunctionPointer(m)
}

// Package delegate binds delegate types to target methods.
//
// Two modes exist. Method binding takes an already bound method and checks
// it against the delegate's Invoke signature, either exactly or under
// assignability rules. Name binding searches a type and its ancestors for a
// method whose signature matches Invoke exactly.
package delegate

import (
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/reflect-runtime/binder"
	"github.com/wippyai/reflect-runtime/env"
	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
)

// Options configures name-based binding.
type Options struct {
	// StaticSearchAncestors makes static name binding walk base types the way
	// instance binding does. When false only the target type is searched.
	StaticSearchAncestors bool
}

// DefaultOptions returns the default binding options.
func DefaultOptions() Options {
	return Options{StaticSearchAncestors: true}
}

// MethodRequest binds a delegate type to a bound method.
type MethodRequest struct {
	Type   *metadata.Type
	Method binder.Member
	// FirstArgument is the receiver or leading argument a closed delegate
	// captures. It is only consulted when AllowClosed and Relaxed are set,
	// and is ignored when an open static match exists.
	FirstArgument metadata.Object
	// Relaxed accepts assignable parameter and return types and lets an
	// instance method absorb the leading Invoke parameter as its receiver.
	Relaxed            bool
	AllowClosed        bool
	ThrowOnBindFailure bool
}

// NameRequest binds a delegate type to a method found by name. Exactly one of
// Target (instance methods) and TargetType (static methods) is set.
type NameRequest struct {
	Type       *metadata.Type
	Target     metadata.Object
	TargetType *metadata.Type
	Name       string
	IgnoreCase bool
	// ThrowOnBindFailure turns a missing match into an error instead of a
	// nil delegate.
	ThrowOnBindFailure bool
}

// Delegate is a successful binding.
type Delegate struct {
	Type   *metadata.Type
	Method *binder.Method
	// Target is the captured receiver or first argument of a closed delegate.
	Target          metadata.Object
	FunctionPointer uintptr
	// Closed reports that the delegate captured its first argument.
	Closed bool
}

// Binder creates delegates. It is safe for concurrent use.
type Binder struct {
	env     env.ExecutionEnvironment
	members *binder.Binder
	opts    Options
}

// New creates a delegate binder.
func New(e env.ExecutionEnvironment, members *binder.Binder, opts Options) *Binder {
	return &Binder{env: e, members: members, opts: opts}
}

// signature is a delegate's Invoke parameter list and return type.
type signature struct {
	ret    *metadata.Type
	params []*metadata.Type
}

func (b *Binder) invokeSignature(t *metadata.Type) (signature, error) {
	def, ok := t.InvokeMethod()
	if !ok {
		return signature{}, errors.InvalidArgument(errors.PhaseDelegate, "type",
			t.FullName()+" has no Invoke method")
	}
	invoke := b.members.Method(def, t).(*binder.Method)
	return signature{ret: invoke.ReturnType(), params: invoke.Parameters()}, nil
}

func (b *Binder) checkDelegateType(t *metadata.Type) error {
	if t == nil {
		return errors.NilArgument(errors.PhaseDelegate, "type")
	}
	if !t.IsDelegate() {
		return errors.InvalidArgument(errors.PhaseDelegate, "type",
			t.FullName()+" is not a delegate type")
	}
	if t.MetadataOnly {
		return errors.NotRuntimeBacked(errors.PhaseDelegate, "type", t.FullName())
	}
	return nil
}

// BindMethod binds req.Type to req.Method. A signature mismatch returns a
// nil delegate and no error unless ThrowOnBindFailure is set.
func (b *Binder) BindMethod(req MethodRequest) (*Delegate, error) {
	if req.Type == nil {
		return nil, errors.NilArgument(errors.PhaseDelegate, "type")
	}
	if req.Method == nil {
		return nil, errors.NilArgument(errors.PhaseDelegate, "method")
	}
	m, ok := req.Method.(*binder.Method)
	if !ok {
		return nil, errors.InvalidArgument(errors.PhaseDelegate, "method",
			req.Method.Kind().String()+" cannot be the target of a delegate")
	}
	if m == nil {
		return nil, errors.NilArgument(errors.PhaseDelegate, "method")
	}
	if !m.RuntimeBacked() {
		return nil, errors.NotRuntimeBacked(errors.PhaseDelegate, "method", m.String())
	}
	if err := b.checkDelegateType(req.Type); err != nil {
		return nil, err
	}
	if m.ContainsGenericParameters() {
		return nil, errors.InvalidArgument(errors.PhaseDelegate, "method",
			m.String()+" contains generic parameters")
	}

	sig, err := b.invokeSignature(req.Type)
	if err != nil {
		return nil, err
	}

	var first metadata.Object
	if req.AllowClosed {
		first = req.FirstArgument
	}
	closed, ok := b.match(sig, m, first, req.Relaxed, req.AllowClosed)
	if !ok {
		return b.fail(req.Type, req.ThrowOnBindFailure, "%s does not match the Invoke signature", m)
	}

	d := &Delegate{
		Type:            req.Type,
		Method:          m,
		FunctionPointer: m.EntryPoint(),
		Closed:          closed,
	}
	if closed {
		d.Target = first
	}
	return d, nil
}

// match checks m against the Invoke signature and reports whether the
// resulting delegate is closed over its first argument.
func (b *Binder) match(sig signature, m *binder.Method, first metadata.Object, relaxed, allowClosed bool) (closed, ok bool) {
	params := m.Parameters()
	paramOK := exactParam
	if relaxed {
		paramOK = relaxedParam
	}
	if !returnOK(sig.ret, m.ReturnType(), relaxed) {
		return false, false
	}

	if m.IsStatic() {
		// open static: parameters line up one to one. A supplied first
		// argument has no parameter to fill and is not captured.
		if len(params) == len(sig.params) {
			return false, paramsOK(sig.params, params, paramOK)
		}
		// static closed over its first parameter
		if allowClosed && relaxed && len(params) == len(sig.params)+1 {
			if !argumentOK(params[0], first) {
				return false, false
			}
			return true, paramsOK(sig.params, params[1:], paramOK)
		}
		return false, false
	}

	receiver := m.DeclaringType()
	// instance closed over the receiver, relaxed mode only
	if relaxed && allowClosed && first != nil && len(params) == len(sig.params) {
		if !metadata.IsAssignableFrom(receiver, first.RuntimeType()) {
			return false, false
		}
		return true, paramsOK(sig.params, params, paramOK)
	}
	// open instance: the first Invoke parameter becomes the receiver
	if relaxed && first == nil && len(sig.params) == len(params)+1 {
		if !metadata.IsAssignableFrom(receiver, sig.params[0]) {
			return false, false
		}
		return false, paramsOK(sig.params[1:], params, paramOK)
	}
	return false, false
}

func exactParam(invoke, method *metadata.Type) bool { return invoke == method }

// relaxedParam accepts a method parameter that can receive every value the
// delegate parameter can hold.
func relaxedParam(invoke, method *metadata.Type) bool {
	return metadata.IsAssignableFrom(method, invoke)
}

func returnOK(invoke, method *metadata.Type, relaxed bool) bool {
	if invoke == nil || method == nil {
		return invoke == method
	}
	if relaxed {
		return metadata.IsAssignableFrom(invoke, method)
	}
	return invoke == method
}

func paramsOK(invoke, method []*metadata.Type, ok func(invoke, method *metadata.Type) bool) bool {
	if len(invoke) != len(method) {
		return false
	}
	for i := range invoke {
		if !ok(invoke[i], method[i]) {
			return false
		}
	}
	return true
}

// argumentOK checks a captured first argument against the parameter it fills.
// A nil argument can only fill a reference-typed parameter.
func argumentOK(param *metadata.Type, arg metadata.Object) bool {
	if arg == nil {
		return !param.IsValueType()
	}
	return metadata.IsAssignableFrom(param, arg.RuntimeType())
}

// BindName binds req.Type to the instance method named req.Name on the
// runtime type of req.Target or one of its base types. The delegate is
// closed over the target.
func (b *Binder) BindName(req NameRequest) (*Delegate, error) {
	if err := b.checkDelegateType(req.Type); err != nil {
		return nil, err
	}
	if req.Target == nil {
		return nil, errors.NilArgument(errors.PhaseDelegate, "target")
	}
	if req.Name == "" {
		return nil, errors.NilArgument(errors.PhaseDelegate, "method")
	}
	t := req.Target.RuntimeType()
	if t == nil {
		return nil, errors.InvalidArgument(errors.PhaseDelegate, "target", "target has no runtime type")
	}

	m, err := b.findByName(req, metadata.Ancestors(t), false)
	if m == nil || err != nil {
		return nil, err
	}
	return &Delegate{
		Type:            req.Type,
		Method:          m,
		Target:          req.Target,
		FunctionPointer: m.EntryPoint(),
		Closed:          true,
	}, nil
}

// BindStaticName binds req.Type to the static method named req.Name on
// req.TargetType. The delegate is open.
func (b *Binder) BindStaticName(req NameRequest) (*Delegate, error) {
	if err := b.checkDelegateType(req.Type); err != nil {
		return nil, err
	}
	if req.TargetType == nil {
		return nil, errors.NilArgument(errors.PhaseDelegate, "target")
	}
	if req.TargetType.ContainsGenericParameters() {
		return nil, errors.InvalidArgument(errors.PhaseDelegate, "target",
			req.TargetType.FullName()+" contains generic parameters")
	}
	if req.Name == "" {
		return nil, errors.NilArgument(errors.PhaseDelegate, "method")
	}

	search := metadata.Only(req.TargetType)
	if b.opts.StaticSearchAncestors {
		search = metadata.Ancestors(req.TargetType)
	}
	m, err := b.findByName(req, search, true)
	if m == nil || err != nil {
		return nil, err
	}
	return &Delegate{
		Type:            req.Type,
		Method:          m,
		FunctionPointer: m.EntryPoint(),
	}, nil
}

// findByName returns the first method in search order whose name, staticness,
// parameter types and return type match exactly. Visibility does not filter.
// A nil method with a nil error is a suppressed binding failure.
func (b *Binder) findByName(req NameRequest, search iter.Seq[*metadata.Type], static bool) (*binder.Method, error) {
	sig, err := b.invokeSignature(req.Type)
	if err != nil {
		return nil, err
	}

	for current := range search {
		for _, def := range current.AnchoringDefinition().Methods {
			if def.Constructor || def.Static != static || def.GenericArity > 0 {
				continue
			}
			if !sameName(def.Name, req.Name, req.IgnoreCase) {
				continue
			}
			m := b.members.Method(def, current).(*binder.Method)
			if !paramsOK(sig.params, m.Parameters(), exactParam) || !returnOK(sig.ret, m.ReturnType(), false) {
				continue
			}
			if !m.RuntimeBacked() {
				return nil, errors.NotRuntimeBacked(errors.PhaseDelegate, "method", m.String())
			}
			Logger().Debug("bound delegate by name",
				zap.String("delegate", req.Type.FullName()),
				zap.String("method", m.String()))
			return m, nil
		}
	}

	_, err = b.fail(req.Type, req.ThrowOnBindFailure, "no method %q matching the Invoke signature", req.Name)
	return nil, err
}

func sameName(have, want string, ignoreCase bool) bool {
	if ignoreCase {
		return strings.EqualFold(have, want)
	}
	return have == want
}

func (b *Binder) fail(t *metadata.Type, throw bool, format string, args ...any) (*Delegate, error) {
	err := errors.New(errors.PhaseDelegate, errors.KindBindingFailure).
		Type(t.FullName()).
		Detail(format, args...).
		Build()
	if throw {
		return nil, err
	}
	Logger().Debug("delegate binding failed", zap.Error(err))
	return nil, nil
}

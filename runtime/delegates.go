package runtime

import (
	"github.com/wippyai/reflect-runtime/binder"
	"github.com/wippyai/reflect-runtime/delegate"
	"github.com/wippyai/reflect-runtime/metadata"
)

// CreateDelegate binds an open delegate of type t to method under relaxed
// signature rules. A mismatch yields a nil delegate unless throw is set.
func (r *Runtime) CreateDelegate(t *metadata.Type, method binder.Member, throw bool) (*delegate.Delegate, error) {
	return r.delegates.BindMethod(delegate.MethodRequest{
		Type:               t,
		Method:             method,
		Relaxed:            true,
		ThrowOnBindFailure: throw,
	})
}

// CreateDelegateClosed is CreateDelegate with the delegate allowed to capture
// firstArgument as the receiver or leading argument of method.
func (r *Runtime) CreateDelegateClosed(t *metadata.Type, firstArgument metadata.Object, method binder.Member, throw bool) (*delegate.Delegate, error) {
	return r.delegates.BindMethod(delegate.MethodRequest{
		Type:               t,
		Method:             method,
		FirstArgument:      firstArgument,
		Relaxed:            true,
		AllowClosed:        true,
		ThrowOnBindFailure: throw,
	})
}

// BindDelegate binds with full control over the request, exact mode included.
func (r *Runtime) BindDelegate(req delegate.MethodRequest) (*delegate.Delegate, error) {
	return r.delegates.BindMethod(req)
}

// CreateDelegateByName binds t to the instance method name on target,
// closed over target.
func (r *Runtime) CreateDelegateByName(t *metadata.Type, target metadata.Object, name string, ignoreCase, throw bool) (*delegate.Delegate, error) {
	return r.delegates.BindName(delegate.NameRequest{
		Type:               t,
		Target:             target,
		Name:               name,
		IgnoreCase:         ignoreCase,
		ThrowOnBindFailure: throw,
	})
}

// CreateStaticDelegateByName binds t to the static method name on targetType.
func (r *Runtime) CreateStaticDelegateByName(t, targetType *metadata.Type, name string, ignoreCase, throw bool) (*delegate.Delegate, error) {
	return r.delegates.BindStaticName(delegate.NameRequest{
		Type:               t,
		TargetType:         targetType,
		Name:               name,
		IgnoreCase:         ignoreCase,
		ThrowOnBindFailure: throw,
	})
}

// DelegateInvokeInfo returns the dynamic invoke descriptor of a delegate type.
func (r *Runtime) DelegateInvokeInfo(t *metadata.Type) (*delegate.InvokeInfo, error) {
	return r.delegates.InvokeInfo(t)
}

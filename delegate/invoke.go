package delegate

import (
	"go.uber.org/zap"

	"github.com/wippyai/reflect-runtime/binder"
	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
)

// InvokeInfo describes how to call a delegate type dynamically.
type InvokeInfo struct {
	Type   *metadata.Type
	Invoke *binder.Method
	// Thunk is the dynamic invoke stub for Invoke.
	Thunk uintptr
}

// InvokeInfo returns the dynamic invoke descriptor of a delegate type. It is
// computed once per type and cached on the type.
func (b *Binder) InvokeInfo(t *metadata.Type) (*InvokeInfo, error) {
	if t == nil {
		return nil, errors.NilArgument(errors.PhaseDelegate, "type")
	}
	if cached, ok := metadata.LoadCached[InvokeInfo](t, metadata.CacheInvokeInfo); ok {
		return cached, nil
	}
	if !t.IsDelegate() {
		return nil, errors.InvalidArgument(errors.PhaseDelegate, "type", t.FullName()+" is not a delegate type")
	}
	def, ok := t.InvokeMethod()
	if !ok {
		return nil, errors.InvalidArgument(errors.PhaseDelegate, "type", t.FullName()+" has no Invoke method")
	}
	thunk := b.env.GetInvokeThunk(def)
	if thunk == 0 {
		return nil, errors.NotRuntimeBacked(errors.PhaseDelegate, "type", "dynamic invoke of "+t.FullName())
	}

	info := &InvokeInfo{
		Type:   t,
		Invoke: b.members.Method(def, t).(*binder.Method),
		Thunk:  thunk,
	}
	published := metadata.PublishCached(t, metadata.CacheInvokeInfo, info)
	if published == info {
		Logger().Debug("published invoke info",
			zap.String("type", t.FullName()),
			zap.Uintptr("thunk", thunk))
	}
	return published, nil
}

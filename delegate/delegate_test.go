package delegate

import (
	"errors"
	"sync"
	"testing"

	"github.com/wippyai/reflect-runtime/binder"
	rerrors "github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/internal/fixture"
	"github.com/wippyai/reflect-runtime/metadata"
)

func newBinder(t *testing.T, opts Options) (*fixture.Fixture, *binder.Binder, *Binder) {
	t.Helper()
	f := fixture.New(t)
	members := binder.New()
	return f, members, New(f.Env, members, opts)
}

func TestStaticNameFindsBaseMethod(t *testing.T) {
	f, _, b := newBinder(t, DefaultOptions())

	d, err := b.BindStaticName(NameRequest{
		Type:               f.IntFunc,
		TargetType:         f.Derived,
		Name:               "Compute",
		ThrowOnBindFailure: true,
	})
	if err != nil {
		t.Fatalf("BindStaticName: %v", err)
	}
	if d.Method.Def() != f.Compute {
		t.Errorf("method: got %s, want Demo.Base.Compute", d.Method)
	}
	if d.Method.DeclaringType() != f.Base {
		t.Errorf("declaring type: got %v, want Demo.Base", d.Method.DeclaringType())
	}
	if d.Closed || d.Target != nil {
		t.Error("static delegate must be open")
	}
	if d.FunctionPointer != f.Compute.EntryPoint {
		t.Errorf("function pointer: got %#x, want %#x", d.FunctionPointer, f.Compute.EntryPoint)
	}
}

func TestStaticNameExactTypeOnly(t *testing.T) {
	f, _, b := newBinder(t, Options{StaticSearchAncestors: false})

	d, err := b.BindStaticName(NameRequest{Type: f.IntFunc, TargetType: f.Derived, Name: "Compute"})
	if err != nil || d != nil {
		t.Errorf("derived target without ancestor search: got %v, %v", d, err)
	}
	d, err = b.BindStaticName(NameRequest{Type: f.IntFunc, TargetType: f.Base, Name: "Compute"})
	if err != nil || d == nil {
		t.Errorf("declaring target: got %v, %v", d, err)
	}
}

func TestInstanceName(t *testing.T) {
	f, _, b := newBinder(t, DefaultOptions())
	target := metadata.NewInstance(f.Derived)

	tests := []struct {
		name       string
		method     string
		ignoreCase bool
		want       *metadata.MethodDef
	}{
		{"exact name", "Twice", false, f.Twice},
		{"ignore case", "twice", true, f.Twice},
		{"case sensitive miss", "twice", false, nil},
		{"non-public", "hidden", false, f.Hidden},
		{"static is not instance", "Compute", false, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := b.BindName(NameRequest{
				Type:       f.IntFunc,
				Target:     target,
				Name:       tc.method,
				IgnoreCase: tc.ignoreCase,
			})
			if err != nil {
				t.Fatalf("BindName: %v", err)
			}
			if tc.want == nil {
				if d != nil {
					t.Fatalf("got %s, want no binding", d.Method)
				}
				return
			}
			if d == nil {
				t.Fatal("got no binding")
			}
			if d.Method.Def() != tc.want {
				t.Errorf("method: got %s", d.Method)
			}
			if !d.Closed || d.Target != target {
				t.Error("instance delegate must be closed over the target")
			}
		})
	}
}

func TestNameBindingRequiresExactSignature(t *testing.T) {
	f, _, b := newBinder(t, DefaultOptions())

	// Describe takes object; StringAction passes string. Assignable, not exact.
	_, err := b.BindStaticName(NameRequest{
		Type:               f.StringAction,
		TargetType:         f.Util,
		Name:               "Describe",
		ThrowOnBindFailure: true,
	})
	if !errors.Is(err, rerrors.ErrBindingFailure) {
		t.Errorf("got %v, want binding failure", err)
	}
}

func TestNameBindingArguments(t *testing.T) {
	f, _, b := newBinder(t, DefaultOptions())

	tests := []struct {
		name    string
		req     NameRequest
		static  bool
		wantErr error
	}{
		{"generic definition target", NameRequest{Type: f.IntFunc, TargetType: f.BoxDef, Name: "Get"}, true, rerrors.ErrInvalidArgument},
		{"nil static target", NameRequest{Type: f.IntFunc, Name: "Compute"}, true, rerrors.ErrInvalidArgument},
		{"nil instance target", NameRequest{Type: f.IntFunc, Name: "Twice"}, false, rerrors.ErrInvalidArgument},
		{"empty name", NameRequest{Type: f.IntFunc, TargetType: f.Base}, true, rerrors.ErrInvalidArgument},
		{"nil type", NameRequest{TargetType: f.Base, Name: "Compute"}, true, rerrors.ErrInvalidArgument},
		{"not a delegate", NameRequest{Type: f.Base, TargetType: f.Base, Name: "Compute"}, true, rerrors.ErrInvalidArgument},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			if tc.static {
				_, err = b.BindStaticName(tc.req)
			} else {
				_, err = b.BindName(tc.req)
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestBindMethodExactAndRelaxed(t *testing.T) {
	f, members, b := newBinder(t, DefaultOptions())
	describe := members.Method(f.Describe, f.Util)
	shout := members.Method(f.Shout, f.Util)
	compute := members.Method(f.Compute, f.Base)

	tests := []struct {
		name    string
		typ     *metadata.Type
		method  binder.Member
		relaxed bool
		want    bool
	}{
		{"identical signature", f.IntFunc, compute, false, true},
		{"object delegate, string method, exact", f.ObjectAction, shout, false, false},
		{"object delegate, string method, relaxed", f.ObjectAction, shout, true, false},
		{"string delegate, object method, exact", f.StringAction, describe, false, false},
		{"string delegate, object method, relaxed", f.StringAction, describe, true, true},
		{"arity mismatch", f.IntIntFunc, compute, true, false},
		{"void delegate, int method", f.ObjectAction, compute, true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := b.BindMethod(MethodRequest{Type: tc.typ, Method: tc.method, Relaxed: tc.relaxed})
			if err != nil {
				t.Fatalf("BindMethod: %v", err)
			}
			if got := d != nil; got != tc.want {
				t.Errorf("bound: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBindMethodThrowOnFailure(t *testing.T) {
	f, members, b := newBinder(t, DefaultOptions())
	shout := members.Method(f.Shout, f.Util)

	d, err := b.BindMethod(MethodRequest{Type: f.ObjectAction, Method: shout})
	if d != nil || err != nil {
		t.Errorf("suppressed failure: got %v, %v", d, err)
	}

	_, err = b.BindMethod(MethodRequest{Type: f.ObjectAction, Method: shout, ThrowOnBindFailure: true})
	var re *rerrors.Error
	if !errors.As(err, &re) || re.Kind != rerrors.KindBindingFailure {
		t.Fatalf("got %v, want binding failure", err)
	}
	if re.Type != "Demo.ObjectAction" {
		t.Errorf("error type: got %q", re.Type)
	}
}

func TestBindMethodReceiver(t *testing.T) {
	f, members, b := newBinder(t, DefaultOptions())
	twice := members.Method(f.Twice, f.Base)
	receiver := metadata.NewInstance(f.Derived)

	open, err := b.BindMethod(MethodRequest{Type: f.BaseFunc, Method: twice, Relaxed: true})
	if err != nil || open == nil {
		t.Fatalf("open instance: got %v, %v", open, err)
	}
	if open.Closed {
		t.Error("receiver absorbed from Invoke should leave the delegate open")
	}

	exact, err := b.BindMethod(MethodRequest{Type: f.BaseFunc, Method: twice})
	if err != nil || exact != nil {
		t.Errorf("exact mode must not absorb the receiver: got %v, %v", exact, err)
	}

	closed, err := b.BindMethod(MethodRequest{
		Type:          f.IntFunc,
		Method:        twice,
		FirstArgument: receiver,
		AllowClosed:   true,
		Relaxed:       true,
	})
	if err != nil || closed == nil {
		t.Fatalf("closed instance: got %v, %v", closed, err)
	}
	if !closed.Closed || closed.Target != receiver {
		t.Error("delegate should be closed over the receiver")
	}

	wrong, err := b.BindMethod(MethodRequest{
		Type:          f.IntFunc,
		Method:        twice,
		FirstArgument: metadata.NewInstance(f.Holder),
		AllowClosed:   true,
		Relaxed:       true,
	})
	if err != nil || wrong != nil {
		t.Errorf("receiver of the wrong type: got %v, %v", wrong, err)
	}

	exactClosed, err := b.BindMethod(MethodRequest{
		Type:          f.IntFunc,
		Method:        twice,
		FirstArgument: receiver,
		AllowClosed:   true,
	})
	if err != nil || exactClosed != nil {
		t.Errorf("exact mode must not capture the receiver: got %v, %v", exactClosed, err)
	}
}

func TestBindMethodStaticIgnoresFirstArgument(t *testing.T) {
	f, members, b := newBinder(t, DefaultOptions())
	compute := members.Method(f.Compute, f.Base)

	for _, relaxed := range []bool{false, true} {
		d, err := b.BindMethod(MethodRequest{
			Type:          f.IntFunc,
			Method:        compute,
			FirstArgument: metadata.NewInstance(f.Base),
			AllowClosed:   true,
			Relaxed:       relaxed,
		})
		if err != nil || d == nil {
			t.Fatalf("relaxed=%v: got %v, %v", relaxed, d, err)
		}
		if d.Closed || d.Target != nil {
			t.Errorf("relaxed=%v: open static match should not capture the first argument", relaxed)
		}
	}
}

func TestBindMethodArguments(t *testing.T) {
	f, members, b := newBinder(t, DefaultOptions())

	tests := []struct {
		name    string
		req     MethodRequest
		wantErr error
	}{
		{"nil type", MethodRequest{Method: members.Method(f.Compute, f.Base)}, rerrors.ErrInvalidArgument},
		{"nil method", MethodRequest{Type: f.IntFunc}, rerrors.ErrInvalidArgument},
		{"typed nil method", MethodRequest{Type: f.IntFunc, Method: (*binder.Method)(nil)}, rerrors.ErrInvalidArgument},
		{"constructor", MethodRequest{Type: f.IntFunc, Method: members.Method(f.BaseCtor, f.Base)}, rerrors.ErrInvalidArgument},
		{"field", MethodRequest{Type: f.IntFunc, Method: members.Field(f.BaseTag, f.Base)}, rerrors.ErrInvalidArgument},
		{"not a delegate", MethodRequest{Type: f.Base, Method: members.Method(f.Compute, f.Base)}, rerrors.ErrInvalidArgument},
		{"metadata only", MethodRequest{Type: f.IntFunc, Method: members.Method(f.Haunt, f.Ghost)}, rerrors.ErrNotRuntimeBacked},
		{"open generic", MethodRequest{Type: f.IntFunc, Method: members.Method(f.Identity, f.Util)}, rerrors.ErrInvalidArgument},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.BindMethod(tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}

	identityInt := members.Method(f.Identity, f.Util, f.Core.Int32)
	d, err := b.BindMethod(MethodRequest{Type: f.IntFunc, Method: identityInt})
	if err != nil || d == nil {
		t.Errorf("instantiated generic method: got %v, %v", d, err)
	}
}

func TestInvokeInfo(t *testing.T) {
	f, _, b := newBinder(t, DefaultOptions())

	info, err := b.InvokeInfo(f.IntFunc)
	if err != nil {
		t.Fatal(err)
	}
	if info.Thunk == 0 {
		t.Error("thunk should be set")
	}
	if info.Invoke.Name() != "Invoke" || info.Invoke.ReturnType() != f.Core.Int32 {
		t.Errorf("invoke: got %s", info.Invoke)
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*InvokeInfo, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = b.InvokeInfo(f.IntFunc)
		}()
	}
	wg.Wait()
	for i, r := range results {
		if r != info {
			t.Errorf("worker %d: got a different descriptor", i)
		}
	}

	if _, err := b.InvokeInfo(f.Order); !errors.Is(err, rerrors.ErrInvalidArgument) {
		t.Errorf("enum type: got %v", err)
	}
	if _, err := b.InvokeInfo(nil); !errors.Is(err, rerrors.ErrInvalidArgument) {
		t.Errorf("nil type: got %v", err)
	}
}

package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseTypedRef,
				Kind:     KindTypeMismatch,
				Path:     []string{"Outer", "inner", "x"},
				Type:     "Demo.Outer",
				Other:    "Demo.Inner",
				Argument: "flds",
				Detail:   "field not declared on target",
			},
			contains: []string{"[typedref]", "type_mismatch", "Outer.inner.x", "Demo.Outer", "Demo.Inner", "flds", "field not declared"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseResolve,
				Kind:  KindInvalidHandle,
			},
			contains: []string{"[resolve]", "invalid_handle"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindInvalidData,
				Detail: "bad image",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "invalid_data", "bad image", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseResolve,
		Kind:  KindContextMismatch,
	}

	if !err.Is(&Error{Phase: PhaseResolve, Kind: KindContextMismatch}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseBind, Kind: KindContextMismatch}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseResolve, Kind: KindInvalidHandle}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrContextMismatch) {
		t.Error("errors.Is should match the kind sentinel")
	}
	if errors.Is(err, ErrInvalidHandle) {
		t.Error("errors.Is should not match a different sentinel")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseDelegate, KindBindingFailure).
		Path("Demo.Derived", "Compute").
		Type("Demo.Func").
		Other("Demo.Derived").
		Argument("method").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "int", "string").
		Build()

	if err.Phase != PhaseDelegate {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseDelegate)
	}
	if err.Kind != KindBindingFailure {
		t.Errorf("Kind = %v, want %v", err.Kind, KindBindingFailure)
	}
	if len(err.Path) != 2 || err.Path[1] != "Compute" {
		t.Errorf("Path = %v, want [Demo.Derived Compute]", err.Path)
	}
	if err.Type != "Demo.Func" || err.Other != "Demo.Derived" {
		t.Errorf("Type=%v Other=%v", err.Type, err.Other)
	}
	if err.Argument != "method" {
		t.Errorf("Argument = %v, want method", err.Argument)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected int, got string" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind Kind
	}{
		{"InvalidHandle", InvalidHandle(PhaseResolve, 7), KindInvalidHandle},
		{"AmbiguousGeneric", AmbiguousGeneric(PhaseResolve, "Add", "List`1[Int32]"), KindAmbiguousGeneric},
		{"ContextMismatch", ContextMismatch(PhaseResolve, "A", "B"), KindContextMismatch},
		{"NilArgument", NilArgument(PhaseDelegate, "type"), KindInvalidArgument},
		{"TypeMismatch", TypeMismatch(PhaseTypedRef, nil, "A", "B"), KindTypeMismatch},
		{"InvalidField", InvalidField(PhaseTypedRef, nil, "static"), KindInvalidField},
		{"NestedReference", NestedReference(PhaseTypedRef, nil, "Demo.Ref"), KindNestedReference},
		{"BindingFailure", BindingFailure(PhaseDelegate, "Demo.Func", "no match"), KindBindingFailure},
		{"NotRuntimeBacked", NotRuntimeBacked(PhaseDelegate, "method", "metadata-only method"), KindNotRuntimeBacked},
		{"Overflow", Overflow(PhaseTypedRef, nil, 1, "int"), KindOverflow},
		{"NotFound", NotFound(PhaseLoad, "type", "X"), KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("empty message")
			}
		})
	}

	t.Run("ContextMismatch names both types", func(t *testing.T) {
		err := ContextMismatch(PhaseResolve, "Demo.Supplied", "Demo.Actual")
		msg := err.Error()
		if !strings.Contains(msg, "Demo.Supplied") || !strings.Contains(msg, "Demo.Actual") {
			t.Errorf("message %q should name both types", msg)
		}
	})
}

func TestSentinels(t *testing.T) {
	tests := []struct {
		err      error
		sentinel *Error
		name     string
	}{
		{InvalidHandle(PhaseResolve, 1), ErrInvalidHandle, "invalid_handle"},
		{AmbiguousGeneric(PhaseResolve, "m", "T"), ErrAmbiguousGeneric, "ambiguous_generic"},
		{ContextMismatch(PhaseResolve, "A", "B"), ErrContextMismatch, "context_mismatch"},
		{InvalidArgument(PhaseDelegate, "x", "bad"), ErrInvalidArgument, "invalid_argument"},
		{TypeMismatch(PhaseTypedRef, nil, "A", "B"), ErrTypeMismatch, "type_mismatch"},
		{InvalidField(PhaseTypedRef, nil, "static"), ErrInvalidField, "invalid_field"},
		{NestedReference(PhaseTypedRef, nil, "R"), ErrNestedReference, "nested_reference"},
		{BindingFailure(PhaseDelegate, "D", "no match"), ErrBindingFailure, "binding_failure"},
		{NotRuntimeBacked(PhaseDelegate, "m", "method"), ErrNotRuntimeBacked, "not_runtime_backed"},
		{Overflow(PhaseTypedRef, nil, 1, "int32"), ErrOverflow, "overflow"},
		{InvalidData(PhaseLoad, nil, "bad"), ErrInvalidData, "invalid_data"},
		{Load("decode", errors.New("eof")), ErrInvalidData, "load"},
		{NotFound(PhaseLoad, "type", "X"), ErrNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %s) = false", tt.err, tt.sentinel.Kind)
			}
		})
	}

	if errors.Is(NotFound(PhaseLoad, "type", "X"), ErrInvalidData) {
		t.Error("not_found should not match invalid_data")
	}
}

package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which component raised the error
type Phase string

const (
	PhaseResolve  Phase = "resolve"  // handle resolution
	PhaseBind     Phase = "bind"     // member binding
	PhaseDelegate Phase = "delegate" // delegate creation
	PhaseTypedRef Phase = "typedref" // typed reference construction
	PhaseEnum     Phase = "enum"     // enum metadata
	PhaseRuntime  Phase = "runtime"  // facade operations
	PhaseLoad     Phase = "load"     // metadata image loading
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidHandle    Kind = "invalid_handle"
	KindAmbiguousGeneric Kind = "ambiguous_generic"
	KindContextMismatch  Kind = "context_mismatch"
	KindInvalidArgument  Kind = "invalid_argument"
	KindTypeMismatch     Kind = "type_mismatch"
	KindInvalidField     Kind = "invalid_field"
	KindNestedReference  Kind = "nested_reference"
	KindBindingFailure   Kind = "binding_failure"
	KindNotRuntimeBacked Kind = "not_runtime_backed"
	KindOverflow         Kind = "overflow"
	KindInvalidData      Kind = "invalid_data"
	KindNotFound         Kind = "not_found"
)

// Sentinels for errors.Is matching by kind regardless of phase.
var (
	ErrInvalidHandle    = &Error{Kind: KindInvalidHandle}
	ErrAmbiguousGeneric = &Error{Kind: KindAmbiguousGeneric}
	ErrContextMismatch  = &Error{Kind: KindContextMismatch}
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument}
	ErrTypeMismatch     = &Error{Kind: KindTypeMismatch}
	ErrInvalidField     = &Error{Kind: KindInvalidField}
	ErrNestedReference  = &Error{Kind: KindNestedReference}
	ErrBindingFailure   = &Error{Kind: KindBindingFailure}
	ErrNotRuntimeBacked = &Error{Kind: KindNotRuntimeBacked}
	ErrOverflow         = &Error{Kind: KindOverflow}
	ErrInvalidData      = &Error{Kind: KindInvalidData}
	ErrNotFound         = &Error{Kind: KindNotFound}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Type     string // primary type identity
	Other    string // secondary type identity (expected, actual declaring type, ...)
	Argument string // offending argument name
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Argument != "" {
		b.WriteString(" (argument ")
		b.WriteString(e.Argument)
		b.WriteByte(')')
	}

	hasTypes := e.Type != "" || e.Other != ""
	if hasTypes {
		b.WriteString(": ")
		switch {
		case e.Type != "" && e.Other != "":
			b.WriteString("type ")
			b.WriteString(e.Type)
			b.WriteString(", other ")
			b.WriteString(e.Other)
		case e.Type != "":
			b.WriteString("type ")
			b.WriteString(e.Type)
		default:
			b.WriteString("other ")
			b.WriteString(e.Other)
		}
	}

	if e.Detail != "" {
		if hasTypes {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the member path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the primary type identity
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Other sets the secondary type identity
func (b *Builder) Other(t string) *Builder {
	b.err.Other = t
	return b
}

// Argument sets the offending argument name
func (b *Builder) Argument(name string) *Builder {
	b.err.Argument = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidHandle creates an error for a handle no table knows about
func InvalidHandle(phase Phase, handle any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Value:  handle,
		Detail: fmt.Sprintf("invalid handle %v", handle),
	}
}

// AmbiguousGeneric creates an error for a member resolved without the declaring
// type it needs
func AmbiguousGeneric(phase Phase, member, declaringType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAmbiguousGeneric,
		Type:   declaringType,
		Detail: fmt.Sprintf("%s is declared on a constructed generic type; pass the declaring type explicitly", member),
	}
}

// ContextMismatch creates an error naming the supplied and the actual declaring type
func ContextMismatch(phase Phase, supplied, actual string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindContextMismatch,
		Type:   supplied,
		Other:  actual,
		Detail: fmt.Sprintf("handle does not belong to %s, it is declared on %s", supplied, actual),
	}
}

// InvalidArgument creates an argument shape error
func InvalidArgument(phase Phase, argument, detail string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindInvalidArgument,
		Argument: argument,
		Detail:   detail,
	}
}

// NilArgument creates an error for a missing required argument
func NilArgument(phase Phase, argument string) *Error {
	return InvalidArgument(phase, argument, "value cannot be nil")
}

// TypeMismatch creates a type mismatch error naming both types
func TypeMismatch(phase Phase, path []string, have, want string) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindTypeMismatch,
		Path:  path,
		Type:  have,
		Other: want,
	}
}

// InvalidField creates an error for a field that cannot take part in the operation
func InvalidField(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidField,
		Path:   path,
		Detail: detail,
	}
}

// NestedReference creates an error for a reference-typed field in the middle of a chain
func NestedReference(phase Phase, path []string, fieldType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNestedReference,
		Path:   path,
		Type:   fieldType,
		Detail: "only the last field of a chain may have a non-embeddable type",
	}
}

// BindingFailure creates a delegate binding failure
func BindingFailure(phase Phase, delegateType, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBindingFailure,
		Type:   delegateType,
		Detail: detail,
	}
}

// NotRuntimeBacked creates an error for an operand the runtime object model does not implement
func NotRuntimeBacked(phase Phase, argument, what string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindNotRuntimeBacked,
		Argument: argument,
		Detail:   fmt.Sprintf("%s is not implemented by the runtime", what),
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, target string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v overflows %s", value, target),
		Value:  value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Load creates a metadata image loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Package errors provides structured error types for the reflect-runtime library.
//
// Errors are categorized by Phase (which component raised them) and Kind (error category).
// The Error type carries the member path, the type identities involved, the offending
// argument and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTypedRef, errors.KindTypeMismatch).
//		Path("Outer", "inner").
//		Type("Demo.Outer").
//		Other("Demo.Inner").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ContextMismatch(errors.PhaseResolve, supplied, actual)
//	err := errors.NilArgument(errors.PhaseDelegate, "method")
//
// Kind sentinels (ErrInvalidHandle, ErrBindingFailure, ...) match any phase:
//
//	if errors.Is(err, rerrors.ErrBindingFailure) { ... }
package errors

// Package errors provides structured error types for the cwrap module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: member path, host/memory type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseWrite, errors.KindInvalidInput).
//		Path("point", "x").
//		HostType("string").
//		TypeName("$i32").
//		Detail("cannot convert string to integer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownMember(errors.PhaseWrite, path, "POINT", "z")
//	err := errors.OutOfBounds(errors.PhaseWrite, path, 5, 4)
//
// All errors implement the standard error interface and support errors.Is/As.
// A target error with an empty Phase matches every error of the same Kind,
// which is how the cwrap package's Err* sentinels are compared.
package errors

package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister Phase = "register" // type registration
	PhaseResolve  Phase = "resolve"  // type name lookup
	PhaseRead     Phase = "read"     // memory to host value
	PhaseWrite    Phase = "write"    // host value to memory
	PhaseAssign   Phase = "assign"   // whole-object set/new/dup
	PhaseAttach   Phase = "attach"   // views over foreign memory
	PhaseAlloc    Phase = "alloc"    // instance and descriptor allocation
	PhaseRuntime  Phase = "runtime"  // lifetime and extension operations
)

// Kind categorizes the error
type Kind string

const (
	KindDuplicateType   Kind = "duplicate_type"
	KindUnknownType     Kind = "unknown_type"
	KindUnknownMember   Kind = "unknown_member"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindIncompatible    Kind = "incompatible_assignment"
	KindInvalidAttach   Kind = "invalid_attach_source"
	KindInvalidInput    Kind = "invalid_input"
	KindAllocation      Kind = "allocation"
	KindUnsupported     Kind = "unsupported"
	KindOverflow        Kind = "overflow"
	KindReleased        Kind = "released"
	KindVersionMismatch Kind = "version_mismatch"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	HostType string
	TypeName string
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

	if e.HostType != "" || e.TypeName != "" {
		b.WriteString(": ")
		if e.HostType != "" && e.TypeName != "" {
			b.WriteString("host type ")
			b.WriteString(e.HostType)
			b.WriteString(", memory type ")
			b.WriteString(e.TypeName)
		} else if e.HostType != "" {
			b.WriteString("host type ")
			b.WriteString(e.HostType)
		} else {
			b.WriteString("memory type ")
			b.WriteString(e.TypeName)
		}
	}

	if e.Detail != "" {
		if e.HostType != "" || e.TypeName != "" {
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

// Is reports whether target matches this error. A target without a Phase
// matches any error of the same Kind.
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

// HostType sets the Go type name of the offending host value
func (b *Builder) HostType(t string) *Builder {
	b.err.HostType = t
	return b
}

// TypeName sets the registered memory type name
func (b *Builder) TypeName(t string) *Builder {
	b.err.TypeName = t
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

// DuplicateType creates an error for re-registration of an existing name
func DuplicateType(name string) *Error {
	return &Error{
		Phase:    PhaseRegister,
		Kind:     KindDuplicateType,
		TypeName: name,
		Detail:   fmt.Sprintf("type already registered <%s>", name),
	}
}

// UnknownType creates a type name resolution error
func UnknownType(phase Phase, name string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindUnknownType,
		TypeName: name,
		Detail:   fmt.Sprintf("unknown type <%s>", name),
	}
}

// UnknownMember creates a member name resolution error
func UnknownMember(phase Phase, path []string, typeName, member string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindUnknownMember,
		Path:     path,
		TypeName: typeName,
		Detail:   fmt.Sprintf("unknown member <%s>", member),
		Value:    member,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (valid 1..%d)", index, length),
		Value:  index,
	}
}

// Incompatible creates a whole-object assignment error between different types
func Incompatible(dst, src string) *Error {
	return &Error{
		Phase:    PhaseAssign,
		Kind:     KindIncompatible,
		TypeName: dst,
		Detail:   fmt.Sprintf("assignment of incompatible types: expected <%s>, got <%s>", dst, src),
	}
}

// InvalidAttach creates an error for an unusable attach source
func InvalidAttach(hostType string) *Error {
	return &Error{
		Phase:    PhaseAttach,
		Kind:     KindInvalidAttach,
		HostType: hostType,
		Detail:   "object, address or number expected",
	}
}

// InvalidInput creates an invalid argument shape error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// TypeMismatch creates an invalid argument shape error naming both sides
func TypeMismatch(phase Phase, path []string, hostType, typeName string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindInvalidInput,
		Path:     path,
		HostType: hostType,
		TypeName: typeName,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(typeName string, size uint64, limit uint32) *Error {
	return &Error{
		Phase:    PhaseAlloc,
		Kind:     KindAllocation,
		TypeName: typeName,
		Detail:   fmt.Sprintf("failed to allocate %d bytes (limit %d)", size, limit),
		Value:    size,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, typeName, what string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindUnsupported,
		TypeName: typeName,
		Detail:   what,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, typeName string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindOverflow,
		Path:     path,
		TypeName: typeName,
		Detail:   fmt.Sprintf("value %v overflows %s", value, typeName),
		Value:    value,
	}
}

// Released creates a use-after-release error
func Released(phase Phase, typeName string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindReleased,
		TypeName: typeName,
		Detail:   "object memory already released",
	}
}

// VersionMismatch creates an extension interface version error
func VersionMismatch(want, got int) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindVersionMismatch,
		Detail: fmt.Sprintf("incompatible extension interface version: expected %d got %d", want, got),
		Value:  got,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// WithPath returns a copy of err with path prepended, leaving non-structured
// errors untouched.
func WithPath(err error, path ...string) error {
	e, ok := err.(*Error)
	if !ok || len(path) == 0 {
		return err
	}
	cp := *e
	cp.Path = append(append([]string{}, path...), e.Path...)
	return &cp
}

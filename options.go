package cwrap

import (
	"go.uber.org/zap"

	"github.com/wippyai/cwrap/internal/abi"
	"github.com/wippyai/cwrap/resource"
)

// Options configures a Runtime.
type Options struct {
	// Logger overrides the package logger for this runtime.
	Logger *zap.Logger
	// References is the capture table backing the $ref type. Runtimes
	// sharing a table can pass captured handles between each other.
	References *resource.Table
	// MaxObjectSize bounds the size of one descriptor or instance.
	MaxObjectSize uint32
	// StrictBalance panics when an operation leaves the call depth
	// unbalanced instead of logging it.
	StrictBalance bool
	// NoBuiltins skips registration of the builtin scalar types.
	NoBuiltins bool
}

// DefaultOptions returns default runtime configuration.
func DefaultOptions() Options {
	return Options{
		MaxObjectSize: abi.MaxAlloc,
	}
}

package cwrap

import (
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/cwrap/errors"
	"github.com/wippyai/cwrap/internal/abi"
	"github.com/wippyai/cwrap/resource"
)

// Runtime owns a type registry and a capture table. Independent runtimes
// never share state unless they are given the same Options.References.
//
// A Runtime and the objects it creates assume a single logical thread of
// control; callers running on several goroutines must serialize access.
type Runtime struct {
	log       *zap.Logger
	refs      *resource.Table
	types     map[string]*Type
	buffers   map[uint32]*Type
	constants map[string]uint32
	ext       *Extension
	observer  *captureLog
	stats     stats
	mu        sync.RWMutex
	depth     int
	maxSize   uint32
	strict    bool
	ownRefs   bool
	closed    bool
}

type stats struct {
	descriptors      atomic.Int64
	descriptorsFreed atomic.Int64
	blocks           atomic.Int64
	blocksFreed      atomic.Int64
}

// Stats is a snapshot of runtime allocation counters.
type Stats struct {
	Descriptors      int64
	DescriptorsFreed int64
	Blocks           int64
	BlocksFreed      int64
	References       int
}

// New creates a runtime with the builtin scalar types registered.
func New(opts Options) *Runtime {
	log := opts.Logger
	if log == nil {
		log = Logger()
	}
	if opts.MaxObjectSize == 0 {
		opts.MaxObjectSize = abi.MaxAlloc
	}

	r := &Runtime{
		log:       log,
		refs:      opts.References,
		types:     make(map[string]*Type),
		buffers:   make(map[uint32]*Type),
		constants: make(map[string]uint32),
		maxSize:   opts.MaxObjectSize,
		strict:    opts.StrictBalance,
	}
	if r.refs == nil {
		r.refs = resource.NewTable()
		r.ownRefs = true
	}
	r.observer = &captureLog{log: log}
	r.refs.Subscribe(r.observer)

	if !opts.NoBuiltins {
		registerBuiltins(r)
	}
	return r
}

// NewWithDefaults creates a runtime with default options.
func NewWithDefaults() *Runtime {
	return New(DefaultOptions())
}

// Close drops the registry's hold on every dynamic descriptor and, when the
// runtime created its own capture table, releases all captured values.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	types := make([]*Type, 0, len(r.types))
	for _, t := range r.types {
		types = append(types, t)
	}
	r.types = make(map[string]*Type)
	r.buffers = make(map[uint32]*Type)
	r.mu.Unlock()

	sort.Slice(types, func(i, j int) bool { return types[i].desc.name < types[j].desc.name })
	for _, t := range types {
		t.desc.release()
	}
	if r.ownRefs {
		return r.refs.Close()
	}
	r.refs.Unsubscribe(r.observer)
	return nil
}

type captureLog struct {
	log *zap.Logger
}

func (c *captureLog) OnResourceEvent(e resource.Event) {
	c.log.Debug("capture table", zap.Stringer("event", e.Type), zap.Int32("ref", int32(e.Handle)))
}

// References returns the capture table backing the $ref type.
func (r *Runtime) References() *resource.Table {
	return r.refs
}

// Stats returns a snapshot of allocation counters.
func (r *Runtime) Stats() Stats {
	return Stats{
		Descriptors:      r.stats.descriptors.Load(),
		DescriptorsFreed: r.stats.descriptorsFreed.Load(),
		Blocks:           r.stats.blocks.Load(),
		BlocksFreed:      r.stats.blocksFreed.Load(),
		References:       r.refs.Len(),
	}
}

// Depth returns the current operation nesting depth. It is zero whenever no
// runtime operation is in progress.
func (r *Runtime) Depth() int {
	return r.depth
}

type frame struct {
	op    string
	depth int
}

// enter records the start of an operation. Every enter is paired with a
// deferred leave.
func (r *Runtime) enter(op string) frame {
	f := frame{op: op, depth: r.depth}
	r.depth++
	return f
}

func (r *Runtime) leave(f frame) {
	r.depth--
	if r.depth == f.depth {
		return
	}
	if r.strict {
		panic(errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Detail("unbalanced %s: depth %d on exit, want %d", f.op, r.depth, f.depth).
			Build())
	}
	r.log.Warn("unbalanced operation", zap.String("op", f.op), zap.Int("depth", r.depth), zap.Int("want", f.depth))
	r.depth = f.depth
}

func zapType(d *Descriptor) zap.Field {
	return zap.String("type", d.name)
}

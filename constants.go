package cwrap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/cwrap/errors"
)

// DefineConstants adds named unsigned constants, such as C enum values or
// flag masks, to the runtime. Existing names are overwritten.
func (r *Runtime) DefineConstants(constants map[string]uint32) error {
	names := make([]string, 0, len(constants))
	for name := range constants {
		if name == "" {
			return errors.InvalidInput(errors.PhaseRegister, "empty constant name")
		}
		names = append(names, name)
	}
	sort.Strings(names)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		r.constants[name] = constants[name]
	}
	r.log.Debug("constants defined", zap.Strings("names", names))
	return nil
}

// Constant returns a constant added with DefineConstants.
func (r *Runtime) Constant(name string) (uint32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.constants[name]
	return v, ok
}

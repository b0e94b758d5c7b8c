package cwrap

import "github.com/wippyai/cwrap/errors"

// Sentinels for errors.Is. They match any phase.
var (
	ErrDuplicateType   = &errors.Error{Kind: errors.KindDuplicateType}
	ErrUnknownType     = &errors.Error{Kind: errors.KindUnknownType}
	ErrUnknownMember   = &errors.Error{Kind: errors.KindUnknownMember}
	ErrOutOfBounds     = &errors.Error{Kind: errors.KindOutOfBounds}
	ErrIncompatible    = &errors.Error{Kind: errors.KindIncompatible}
	ErrInvalidAttach   = &errors.Error{Kind: errors.KindInvalidAttach}
	ErrInvalidArgument = &errors.Error{Kind: errors.KindInvalidInput}
	ErrAllocation      = &errors.Error{Kind: errors.KindAllocation}
	ErrUnsupported     = &errors.Error{Kind: errors.KindUnsupported}
	ErrReleased        = &errors.Error{Kind: errors.KindReleased}
	ErrOverflow        = &errors.Error{Kind: errors.KindOverflow}
	ErrVersion         = &errors.Error{Kind: errors.KindVersionMismatch}
)

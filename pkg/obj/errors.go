package obj

import "errors"

// Format and codec errors. Any error aborts the whole load or save; partial
// scenes are never returned.
var (
	ErrTooManyTokens = errors.New("record exceeds token limit")
	ErrMissingTokens = errors.New("record has too few tokens")
	ErrIndexRange    = errors.New("vertex index out of range")
	ErrEmptyElem     = errors.New("zero-length element run")
	ErrInvalidMagic  = errors.New("invalid scene dump magic")
	ErrTruncatedData = errors.New("truncated scene dump")
)

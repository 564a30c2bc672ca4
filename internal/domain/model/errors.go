package model

import "errors"

// Sentinel error kinds shared by the rating pipeline. None of them are
// retryable: the computation is deterministic, so the input must be fixed.
var (
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrEmptyInput        = errors.New("empty input")
	ErrDataInconsistency = errors.New("data inconsistency")
	ErrMissingConfig     = errors.New("missing config")
	ErrUnknownMode       = errors.New("unknown team mode")
)

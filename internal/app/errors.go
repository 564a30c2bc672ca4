package service

import (
	"errors"

	"github.com/okian/ltrc/internal/domain/model"
)

// Sentinel service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrQueueFull    = errors.New("event queue full")
	ErrUnknownEvent = errors.New("unknown event")
)

// reason names the kind of a rating failure for metrics and logs.
func reason(err error) string {
	switch {
	case errors.Is(err, model.ErrShapeMismatch):
		return "shape_mismatch"
	case errors.Is(err, model.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, model.ErrDataInconsistency):
		return "data_inconsistency"
	case errors.Is(err, model.ErrMissingConfig):
		return "missing_config"
	case errors.Is(err, model.ErrUnknownMode):
		return "unknown_mode"
	default:
		return "internal"
	}
}

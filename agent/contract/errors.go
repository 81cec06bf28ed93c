package contract

import "errors"

var (
	ErrModelInvoke      = errors.New("model invoke failed")
	ErrModelUnavailable = errors.New("model is not configured")
	ErrSchemaViolation  = errors.New("model response violates schema")
	ErrPromptMissing    = errors.New("required prompt is missing")
	ErrValidation       = errors.New("validation failed")
	ErrUnknownAgent     = errors.New("unknown agent")
	ErrNotFound         = errors.New("not found")
	ErrSlotTaken        = errors.New("time slot is not available")
)

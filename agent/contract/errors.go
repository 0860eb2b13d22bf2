package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrIterationLimit  = errors.New("iteration limit exceeded")
	ErrValidation      = errors.New("validation failed")
)

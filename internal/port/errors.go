package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadySubmitted = errors.New("audit already submitted")
	ErrNothingAnswered  = errors.New("audit has no answered questions")
	ErrDuplicate        = errors.New("record already exists")
)

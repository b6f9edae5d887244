package domain

import "errors"

// ErrNotFound marks lookups for requests or zones that do not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalid marks input that fails validation.
var ErrInvalid = errors.New("invalid input")

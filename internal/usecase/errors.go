package usecase

import "errors"

// ErrInvalidInput is the only failure a caller is expected to handle: the
// request itself is wrong and no amount of degrading helps.
var ErrInvalidInput = errors.New("invalid input")

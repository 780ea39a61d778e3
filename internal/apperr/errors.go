package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrNotBuilt    = errors.New("module not built")
	ErrDuplicateID = errors.New("duplicate document id")
)

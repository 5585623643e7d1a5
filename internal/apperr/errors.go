package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNoDate          = errors.New("no YYYY-MM-DD date in file name")
	ErrNotRegularFile  = errors.New("not a regular file")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoCatalog       = errors.New("catalog not configured")
)

package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidPair  = errors.New("invalid pair")
	ErrNoQuotes     = errors.New("no quotes")
	ErrCacheMiss    = errors.New("cache miss")
	ErrMissingToken = errors.New("telegram token not set")
	ErrUnavailable  = errors.New("upstream unavailable")
	ErrLockHeld     = errors.New("lock already held")
)

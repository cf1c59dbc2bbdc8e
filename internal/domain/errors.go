package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrRateLimited     = errors.New("rate limited")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrFetchFailed     = errors.New("market fetch failed")
	ErrCacheMiss       = errors.New("browse cache miss")
	ErrNoMarkets       = errors.New("no qualifying markets")
	ErrUnknownCategory = errors.New("unknown category")
)

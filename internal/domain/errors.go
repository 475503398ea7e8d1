package domain

import "errors"

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrStateNotFound   = errors.New("state key not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrCacheMiss       = errors.New("cache miss")
	ErrGameDisabled    = errors.New("counting game is disabled")
)

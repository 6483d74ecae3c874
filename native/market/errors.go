package market

import "errors"

var (
	ErrInvalidArgument  = errors.New("market: invalid argument")
	ErrUnauthorized     = errors.New("market: unauthorized")
	ErrNotFound         = errors.New("market: record not found")
	ErrInactive         = errors.New("market: record inactive")
	ErrNotRegistered    = errors.New("market: collection not registered")
	ErrRemoteCallFailed = errors.New("market: remote call failed")
	ErrOverflow         = errors.New("market: accounting overflow")
)

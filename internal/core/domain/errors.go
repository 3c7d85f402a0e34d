package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrInvalidIdentity    = errors.New("invalid identity")
	ErrUnknownFamily      = errors.New("unknown role family")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrForbidden          = errors.New("access forbidden")
	ErrUpstream           = errors.New("upstream request failed")
)

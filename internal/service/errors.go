package service

import "errors"

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired reset token")
	ErrSelfDemotion       = errors.New("cannot remove your own admin role")
)

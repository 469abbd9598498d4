package auth

import "errors"

var (
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrCompanyIDRequired     = errors.New("token is not scoped to a company")
	ErrManagerAccessRequired = errors.New("manager or owner access required")
	ErrRateLimited           = errors.New("too many requests, try again later")
)

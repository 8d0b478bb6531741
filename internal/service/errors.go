package service

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrCapsuleNotFound      = errors.New("capsule not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")
	ErrNotOwner             = errors.New("capsule does not belong to this user")
	ErrCapsuleLocked        = errors.New("capsule is still locked")
	ErrCapsuleImmutable     = errors.New("capsule is already unlocked and can no longer be modified")
	ErrCapsuleExpired       = errors.New("capsule has expired and is no longer accessible")
	ErrUnlockTimeInPast     = errors.New("unlock time must be in the future")
	ErrInternalServer       = errors.New("internal server error")
)

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import "errors"

var (
	// ErrInvalidCredential is returned on a password mismatch. It never
	// reveals whether the identifier exists.
	ErrInvalidCredential = errors.New("invalid password")

	// ErrInvalidCode is returned when a submitted TOTP code does not match
	// any code inside the drift tolerance window.
	ErrInvalidCode = errors.New("invalid or expired code")

	// ErrAccountDeactivated is returned for soft-deleted records, which
	// reject every transition regardless of credential correctness.
	ErrAccountDeactivated = errors.New("account deactivated")

	// ErrUserExists is returned by explicit admin creation for a duplicate
	// identifier.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound is returned by operations that require an existing
	// record.
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError reports a client-correctable input problem. It is
// raised before any storage or crypto work.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// validation builds a ValidationError with a fixed message.
func validation(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

package auth

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("auth: not found")
	ErrConflict           = errors.New("auth: resource conflict")
	ErrDuplicateIdentity  = errors.New("auth: identity already exists")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrInvalidInput       = errors.New("auth: invalid input")
)

// NotFoundError reports which entity kind and key failed to resolve.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("auth: %s %q not found", e.Entity, e.Key)
}

// Unwrap lets errors.Is(err, ErrNotFound) match typed lookup failures.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError reports a request field that violated a named rule.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("auth: field %s violates rule %s", e.Field, e.Rule)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

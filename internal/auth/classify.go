// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"net"
	"strings"
)

// Operation identifies which user-facing action produced a failure.
// Classification mappings differ per operation.
type Operation string

// User-facing operations.
const (
	OpSignUp  Operation = "sign_up"
	OpSignIn  Operation = "sign_in"
	OpOAuth   Operation = "oauth_sign_in"
	OpSignOut Operation = "sign_out"
	OpSession Operation = "session"
)

// Category is the canonical failure category derived from a raw
// provider error.
type Category string

// Failure categories. Only CategoryTransientNetwork is retryable; all
// others are terminal on first occurrence.
const (
	CategoryTransientNetwork   Category = "transient_network"
	CategoryInvalidCredentials Category = "invalid_credentials"
	CategoryAlreadyExists      Category = "already_exists"
	CategoryValidation         Category = "validation"
	CategoryUnconfirmed        Category = "unconfirmed"
	CategoryUnknown            Category = "unknown"
)

// ClassifiedError pairs a failure category with a message that is safe
// to display to a user. It wraps the raw provider error.
type ClassifiedError struct {
	Category Category
	Message  string
	cause    error
}

// Error returns the display-safe message.
func (e *ClassifiedError) Error() string { return e.Message }

// Unwrap returns the raw provider error.
func (e *ClassifiedError) Unwrap() error { return e.cause }

// Display messages for mapped failure categories.
const (
	msgAlreadyRegistered  = "This email is already registered. Please sign in instead."
	msgPasswordTooShort   = "Password must be at least 6 characters long."
	msgInvalidEmail       = "Please provide a valid email address."
	msgInvalidCredentials = "Invalid email or password. Please try again."
	msgEmailUnconfirmed   = "Please verify your email address before signing in."
	msgNetworkError       = "Network error. Please check your connection and try again."
	msgSignOutFailed      = "Sign out failed"
	msgOAuthFailed        = "Google sign in failed"
)

// IsTransient reports whether err looks like a transient network
// failure and is therefore eligible for retry. This is the
// operation-free pass used by the retry executor: it inspects only the
// message content ("network"/"fetch" substrings, matching the provider's
// failure text) plus the unwrapped error chain, since Go transport
// failures surface as net.Error without either substring.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "network") || strings.Contains(msg, "fetch")
}

// Classify maps a raw provider error to a ClassifiedError for the given
// operation. It is a pure function of the error's message content and
// the operation; it is applied exactly once, after the retry executor
// settles. Unmapped failures pass the raw message through under
// CategoryUnknown.
func Classify(err error, op Operation) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch op {
	case OpSignUp:
		switch {
		case strings.Contains(lower, "already registered"):
			return &ClassifiedError{Category: CategoryAlreadyExists, Message: msgAlreadyRegistered, cause: err}
		case strings.Contains(lower, "password"):
			return &ClassifiedError{Category: CategoryValidation, Message: msgPasswordTooShort, cause: err}
		case strings.Contains(lower, "email"):
			return &ClassifiedError{Category: CategoryValidation, Message: msgInvalidEmail, cause: err}
		}

	case OpSignIn:
		switch {
		case strings.Contains(msg, "Invalid login credentials"):
			return &ClassifiedError{Category: CategoryInvalidCredentials, Message: msgInvalidCredentials, cause: err}
		case strings.Contains(msg, "Email not confirmed"):
			return &ClassifiedError{Category: CategoryUnconfirmed, Message: msgEmailUnconfirmed, cause: err}
		case IsTransient(err):
			return &ClassifiedError{Category: CategoryTransientNetwork, Message: msgNetworkError, cause: err}
		}

	case OpSignOut:
		if msg == "" {
			return &ClassifiedError{Category: CategoryUnknown, Message: msgSignOutFailed, cause: err}
		}

	case OpOAuth:
		if msg == "" {
			return &ClassifiedError{Category: CategoryUnknown, Message: msgOAuthFailed, cause: err}
		}
	}

	return &ClassifiedError{Category: CategoryUnknown, Message: msg, cause: err}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "time"

// User is the provider-issued identity. The ID is whatever the provider
// assigns (GoTrue issues UUIDs); it is opaque to this package.
type User struct {
	ID               string
	Email            string
	EmailConfirmedAt *time.Time
	CreatedAt        time.Time
}

// Confirmed returns true if the user's email address has been verified.
func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt != nil && !u.EmailConfirmedAt.IsZero()
}

// Session is the provider-issued session. Tokens are held in memory
// only; persistence is the provider client's concern, not ours.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	User         User
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the session would be expired at the given
// time. Useful for testing with deterministic time values.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && t.After(s.ExpiresAt)
}

// ChangeType identifies a session state transition.
type ChangeType string

// Session change types.
const (
	ChangeSignedIn  ChangeType = "signed_in"
	ChangeSignedOut ChangeType = "signed_out"
)

// Change is delivered to session-change subscribers. Session is nil for
// ChangeSignedOut.
type Change struct {
	Type    ChangeType
	Session *Session
}

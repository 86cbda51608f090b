// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "context"

// IdentityProvider is the stateless contract with the hosted identity
// provider's REST surface. Implementations return the provider's failure
// text verbatim in their errors so the classifier can match on it.
type IdentityProvider interface {
	// SignUp registers a new email/password identity. Depending on
	// provider settings the returned session may be nil (email
	// confirmation required before sign-in).
	SignUp(ctx context.Context, email, password string) (*Session, error)

	// SignInWithPassword exchanges credentials for a session.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignInWithOAuth constructs the provider's authorization redirect
	// URL for the named OAuth provider (e.g. "google"). The OAuth flow
	// itself (code exchange, PKCE) is handled entirely by the hosted
	// provider.
	SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error)

	// SignOut revokes the session behind the given access token.
	SignOut(ctx context.Context, accessToken string) error

	// GetUser fetches the identity behind an access token.
	GetUser(ctx context.Context, accessToken string) (*User, error)
}

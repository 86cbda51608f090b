// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth bridges a hosted identity provider to the application's
// UI-facing surface.
//
// # Domain Types
//
// Session and User mirror what the identity provider issues. They are
// plain values; the provider is the source of truth and this package
// never persists them.
//
// # Services
//
// Service exposes the four user-facing operations (sign-up, sign-in,
// OAuth sign-in, sign-out) plus current-session state and session-change
// subscriptions. Sign-up and password sign-in run under a bounded
// exponential-backoff retry policy that absorbs transient network
// failures; provider failures cross the Service boundary as
// *ClassifiedError values whose messages are safe to show to a user.
//
// The IdentityProvider interface is the stateless contract with the
// hosted provider's REST surface. See the gotrue subpackage for the
// GoTrue-compatible implementation.
package auth

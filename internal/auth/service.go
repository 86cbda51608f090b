// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/authgate/internal/observability"
)

// Service exposes the user-facing authentication operations backed by a
// hosted identity provider. It owns the in-memory session slot and the
// session-change fan-out; the provider itself stays stateless.
//
// Sign-up and password sign-in run under the retry policy. Provider
// failures surface as *ClassifiedError values whose messages are safe
// to display; ErrNotAuthenticated is the one sentinel exception.
type Service struct {
	provider IdentityProvider
	policy   Policy
	logger   *slog.Logger

	mu      sync.RWMutex
	session *Session

	changes *broadcaster
}

// NewService creates a Service with the default retry policy.
func NewService(provider IdentityProvider) (*Service, error) {
	return NewServiceWithLogger(provider, slog.Default())
}

// NewServiceWithLogger creates a Service with a custom logger.
func NewServiceWithLogger(provider IdentityProvider, logger *slog.Logger) (*Service, error) {
	if provider == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("identity provider is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger is required")
	}
	return &Service{
		provider: provider,
		policy:   DefaultPolicy(),
		logger:   logger,
		changes:  newBroadcaster(),
	}, nil
}

// SetRetryPolicy replaces the retry policy applied to network-sensitive
// identity calls. Invocations already in flight keep the policy they
// started with.
func (s *Service) SetRetryPolicy(p Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = p.normalized()
}

func (s *Service) retryPolicy() Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// SignUp registers a new email/password identity. If the provider
// issues a session immediately (no email confirmation required), the
// caller is signed in and subscribers are notified.
func (s *Service) SignUp(ctx context.Context, email, password string) error {
	session, err := executeWithRetry(ctx, s, OpSignUp, func(ctx context.Context) (*Session, error) {
		return s.provider.SignUp(ctx, email, password)
	})
	if err != nil {
		cerr := Classify(err, OpSignUp)
		s.logger.Warn("sign up failed",
			"email", email,
			"category", cerr.Category,
			"error", err,
		)
		return cerr
	}

	if session != nil {
		s.setSession(session)
	}
	return nil
}

// SignIn authenticates with email and password.
func (s *Service) SignIn(ctx context.Context, email, password string) error {
	session, err := executeWithRetry(ctx, s, OpSignIn, func(ctx context.Context) (*Session, error) {
		return s.provider.SignInWithPassword(ctx, email, password)
	})
	if err != nil {
		cerr := Classify(err, OpSignIn)
		s.logger.Warn("sign in failed",
			"email", email,
			"category", cerr.Category,
			"error", err,
		)
		return cerr
	}
	if session == nil {
		cerr := Classify(oops.Errorf("provider returned no session"), OpSignIn)
		return cerr
	}

	s.setSession(session)
	return nil
}

// SignInWithProvider starts an OAuth sign-in with the named provider
// and returns the authorization URL the UI should redirect to. The
// session materializes later, out of band, when the provider completes
// the flow; no retry applies here since the call only constructs a URL.
func (s *Service) SignInWithProvider(ctx context.Context, provider, redirectTo string) (string, error) {
	url, err := s.provider.SignInWithOAuth(ctx, provider, redirectTo)
	if err != nil {
		cerr := Classify(err, OpOAuth)
		s.logger.Warn("oauth sign in failed",
			"provider", provider,
			"category", cerr.Category,
			"error", err,
		)
		return "", cerr
	}
	return url, nil
}

// SignOut revokes the current session with the provider and clears the
// local session slot. The local slot is cleared even when revocation
// fails; the revocation error still propagates, classified.
func (s *Service) SignOut(ctx context.Context) error {
	current := s.CurrentSession()
	if current == nil {
		return nil
	}

	err := s.provider.SignOut(ctx, current.AccessToken)

	// Local sign-out always happens.
	s.clearSession()

	if err != nil {
		cerr := Classify(err, OpSignOut)
		s.logger.Warn("sign out failed",
			"category", cerr.Category,
			"error", err,
		)
		return cerr
	}
	return nil
}

// User fetches the identity behind the current session from the
// provider, retrying transient failures.
func (s *Service) User(ctx context.Context) (*User, error) {
	current := s.CurrentSession()
	if current == nil {
		return nil, ErrNotAuthenticated
	}

	user, err := executeWithRetry(ctx, s, OpSession, func(ctx context.Context) (*User, error) {
		return s.provider.GetUser(ctx, current.AccessToken)
	})
	if err != nil {
		return nil, Classify(err, OpSession)
	}
	return user, nil
}

// CurrentSession returns the current session, or nil when signed out.
func (s *Service) CurrentSession() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Subscribe registers a session-change subscriber. The returned cancel
// function must be called to release the subscription; it closes the
// channel.
func (s *Service) Subscribe() (<-chan Change, func()) {
	id, ch := s.changes.subscribe()
	return ch, func() { s.changes.unsubscribe(id) }
}

// executeWithRetry runs fn under the service retry policy, logging and
// counting retry attempts. Free function because methods cannot carry
// type parameters.
func executeWithRetry[T any](ctx context.Context, s *Service, op Operation, fn func(context.Context) (T, error)) (T, error) {
	attempt := 0
	return Execute(ctx, s.retryPolicy(), func(ctx context.Context) (T, error) {
		if attempt > 0 {
			s.logger.Debug("retrying identity call",
				"operation", op,
				"attempt", attempt+1,
			)
			observability.RecordAuthRetry(string(op))
		}
		attempt++
		return fn(ctx)
	})
}

func (s *Service) setSession(session *Session) {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	observability.RecordSessionChange(string(ChangeSignedIn))
	s.changes.broadcast(Change{Type: ChangeSignedIn, Session: session})
}

func (s *Service) clearSession() {
	s.mu.Lock()
	had := s.session != nil
	s.session = nil
	s.mu.Unlock()

	if had {
		observability.RecordSessionChange(string(ChangeSignedOut))
		s.changes.broadcast(Change{Type: ChangeSignedOut})
	}
}

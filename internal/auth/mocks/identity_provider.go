// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/holomush/authgate/internal/auth"
)

// MockIdentityProvider is a mock implementation of auth.IdentityProvider.
type MockIdentityProvider struct {
	mock.Mock
}

// NewMockIdentityProvider creates a new MockIdentityProvider with
// expectations asserted on test cleanup.
func NewMockIdentityProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockIdentityProvider {
	m := &MockIdentityProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// SignUp mocks auth.IdentityProvider.SignUp.
func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	args := m.Called(ctx, email, password)
	session, _ := args.Get(0).(*auth.Session)
	return session, args.Error(1)
}

// SignInWithPassword mocks auth.IdentityProvider.SignInWithPassword.
func (m *MockIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	args := m.Called(ctx, email, password)
	session, _ := args.Get(0).(*auth.Session)
	return session, args.Error(1)
}

// SignInWithOAuth mocks auth.IdentityProvider.SignInWithOAuth.
func (m *MockIdentityProvider) SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error) {
	args := m.Called(ctx, provider, redirectTo)
	return args.String(0), args.Error(1)
}

// SignOut mocks auth.IdentityProvider.SignOut.
func (m *MockIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

// GetUser mocks auth.IdentityProvider.GetUser.
func (m *MockIdentityProvider) GetUser(ctx context.Context, accessToken string) (*auth.User, error) {
	args := m.Called(ctx, accessToken)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

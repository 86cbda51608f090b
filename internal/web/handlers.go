// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/holomush/authgate/internal/auth"
)

// credentialsRequest is the body for sign-up and sign-in.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// errorResponse is the wire form of a classified failure.
type errorResponse struct {
	Category auth.Category `json:"category"`
	Message  string        `json:"message"`
}

// sessionResponse is the wire form of session state. Tokens stay
// server-side; the UI only needs auth state and identity.
type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"user_id,omitempty"`
	Email         string     `json:"email,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		s.recordAttempt(auth.OpSignUp, "invalid")
		return
	}

	if err := s.service.SignUp(r.Context(), req.Email, req.Password); err != nil {
		s.recordAttempt(auth.OpSignUp, "error")
		s.writeError(w, err)
		return
	}

	s.recordAttempt(auth.OpSignUp, "ok")
	s.writeSession(w, http.StatusCreated)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		s.recordAttempt(auth.OpSignIn, "invalid")
		return
	}

	if err := s.service.SignIn(r.Context(), req.Email, req.Password); err != nil {
		s.recordAttempt(auth.OpSignIn, "error")
		s.writeError(w, err)
		return
	}

	s.recordAttempt(auth.OpSignIn, "ok")
	s.writeSession(w, http.StatusOK)
}

func (s *Server) handleSignInWithProvider(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	redirectTo := r.URL.Query().Get("redirect_to")

	url, err := s.service.SignInWithProvider(r.Context(), provider, redirectTo)
	if err != nil {
		s.recordAttempt(auth.OpOAuth, "error")
		s.writeError(w, err)
		return
	}

	s.recordAttempt(auth.OpOAuth, "ok")
	http.Redirect(w, r, url, http.StatusFound)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.service.SignOut(r.Context()); err != nil {
		s.recordAttempt(auth.OpSignOut, "error")
		s.writeError(w, err)
		return
	}

	s.recordAttempt(auth.OpSignOut, "ok")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	s.writeSession(w, http.StatusOK)
}

// handleSessionWatch streams session changes as server-sent events. The
// current state is sent first so a reconnecting client never misses the
// latest transition.
func (s *Server) handleSessionWatch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	changes, cancel := s.service.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	// Initial state event.
	current := s.service.CurrentSession()
	initial := auth.Change{Type: auth.ChangeSignedOut}
	if current != nil {
		initial = auth.Change{Type: auth.ChangeSignedIn, Session: current}
	}
	if err := writeEvent(w, initial); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case change, open := <-changes:
			if !open {
				return
			}
			if err := writeEvent(w, change); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent writes one SSE frame for a session change.
func writeEvent(w http.ResponseWriter, change auth.Change) error {
	payload := sessionResponse{Authenticated: change.Session != nil}
	if change.Session != nil {
		payload.UserID = change.Session.User.ID
		payload.Email = change.Session.User.Email
		payload.ExpiresAt = &change.Session.ExpiresAt
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", change.Type, data)
	return err
}

// decodeCredentials parses and validates a credentials body, writing
// the error response itself on failure.
func (s *Server) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Category: auth.CategoryValidation,
			Message:  "Request body must be JSON with email and password.",
		})
		return req, false
	}
	if req.Email == "" || req.Password == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Category: auth.CategoryValidation,
			Message:  "Email and password are required.",
		})
		return req, false
	}
	return req, true
}

// writeError renders a failure from the auth service. Everything the
// service returns is already display-safe.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var classified *auth.ClassifiedError
	if !errors.As(err, &classified) {
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Category: auth.CategoryUnknown,
			Message:  err.Error(),
		})
		return
	}

	s.writeJSON(w, statusForCategory(classified.Category), errorResponse{
		Category: classified.Category,
		Message:  classified.Message,
	})
}

// statusForCategory maps failure categories to HTTP status codes.
func statusForCategory(c auth.Category) int {
	switch c {
	case auth.CategoryTransientNetwork:
		return http.StatusServiceUnavailable
	case auth.CategoryInvalidCredentials:
		return http.StatusUnauthorized
	case auth.CategoryAlreadyExists:
		return http.StatusConflict
	case auth.CategoryValidation:
		return http.StatusBadRequest
	case auth.CategoryUnconfirmed:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeSession(w http.ResponseWriter, status int) {
	resp := sessionResponse{}
	if session := s.service.CurrentSession(); session != nil {
		resp.Authenticated = true
		resp.UserID = session.User.ID
		resp.Email = session.User.Email
		resp.ExpiresAt = &session.ExpiresAt
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Debug("response write failed", "error", err)
	}
}

// recordAttempt counts an auth operation outcome when metrics are
// enabled.
func (s *Server) recordAttempt(op auth.Operation, status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.AuthAttemptsTotal.WithLabelValues(string(op), status).Inc()
}

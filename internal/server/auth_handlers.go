package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"ruralhealth/internal/auth"
	"ruralhealth/internal/domain"
	"ruralhealth/internal/kv"
)

const minPasswordLength = 6

var errEmailTaken = errors.New("email already registered")

func profileKey(id string) string    { return "user_profile:" + id }
func credentialKey(id string) string { return "user_credential:" + id }
func emailKey(email string) string   { return "user_email:" + normalizeEmail(email) }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateSignup(req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	profile, err := s.createUser(r.Context(), req)
	if errors.Is(err, errEmailTaken) {
		respondError(w, http.StatusBadRequest, "A user with this email address has already been registered")
		return
	}
	if err != nil {
		s.log.Error("signup failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Internal server error during signup")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"user":    map[string]string{"id": profile.ID, "email": profile.Email},
		"profile": profile,
	})
}

func validateSignup(req domain.SignupRequest) string {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return "Email, password and name are required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "Invalid email address"
	}
	if len(req.Password) < minPasswordLength {
		return fmt.Sprintf("Password must be at least %d characters", minPasswordLength)
	}
	if !req.Role.Valid() {
		return "Role must be one of patient, doctor, nurse or admin"
	}
	return ""
}

// createUser claims the email first so concurrent signups cannot both win.
func (s *Server) createUser(ctx context.Context, req domain.SignupRequest) (domain.Profile, error) {
	return s.createUserWithID(ctx, s.newID(), req)
}

func (s *Server) createUserWithID(ctx context.Context, id string, req domain.SignupRequest) (domain.Profile, error) {
	claimed, err := s.deps.Store.SetNX(ctx, emailKey(req.Email), id)
	if err != nil {
		return domain.Profile{}, err
	}
	if !claimed {
		return domain.Profile{}, errEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		_ = s.deps.Store.Delete(ctx, emailKey(req.Email))
		return domain.Profile{}, err
	}
	now := s.now().UTC()
	profile := domain.Profile{
		ID:        id,
		Email:     normalizeEmail(req.Email),
		Name:      strings.TrimSpace(req.Name),
		Role:      req.Role,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.deps.Store.Set(ctx, credentialKey(id), hash); err != nil {
		return domain.Profile{}, err
	}
	if err := s.deps.Store.Set(ctx, profileKey(id), profile); err != nil {
		return domain.Profile{}, err
	}
	s.notify(ctx, id, "Welcome to RuralHealth!", "Your account has been successfully set up. Explore our features to get started.", "system")
	return profile, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	var id string
	ok, err := s.deps.Store.Get(ctx, emailKey(req.Email), &id)
	if err != nil {
		s.log.Error("login lookup failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to authenticate")
		return
	}
	var hash string
	if ok {
		ok, err = s.deps.Store.Get(ctx, credentialKey(id), &hash)
	}
	if err != nil {
		s.log.Error("login credential lookup failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to authenticate")
		return
	}
	if !ok || auth.CheckPassword(hash, req.Password) != nil {
		respondError(w, http.StatusUnauthorized, auth.ErrInvalidPassword.Error())
		return
	}

	var profile domain.Profile
	if err := s.deps.Store.MustGet(ctx, profileKey(id), &profile); err != nil {
		s.log.Error("login profile lookup failed", "user", id, "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to authenticate")
		return
	}

	token, exp, err := s.deps.Tokens.Issue(profile.ID, string(profile.Role))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	respond(w, http.StatusOK, domain.LoginResponse{AccessToken: token, ExpiresAt: exp.UTC(), Profile: profile})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.Profile
	err := s.deps.Store.MustGet(r.Context(), profileKey(userID(r.Context())), &profile)
	if errors.Is(err, kv.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		s.log.Error("profile lookup failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Internal server error fetching profile")
		return
	}
	respond(w, http.StatusOK, map[string]any{"profile": profile})
}

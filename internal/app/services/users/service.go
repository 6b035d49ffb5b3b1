// Package users handles registration, sign-in, and session lifecycle.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/auth"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/user"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"
)

const minPasswordLength = 8

// Service manages user accounts and their sessions.
type Service struct {
	store  storage.UserStore
	tokens *auth.Manager
	log    *logger.Logger
}

// New constructs a user service.
func New(store storage.UserStore, tokens *auth.Manager, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, tokens: tokens, log: log}
}

// RegisterInput carries a sign-up request.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone,omitempty"`
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.DisplayName)

	if email == "" || !strings.Contains(email, "@") {
		return user.User{}, apperr.Invalid("a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return user.User{}, apperr.Invalid("password must be at least %d characters", minPasswordLength)
	}
	if name == "" {
		return user.User{}, apperr.Invalid("display_name is required")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return user.User{}, apperr.Internal("hash password", err)
	}

	created, err := s.store.CreateUser(ctx, user.User{
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		DisplayName:  name,
		PasswordHash: hash,
		Status:       user.StatusActive,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return user.User{}, apperr.Conflict("email %s is already registered", email)
		}
		return user.User{}, err
	}

	s.log.WithField("user_id", created.ID).Info("user registered")
	return created, nil
}

// Login verifies credentials and opens a session. The returned token
// authenticates until it expires or the session is revoked.
func (s *Service) Login(ctx context.Context, email, password, userAgent, ip string) (user.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return user.User{}, "", apperr.Invalid("email and password are required")
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, "", apperr.Unauthorized("invalid credentials")
		}
		return user.User{}, "", err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return user.User{}, "", apperr.Unauthorized("invalid credentials")
	}
	if u.Status != user.StatusActive {
		return user.User{}, "", apperr.Forbidden("account is disabled")
	}

	token, err := s.tokens.GenerateToken(u)
	if err != nil {
		return user.User{}, "", apperr.Internal("issue token", err)
	}

	now := time.Now().UTC()
	if _, err := s.store.CreateSession(ctx, user.Session{
		UserID:    u.ID,
		TokenHash: auth.HashToken(token),
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: now.Add(s.tokens.TTL()),
	}); err != nil {
		return user.User{}, "", apperr.Internal("create session", err)
	}

	u.LastLoginAt = now
	if u, err = s.store.UpdateUser(ctx, u); err != nil {
		return user.User{}, "", err
	}

	s.log.WithField("user_id", u.ID).Info("user logged in")
	return u, token, nil
}

// Authenticate resolves a bearer token to its user. The token must
// both verify and belong to a live session, so a revoked token stops
// working before it expires.
func (s *Service) Authenticate(ctx context.Context, token string) (user.User, user.Session, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return user.User{}, user.Session{}, apperr.Unauthorized("invalid token")
	}

	sess, err := s.store.GetSessionByTokenHash(ctx, auth.HashToken(token))
	if err != nil {
		return user.User{}, user.Session{}, apperr.Unauthorized("session not found")
	}
	if !sess.Live(time.Now().UTC()) {
		return user.User{}, user.Session{}, apperr.Unauthorized("session expired")
	}
	if sess.UserID != claims.UserID {
		return user.User{}, user.Session{}, apperr.Unauthorized("invalid token")
	}

	u, err := s.store.GetUser(ctx, sess.UserID)
	if err != nil {
		return user.User{}, user.Session{}, apperr.Unauthorized("user not found")
	}
	if u.Status != user.StatusActive {
		return user.User{}, user.Session{}, apperr.Forbidden("account is disabled")
	}
	return u, sess, nil
}

// Logout revokes the session behind the token. Unknown tokens are not
// an error; logout is idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	sess, err := s.store.GetSessionByTokenHash(ctx, auth.HashToken(token))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.store.RevokeSession(ctx, sess.ID, time.Now().UTC()); err != nil {
		return err
	}
	s.log.WithField("user_id", sess.UserID).Info("user logged out")
	return nil
}

// Get fetches a user by identifier.
func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	return s.store.GetUser(ctx, id)
}

// UpdateProfile applies profile edits. Nil fields are left unchanged.
func (s *Service) UpdateProfile(ctx context.Context, id string, displayName, phone *string) (user.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	if displayName != nil {
		trimmed := strings.TrimSpace(*displayName)
		if trimmed == "" {
			return user.User{}, apperr.Invalid("display_name cannot be empty")
		}
		u.DisplayName = trimmed
	}
	if phone != nil {
		u.Phone = strings.TrimSpace(*phone)
	}

	updated, err := s.store.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}
	s.log.WithField("user_id", id).Info("profile updated")
	return updated, nil
}

// ChangePassword replaces the password and revokes every session, so
// stolen tokens die with the old password.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		return apperr.Unauthorized("current password is incorrect")
	}
	if len(next) < minPasswordLength {
		return apperr.Invalid("password must be at least %d characters", minPasswordLength)
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	u.PasswordHash = hash
	if _, err := s.store.UpdateUser(ctx, u); err != nil {
		return err
	}
	if err := s.store.RevokeUserSessions(ctx, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	s.log.WithField("user_id", id).Info("password changed, sessions revoked")
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Skotchmaster/baseball_stats/internal/events"
	"github.com/Skotchmaster/baseball_stats/internal/metrics"
	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/Skotchmaster/baseball_stats/internal/repo"
	"github.com/Skotchmaster/baseball_stats/internal/transport"
	"github.com/Skotchmaster/baseball_stats/internal/validation"
	"github.com/Skotchmaster/baseball_stats/pkg/hash"
	"github.com/Skotchmaster/baseball_stats/pkg/logging"
	"github.com/Skotchmaster/baseball_stats/pkg/tokens"
	"github.com/google/uuid"
)

type AuthService struct {
	Repo      *repo.GormRepo
	Tokens    *tokens.Codec
	Validator *validation.Validator
	Events    events.Publisher
	Hasher    hash.Hasher
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	req := transport.RegisterRequest{
		Email:    strings.TrimSpace(email),
		Username: strings.TrimSpace(username),
		Password: password,
	}
	if err := validate(s.Validator, req); err != nil {
		l.Warn("register_error", "status", 422, "reason", "validation failed", "error", err)
		metrics.AuthEvent("register", "invalid")
		return nil, err
	}
	email = strings.ToLower(req.Email)
	username = strings.ToLower(req.Username)

	if err := s.checkIdentityFree(ctx, email, username); err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			l.Warn("register_error", "status", 400, "reason", err.Error())
			metrics.AuthEvent("register", "duplicate")
		}
		return nil, err
	}

	pwHash, err := s.Hasher.Hash(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:          email,
		Username:       username,
		HashedPassword: pwHash,
		IsActive:       true,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicateKey) {
			// lost a race with a concurrent registration
			if dupErr := s.checkIdentityFree(ctx, email, username); dupErr != nil {
				metrics.AuthEvent("register", "duplicate")
				return nil, dupErr
			}
			return nil, ErrDuplicateIdentity
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.AuthEvent("register", "success")
	publish(ctx, s.Events, events.TopicUsers, user.ID.String(), events.UserEvent{
		Type:     events.UserRegistered,
		UserID:   user.ID.String(),
		Username: user.Username,
		At:       time.Now().UTC(),
	})
	l.Info("register_success", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) checkIdentityFree(ctx context.Context, email, username string) error {
	taken, err := s.Repo.EmailTaken(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return ErrDuplicateEmail
	}
	taken, err = s.Repo.UsernameTaken(ctx, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return ErrDuplicateUsername
	}
	return nil
}

// Authenticate does not reveal whether the email or the password was wrong.
// The inactive check runs only after the password matched.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.Repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// unknown emails still pay for one bcrypt check at the configured cost
			s.Hasher.Check(s.Hasher.Dummy(), password)
			return nil, ErrAuthFailure
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !s.Hasher.Check(user.HashedPassword, password) {
		return nil, ErrAuthFailure
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, ErrAuthFailure):
			l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
			metrics.AuthEvent("login", "failure")
		case errors.Is(err, ErrInactiveAccount):
			l.Warn("login_failed", "status", 403, "reason", "inactive account")
			metrics.AuthEvent("login", "inactive")
		default:
			l.Error("login_failed", "status", 500, "error", err)
		}
		return nil, err
	}

	s.rehash(ctx, l, user, password)

	pair, err := s.issuePair(user.ID.String())
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign tokens", "error", err)
		return nil, err
	}
	metrics.AuthEvent("login", "success")
	return pair, nil
}

// Refresh trades a valid refresh token for a new pair. The presented token is
// not revoked and stays usable until it expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims := s.Tokens.Verify(refreshToken, tokens.KindRefresh)
	if claims == nil {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid refresh token")
		metrics.AuthEvent("refresh", "failure")
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.issuePair(claims.Subject)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot sign tokens", "error", err)
		return nil, err
	}
	metrics.AuthEvent("refresh", "success")
	return pair, nil
}

// CurrentUser resolves the account behind an access token.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	claims := s.Tokens.Verify(accessToken, tokens.KindAccess)
	if claims == nil {
		return nil, ErrUnauthenticated
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// rehash upgrades a stored hash made with another bcrypt cost. Failure leaves
// the old hash in place.
func (s *AuthService) rehash(ctx context.Context, l *slog.Logger, user *models.User, password string) {
	if !s.Hasher.NeedsRehash(user.HashedPassword) {
		return
	}
	fresh, err := s.Hasher.Hash(password)
	if err == nil {
		err = s.Repo.SetPasswordHash(ctx, user.ID, fresh)
	}
	if err != nil {
		l.Warn("password_rehash_failed", "user_id", user.ID, "error", err)
		return
	}
	user.HashedPassword = fresh
	l.Info("password_rehashed", "user_id", user.ID)
}

func (s *AuthService) issuePair(subject string) (*TokenPair, error) {
	access, err := s.Tokens.IssueAccess(subject)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Tokens.IssueRefresh(subject)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

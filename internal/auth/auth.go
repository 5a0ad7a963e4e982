// Package auth handles account signup, login and session validation on top
// of the store. Passwords are bcrypt hashed; sessions are opaque tokens with
// a fixed TTL.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/trendlens/trendlens/internal/model"
	"github.com/trendlens/trendlens/internal/store"
)

// ErrInvalidCredentials covers both unknown email and wrong password, so a
// login probe cannot distinguish them.
var ErrInvalidCredentials = eris.New("auth: invalid email or password")

// minPasswordLen is enforced at signup only.
const minPasswordLen = 8

// Service implements the account operations used by the HTTP API and CLI.
type Service struct {
	store      store.Store
	sessionTTL time.Duration
}

// New creates an auth service.
func New(st store.Store, sessionTTL time.Duration) *Service {
	return &Service{store: st, sessionTTL: sessionTTL}
}

// Signup registers a new account on the given plan and opens a session.
func (s *Service) Signup(ctx context.Context, email, password, plan string) (*model.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, eris.New("auth: invalid email address")
	}
	if len(password) < minPasswordLen {
		return nil, eris.Errorf("auth: password must be at least %d characters", minPasswordLen)
	}
	if plan == "" {
		plan = model.PlanFree
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Email:        email,
		PasswordHash: hash,
		Plan:         plan,
		Limits:       model.DefaultLimits(plan),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	zap.L().Info("account created", zap.String("email", email), zap.String("plan", plan))
	return s.store.CreateSession(ctx, email, s.sessionTTL)
}

// Login verifies credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUser(ctx, email)
	if eris.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	zap.L().Info("login", zap.String("email", email))
	return s.store.CreateSession(ctx, email, s.sessionTTL)
}

// Validate resolves a session token to its user. Expired and unknown tokens
// fail the same way.
func (s *Service) Validate(ctx context.Context, token string) (*model.User, error) {
	sess, err := s.store.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, sess.Email)
}

// Logout deletes the session. Deleting an unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	err := s.store.DeleteSession(ctx, token)
	if err != nil && !eris.Is(err, store.ErrNotFound) {
		zap.L().Debug("logout: delete session", zap.Error(err))
	}
	return nil
}

// HashPassword bcrypt-hashes a password at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", eris.Wrap(err, "auth: hash password")
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

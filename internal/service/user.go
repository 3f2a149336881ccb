package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shopwatch/shopwatch/internal/auth"
	"github.com/shopwatch/shopwatch/internal/model"
	"github.com/shopwatch/shopwatch/internal/repository"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9]{4,10}$`)
	passwordPattern = regexp.MustCompile(`^[a-zA-Z0-9]{8,15}$`)
)

// UserService handles signup, login and session lifecycle.
type UserService struct {
	users      UserStore
	sessions   SessionStore
	adminToken string
}

// NewUserService creates a new UserService. adminToken is the shared
// secret required to sign up with the ADMIN role; empty disables admin
// signup entirely.
func NewUserService(users UserStore, sessions SessionStore, adminToken string) *UserService {
	return &UserService{
		users:      users,
		sessions:   sessions,
		adminToken: adminToken,
	}
}

// SignupInput defines input for account creation.
type SignupInput struct {
	Username   string
	Password   string
	Admin      bool
	AdminToken string
}

// Signup creates a new account. Usernames are 4 to 10 lowercase
// alphanumerics, passwords 8 to 15 alphanumerics. The ADMIN role
// additionally requires the configured admin token.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	if !usernamePattern.MatchString(input.Username) {
		return nil, ErrInvalidUsername
	}
	if !passwordPattern.MatchString(input.Password) {
		return nil, ErrInvalidPassword
	}

	role := model.RoleUser
	if input.Admin {
		if s.adminToken == "" || subtle.ConstantTimeCompare([]byte(input.AdminToken), []byte(s.adminToken)) != 1 {
			return nil, ErrInvalidAdminToken
		}
		role = model.RoleAdmin
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Username:     input.Username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and issues an opaque session token. Only
// the token's hash is stored server side.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn comparable time so username probing gains nothing.
			_, _ = auth.VerifyPassword(password, auth.DummyHash)
			return "", nil, ErrLoginFailed
		}
		return "", nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return "", nil, ErrLoginFailed
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &model.AuthContext{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
	if err := s.sessions.SetSession(ctx, auth.QuickHash(token), session); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}

	return token, user, nil
}

// Logout revokes the session for the given token. Unknown tokens are a
// no-op.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if !auth.ValidateTokenFormat(token) {
		return nil
	}
	return s.sessions.DeleteSession(ctx, auth.QuickHash(token))
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/config"
	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/repository"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

// AuthService covers registration, login, profile and password management.
type AuthService struct {
	store    repository.Store
	tokens   *auth.TokenManager
	hasher   *auth.Hasher
	resetTTL time.Duration
	logger   *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(store repository.Store, tokens *auth.TokenManager, hasher *auth.Hasher, cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:    store,
		tokens:   tokens,
		hasher:   hasher,
		resetTTL: time.Duration(cfg.PasswordResetTTLMinutes) * time.Minute,
		logger:   logger,
	}
}

// RegisterInput describes the registration payload.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// LoginResult bundles the issued token and the authenticated user.
type LoginResult struct {
	Token string
	User  *domain.User
}

// Register creates a user account. The master admin flag is provisioned out
// of band and can never be set here.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" || email == "" {
		return nil, errorutil.NewValidationError("username and email are required", nil)
	}
	if len(input.Password) < 8 {
		return nil, errorutil.NewValidationError("password must be at least 8 characters", nil)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleDeveloper
	}
	if !domain.ValidRole(role) {
		return nil, errorutil.NewValidationError("invalid role", map[string]any{"role": role})
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	viewMode := domain.ViewModeDeveloper
	if role == domain.RoleAdmin {
		viewMode = domain.ViewModeAdmin
	}
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		ViewMode:     viewMode,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err, "users_email_key") {
			return nil, errorutil.NewConflict("email already registered", nil)
		}
		if repository.IsUniqueViolation(err, "users_username_key") {
			return nil, errorutil.NewConflict("username already taken", nil)
		}
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login verifies credentials and issues an access token. A missing account
// and a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errorutil.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, errorutil.NewUnauthorized("invalid credentials")
	}
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return &LoginResult{Token: token, User: user}, nil
}

// ProfilePatch carries partial profile updates.
type ProfilePatch struct {
	Username   *string
	ProfilePic *string
}

// UpdateProfile updates the actor's own profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, actor *domain.User, patch ProfilePatch) (*domain.User, error) {
	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		if username == "" {
			return nil, errorutil.NewValidationError("username is required", nil)
		}
		actor.Username = username
	}
	if patch.ProfilePic != nil {
		if *patch.ProfilePic == "" {
			actor.ProfilePic = nil
		} else {
			actor.ProfilePic = patch.ProfilePic
		}
	}
	if err := s.store.Users().Update(ctx, actor); err != nil {
		if repository.IsUniqueViolation(err, "users_username_key") {
			return nil, errorutil.NewConflict("username already taken", nil)
		}
		return nil, err
	}
	return actor, nil
}

// ChangePassword rotates the actor's password after verifying the current
// one.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.User, current, next string) error {
	if !s.hasher.Compare(actor.PasswordHash, current) {
		return errorutil.NewUnauthorized("current password is incorrect")
	}
	if len(next) < 8 {
		return errorutil.NewValidationError("password must be at least 8 characters", nil)
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	actor.PasswordHash = hash
	return s.store.Users().Update(ctx, actor)
}

// RequestPasswordReset creates a single-use reset token. The token is handed
// to the delivery channel by the caller; an unknown email produces no token
// and no error.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	token := &repository.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.store.PasswordResets().Create(ctx, token); err != nil {
		return "", err
	}
	s.logger.Info("password reset requested", zap.String("user_id", user.ID))
	return token.Token, nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, tokenValue, next string) error {
	if len(next) < 8 {
		return errorutil.NewValidationError("password must be at least 8 characters", nil)
	}
	return s.store.InTx(ctx, func(st repository.Store) error {
		token, err := st.PasswordResets().GetByToken(ctx, tokenValue)
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewValidationError("invalid or expired reset token", nil)
		}
		if err != nil {
			return err
		}
		if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
			return errorutil.NewValidationError("invalid or expired reset token", nil)
		}
		user, err := st.Users().GetByID(ctx, token.UserID)
		if err != nil {
			return err
		}
		hash, err := s.hasher.Hash(next)
		if err != nil {
			return errorutil.NewInternalError(err)
		}
		user.PasswordHash = hash
		if err := st.Users().Update(ctx, user); err != nil {
			return err
		}
		return st.PasswordResets().MarkUsed(ctx, token.ID)
	})
}

// Package service contains the business logic layer: validation, the
// authorization pipeline, and orchestration between repositories. Services
// accept primitives and input structs, never HTTP types, and return domain
// errors from internal/apperror for the handler layer to translate.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/sakif/tracker/internal/apperror"
	"github.com/sakif/tracker/internal/auth"
	"github.com/sakif/tracker/internal/model"
	"github.com/sakif/tracker/internal/repository"
)

const MinPasswordLength = 8

// Login failure is deliberately vague: the same message for a missing
// account and a wrong password, so usernames cannot be probed.
const msgBadCredentials = "No active account found with the given credentials"

// AuthService handles registration, login, token refresh, logout and the
// caller's own account.
type AuthService struct {
	users     repository.UserRepository
	blacklist repository.TokenBlacklist
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	blacklist repository.TokenBlacklist,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		blacklist: blacklist,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// SignupInput carries the registration payload. The consent flags are
// pointers so "absent" and "false" can be told apart: consent must be
// stated explicitly, not defaulted.
type SignupInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Password2       string `json:"password2"`
	Age             int    `json:"age"`
	CanBeContacted  *bool  `json:"canBeContacted"`
	CanDataBeShared *bool  `json:"canDataBeShared"`
}

// Signup validates the whole payload at once and reports every broken
// field in a single FieldErrors, rather than stopping at the first.
// Username and email collisions fold into the same per-field shape.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	fieldErrs := apperror.NewFieldErrors()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if in.Username == "" {
		fieldErrs.Add("username", "This field is required.")
	}
	if in.Email == "" {
		fieldErrs.Add("email", "This field is required.")
	} else if _, err := mail.ParseAddress(in.Email); err != nil {
		fieldErrs.Add("email", "Enter a valid email address.")
	}
	if in.Password == "" {
		fieldErrs.Add("password", "This field is required.")
	} else if len(in.Password) < MinPasswordLength {
		fieldErrs.Add("password", fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength))
	}
	if in.Password2 != in.Password {
		fieldErrs.Add("password2", "Password fields did not match.")
	}
	if in.Age < model.MinimumAge {
		fieldErrs.Add("age", fmt.Sprintf("You must be at least %d years old to register.", model.MinimumAge))
	}
	if in.CanBeContacted == nil {
		fieldErrs.Add("canBeContacted", "This field is required.")
	}
	if in.CanDataBeShared == nil {
		fieldErrs.Add("canDataBeShared", "This field is required.")
	}

	if !fieldErrs.Empty() {
		return nil, fieldErrs
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		fieldErrs.Add("password", "Password could not be processed.")
		return nil, fieldErrs
	}

	user := &model.User{
		Username:        in.Username,
		Email:           in.Email,
		PasswordHash:    hash,
		Age:             in.Age,
		CanBeContacted:  *in.CanBeContacted,
		CanDataBeShared: *in.CanDataBeShared,
	}

	if err := s.users.Create(ctx, user); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && errors.Is(err, apperror.ErrConflict) && appErr.Field != "" {
			fieldErrs.Add(appErr.Field, appErr.Message)
			return nil, fieldErrs
		}
		s.logger.Error("failed to create user",
			slog.String("username", in.Username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login verifies credentials and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (auth.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return auth.TokenPair{}, apperror.Unauthorized(msgBadCredentials)
		}
		return auth.TokenPair{}, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return auth.TokenPair{}, apperror.Unauthorized(msgBadCredentials)
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		s.logger.Error("failed to issue token pair",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return auth.TokenPair{}, fmt.Errorf("issuing tokens: %w", err)
	}

	s.logger.Info("user logged in", slog.Int64("user_id", user.ID))
	return pair, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access
// token. The user is re-fetched so a deleted account cannot keep minting
// access tokens from an old refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, jti, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return "", apperror.Unauthorized(auth.MsgInvalidOrExpired)
	}

	revoked, err := s.blacklist.IsRevoked(ctx, jti)
	if err != nil {
		return "", fmt.Errorf("checking blacklist: %w", err)
	}
	if revoked {
		return "", apperror.Unauthorized(auth.MsgInvalidOrExpired)
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Unauthorized(auth.MsgAuthFailed)
		}
		return "", fmt.Errorf("looking up user: %w", err)
	}

	access, err := s.tokens.GenerateAccess(userID, auth.AccessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("issuing access token: %w", err)
	}
	return access, nil
}

// Logout blacklists the presented refresh token's jti. Best-effort: an
// invalid token or a store failure is logged and swallowed, so logout
// never fails from the client's point of view.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	_, jti, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil || jti == "" {
		return
	}
	// The blacklist entry only needs to outlive the token itself, so the
	// full refresh TTL from now is a safe upper bound.
	if err := s.blacklist.Revoke(ctx, jti, time.Now().Add(auth.RefreshTokenTTL)); err != nil {
		s.logger.Warn("failed to blacklist refresh token",
			slog.String("jti", jti),
			slog.String("error", err.Error()),
		)
	}
}

// Account returns the caller's own user record.
func (s *AuthService) Account(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// AccountUpdateInput is a partial update: nil fields keep their value.
type AccountUpdateInput struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	Age             *int    `json:"age"`
	CanBeContacted  *bool   `json:"canBeContacted"`
	CanDataBeShared *bool   `json:"canDataBeShared"`
}

// UpdateAccount applies a partial update to the caller's own record.
func (s *AuthService) UpdateAccount(ctx context.Context, userID int64, in AccountUpdateInput) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, apperror.ValidationFailed("username", "Username must not be blank.")
		}
		user.Username = username
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperror.ValidationFailed("email", "Enter a valid email address.")
		}
		user.Email = email
	}
	if in.Password != nil {
		if len(*in.Password) < MinPasswordLength {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength))
		}
		hash, err := s.passwords.Hash(*in.Password)
		if err != nil {
			return nil, apperror.ValidationFailed("password", "Password could not be processed.")
		}
		user.PasswordHash = hash
	}
	if in.Age != nil {
		if *in.Age < model.MinimumAge {
			return nil, apperror.ValidationFailed("age",
				fmt.Sprintf("You must be at least %d years old.", model.MinimumAge))
		}
		user.Age = *in.Age
	}
	if in.CanBeContacted != nil {
		user.CanBeContacted = *in.CanBeContacted
	}
	if in.CanDataBeShared != nil {
		user.CanDataBeShared = *in.CanDataBeShared
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("account updated", slog.Int64("user_id", userID))
	return user, nil
}

// DeleteAccount removes the caller's own record. Authored projects,
// issues, comments and contributor rows cascade away in the store.
func (s *AuthService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("account deleted", slog.Int64("user_id", userID))
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_order/internal/events"
	"github.com/Skotchmaster/coffee_order/internal/hash"
	"github.com/Skotchmaster/coffee_order/internal/logging"
	"github.com/Skotchmaster/coffee_order/internal/models"
	"github.com/Skotchmaster/coffee_order/internal/repo"
	"github.com/Skotchmaster/coffee_order/internal/tokens"
	"github.com/Skotchmaster/coffee_order/internal/transport"
)

const (
	minUsername = 3
	maxUsername = 64
)

type AuthService struct {
	Repo   *repo.GormRepo
	Issuer *tokens.Issuer
	Events events.Publisher
	Now    func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AuthService) Register(ctx context.Context, req transport.Credentials) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password required", ErrValidation)
	}
	if n := utf8.RuneCountInString(username); n < minUsername || n > maxUsername {
		return nil, fmt.Errorf("%w: username must be %d-%d characters", ErrValidation, minUsername, maxUsername)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Username:     username,
		PasswordHash: pwHash,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fmt.Errorf("%w: user already exist", ErrConflict)
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, user.ID, events.UserEvent{
		Type:     events.UserRegistered,
		UserID:   user.ID,
		Username: user.Username,
		At:       s.now(),
	})
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, req transport.Credentials) (*transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", req.Username)

	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password required", ErrValidation)
	}

	user, err := s.Repo.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "reason", "wrong password")
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	now := s.now()
	access, refresh, err := s.issuePair(user, now)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.AddRefreshToken(ctx, refreshModel(user.ID, refresh)); err != nil {
		return nil, err
	}

	return loginResult(user, access, refresh), nil
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued in the same transaction.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*transport.LoginResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.Issuer.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
		}
		return nil, err
	}

	now := s.now()
	access, refresh, err := s.issuePair(user, now)
	if err != nil {
		return nil, err
	}

	err = s.Repo.RotateRefreshToken(ctx, claims.ID, hash.Sha256Hex(refreshToken), now, refreshModel(user.ID, refresh))
	if err != nil {
		if errors.Is(err, repo.ErrRefreshTokenInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return nil, err
	}

	return loginResult(user, access, refresh), nil
}

// LogOut revokes the presented refresh token when it belongs to userID.
// Tokens of other accounts are left alone.
func (s *AuthService) LogOut(ctx context.Context, userID uint, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, userID, hash.Sha256Hex(refreshToken))
}

// Authenticate resolves the caller behind an access token. The user row is
// re-read so a deleted account or a changed admin flag applies at once.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: missing access token", ErrUnauthorized)
	}
	claims, err := tokens.AccessClaimsFromToken(accessToken, s.Issuer.AccessSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid access token", ErrUnauthorized)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid access token", ErrUnauthorized)
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
		}
		return nil, err
	}
	return user, nil
}

// EnsureAdmin seeds the configured admin account at startup.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (*models.User, error) {
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.Repo.EnsureAdmin(ctx, username, pwHash)
}

func (s *AuthService) issuePair(user *models.User, now time.Time) (tokens.Signed, tokens.Signed, error) {
	access, err := s.Issuer.NewAccessToken(user.ID, user.Role(), now)
	if err != nil {
		return tokens.Signed{}, tokens.Signed{}, err
	}
	refresh, err := s.Issuer.NewRefreshToken(user.ID, now)
	if err != nil {
		return tokens.Signed{}, tokens.Signed{}, err
	}
	return access, refresh, nil
}

func refreshModel(userID uint, refresh tokens.Signed) *models.RefreshToken {
	return &models.RefreshToken{
		UserID:    userID,
		JTI:       refresh.ID,
		TokenHash: hash.Sha256Hex(refresh.Token),
		ExpiresAt: refresh.ExpiresAt,
	}
}

func loginResult(user *models.User, access, refresh tokens.Signed) *transport.LoginResult {
	return &transport.LoginResult{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		AccessExp:    access.ExpiresAt,
		RefreshExp:   refresh.ExpiresAt,
		IsAdmin:      user.IsAdmin,
	}
}

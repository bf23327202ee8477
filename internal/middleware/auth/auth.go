// Package auth resolves the caller of a request and enforces the admin
// capability on protected routes.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_order/internal/logging"
	"github.com/Skotchmaster/coffee_order/internal/models"
	"github.com/Skotchmaster/coffee_order/internal/service"
)

const userKey = "current_user"

type Authenticator struct {
	Auth *service.AuthService
}

func New(auth *service.AuthService) *Authenticator {
	return &Authenticator{Auth: auth}
}

// BearerToken returns the token of an `Authorization: Bearer` header, or ""
// for any other scheme.
func BearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// AccessToken returns the bearer token of the request, falling back to the
// access cookie.
func AccessToken(c echo.Context) string {
	if token := BearerToken(c); token != "" {
		return token
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

func (a *Authenticator) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "require_user")

		user, err := a.Auth.Authenticate(ctx, AccessToken(c))
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				l.Warn("auth_failed", "status", 401, "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing access token")
			}
			l.Error("auth_failed", "status", 500, "reason", "cannot load user", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot authenticate")
		}

		c.Set(userKey, user)
		return next(c)
	}
}

// RequireAdmin authenticates like RequireUser and then rejects non-admins.
func (a *Authenticator) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return a.RequireUser(func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin {
			logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", 403, "reason", "admin required")
			return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
		}
		return next(c)
	})
}

func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(userKey).(*models.User)
	return u
}

package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_order/internal/logging"
	authmw "github.com/Skotchmaster/coffee_order/internal/middleware/auth"
	"github.com/Skotchmaster/coffee_order/internal/service"
	"github.com/Skotchmaster/coffee_order/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.Credentials
	if err := bindValid(c, l, "register_error", &req); err != nil {
		return err
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, transport.NewUserOut(*user))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.Credentials
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	setAuthCookies(c, res)
	l.Info("login_success")
	return c.JSON(http.StatusOK, transport.NewTokenOut(res, time.Now()))
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var req transport.RefreshIn
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "refresh_error", "invalid body", err)
	}
	token := refreshTokenFrom(c, req)
	if token == "" {
		l.Warn("refresh_error", "status", 401, "reason", "missing refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	res, err := h.Svc.Refresh(ctx, token)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			clearAuthCookies(c)
		}
		return fail(l, "refresh_error", err)
	}

	setAuthCookies(c, res)
	l.Info("refresh_success")
	return c.JSON(http.StatusOK, transport.NewTokenOut(res, time.Now()))
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var req transport.RefreshIn
	_ = c.Bind(&req)

	user := authmw.CurrentUser(c)
	if err := h.Svc.LogOut(ctx, user.ID, refreshTokenFrom(c, req)); err != nil {
		clearAuthCookies(c)
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot log out")
	}

	clearAuthCookies(c)
	l.Info("logout_success")
	return c.JSON(http.StatusOK, transport.MessageOut{Message: "logged out"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	user := authmw.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return c.JSON(http.StatusOK, transport.NewUserOut(*user))
}

func refreshTokenFrom(c echo.Context, req transport.RefreshIn) string {
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	if ck, err := c.Cookie(authmw.RefreshCookie); err == nil {
		return ck.Value
	}
	return ""
}

func setAuthCookies(c echo.Context, res *transport.LoginResult) {
	c.SetCookie(authmw.CreateCookie(authmw.AccessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(authmw.CreateCookie(authmw.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(authmw.DeleteCookie(authmw.AccessCookie, "/"))
	c.SetCookie(authmw.DeleteCookie(authmw.RefreshCookie, "/"))
}

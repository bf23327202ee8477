package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	authmw "github.com/Skotchmaster/coffee_order/internal/middleware/auth"
	"github.com/Skotchmaster/coffee_order/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/coffee_order/internal/middleware/logging"
)

// NewServer returns an echo instance with the full middleware stack
// installed. Routes are added with Register.
func NewServer(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Secure())
	e.Use(csrf.Middleware(csrf.Config{
		AuthCookie:        authmw.AccessCookie,
		Secure:            true,
		EnforceSameOrigin: true,
		SkipPaths:         []string{"/auth/register", "/auth/login", "/auth/refresh"},
	}))
	return e
}

package httpserver

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmw "github.com/Skotchmaster/coffee_order/internal/middleware/auth"
	"github.com/Skotchmaster/coffee_order/internal/middleware/csrf"
	"github.com/Skotchmaster/coffee_order/internal/models"
	"github.com/Skotchmaster/coffee_order/internal/transport"
)

func TestServer_TrailingSlashRoutes(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)
	env.createProduct(t, admin, "Latte", 4.50)

	rec := env.do(t, http.MethodGet, "/products/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]transport.ProductOut](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/products/1/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	env.userToken(t, "alice")
	stale := &http.Cookie{Name: authmw.AccessCookie, Value: "stale"}
	rec = env.do(t, http.MethodPost, "/auth/login/", transport.Credentials{Username: "alice", Password: "Secret123"}, "", stale)
	assert.Equal(t, http.StatusOK, rec.Code, "login stays exempt from csrf after the slash is removed")
}

func TestServer_HeadersFromStack(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health/live", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	assert.NotEmpty(t, rec.Header().Get(csrf.HeaderName))
}

func TestServer_CookieAuthenticatedOrderNeedsCSRF(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)
	latte := env.createProduct(t, admin, "Latte", 4.50)
	access := &http.Cookie{Name: authmw.AccessCookie, Value: env.userToken(t, "alice")}
	body := transport.OrderIn{ProductID: latte.ID, Quantity: 1}

	rec := env.do(t, http.MethodPost, "/orders", body, "", access)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := env.request(t, http.MethodPost, "/orders", body, access)
	req.Header.Set(echo.HeaderAuthorization, "Basic Zm9vOmJhcg==")
	assert.Equal(t, http.StatusForbidden, env.serve(req).Code)

	var count int64
	require.NoError(t, env.repo.DB.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)

	req = env.request(t, http.MethodPost, "/orders", body, access, &http.Cookie{Name: csrf.CookieName, Value: "tok"})
	req.Header.Set(csrf.HeaderName, "tok")
	req.Header.Set(echo.HeaderOrigin, "http://example.com")
	rec = env.serve(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 4.50, decode[transport.OrderOut](t, rec).TotalPrice)
}

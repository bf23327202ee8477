package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coffee_order/internal/db/dbtest"
	"github.com/Skotchmaster/coffee_order/internal/events/eventstest"
	"github.com/Skotchmaster/coffee_order/internal/logging"
	authmw "github.com/Skotchmaster/coffee_order/internal/middleware/auth"
	"github.com/Skotchmaster/coffee_order/internal/repo"
	"github.com/Skotchmaster/coffee_order/internal/search/searchtest"
	"github.com/Skotchmaster/coffee_order/internal/service"
	"github.com/Skotchmaster/coffee_order/internal/tokens"
	"github.com/Skotchmaster/coffee_order/internal/transport"
)

type testEnv struct {
	e      *echo.Echo
	repo   *repo.GormRepo
	events *eventstest.Recorder
	auth   *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := dbtest.Open(t)
	r := repo.New(gdb)
	rec := &eventstest.Recorder{}

	authSvc := &service.AuthService{
		Repo: r,
		Issuer: &tokens.Issuer{
			AccessSecret:  []byte("test-jwt-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    24 * time.Hour,
		},
		Events: rec,
	}

	e := NewServer(logging.NewWithWriter(io.Discard, "error"))

	Register(e, &Deps{
		DB:             gdb,
		Auth:           authmw.New(authSvc),
		AuthHandler:    &AuthHTTP{Svc: authSvc},
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Events: rec, Index: searchtest.NewMemory()}},
		OrderHandler:   &OrderHTTP{Svc: &service.OrderService{Repo: r, Events: rec}},
	})

	return &testEnv{e: e, repo: r, events: rec, auth: authSvc}
}

// request builds a JSON request carrying the given cookies.
func (env *testEnv) request(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *http.Request {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	return req
}

func (env *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

// do sends a JSON request; token, when set, goes into the Authorization header.
func (env *testEnv) do(t *testing.T, method, path string, body any, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := env.request(t, method, path, body, cookies...)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return env.serve(req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (env *testEnv) login(t *testing.T, username, password string) transport.TokenOut {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/auth/login", transport.Credentials{Username: username, Password: password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[transport.TokenOut](t, rec)
}

// userToken registers a regular user and returns its access token.
func (env *testEnv) userToken(t *testing.T, username string) string {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/auth/register", transport.Credentials{Username: username, Password: "Secret123"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return env.login(t, username, "Secret123").AccessToken
}

func (env *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	_, err := env.auth.EnsureAdmin(context.Background(), "root", "rootpass")
	require.NoError(t, err)
	return env.login(t, "root", "rootpass").AccessToken
}

func (env *testEnv) createProduct(t *testing.T, admin, name string, price float64) transport.ProductOut {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/products", transport.ProductIn{Name: name, Price: price}, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[transport.ProductOut](t, rec)
}

func cookieFrom(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

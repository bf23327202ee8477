package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coffee_order/internal/db/dbtest"
	"github.com/Skotchmaster/coffee_order/internal/events/eventstest"
	"github.com/Skotchmaster/coffee_order/internal/models"
	"github.com/Skotchmaster/coffee_order/internal/repo"
	"github.com/Skotchmaster/coffee_order/internal/search/searchtest"
	"github.com/Skotchmaster/coffee_order/internal/tokens"
	"github.com/Skotchmaster/coffee_order/internal/transport"
)

type testEnv struct {
	repo    *repo.GormRepo
	events  *eventstest.Recorder
	index   *searchtest.Memory
	auth    *AuthService
	catalog *CatalogService
	orders  *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := repo.New(dbtest.Open(t))
	rec := &eventstest.Recorder{}
	idx := searchtest.NewMemory()

	return &testEnv{
		repo:   r,
		events: rec,
		index:  idx,
		auth: &AuthService{
			Repo: r,
			Issuer: &tokens.Issuer{
				AccessSecret:  []byte("test-jwt-secret"),
				RefreshSecret: []byte("test-refresh-secret"),
				AccessTTL:     15 * time.Minute,
				RefreshTTL:    24 * time.Hour,
			},
			Events: rec,
		},
		catalog: &CatalogService{Repo: r, Events: rec, Index: idx},
		orders:  &OrderService{Repo: r, Events: rec},
	}
}

func (env *testEnv) user(t *testing.T, name string, admin bool) *models.User {
	t.Helper()
	u := models.User{Username: name, PasswordHash: "x", IsAdmin: admin}
	require.NoError(t, env.repo.DB.Create(&u).Error)
	return &u
}

func (env *testEnv) product(t *testing.T, name string, price float64) *models.Product {
	t.Helper()
	p, err := env.catalog.CreateProduct(context.Background(), transport.ProductIn{Name: name, Price: price})
	require.NoError(t, err)
	return p
}

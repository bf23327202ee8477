package search

import (
	"context"

	"github.com/Skotchmaster/coffee_order/internal/models"
)

// MaxResults caps every search response.
const MaxResults = 100

// Index keeps a searchable copy of the catalog.
type Index interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, limit int) ([]models.Product, error)
}

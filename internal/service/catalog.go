package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_order/internal/events"
	"github.com/Skotchmaster/coffee_order/internal/logging"
	"github.com/Skotchmaster/coffee_order/internal/models"
	"github.com/Skotchmaster/coffee_order/internal/repo"
	"github.com/Skotchmaster/coffee_order/internal/search"
	"github.com/Skotchmaster/coffee_order/internal/transport"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	// Index is optional; without it search falls back to the database.
	Index search.Index
}

func validateProduct(req transport.ProductIn) (string, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", fmt.Errorf("%w: name required", ErrValidation)
	}
	if req.Price <= 0 || math.IsNaN(req.Price) || math.IsInf(req.Price, 0) {
		return "", fmt.Errorf("%w: price must be > 0", ErrValidation)
	}
	return name, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}
	return prod, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.ProductIn) (*models.Product, error) {
	name, err := validateProduct(req)
	if err != nil {
		return nil, err
	}

	prod := models.Product{Name: name, Price: req.Price}
	if err := s.Repo.CreateProduct(ctx, &prod); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, events.ProductCreated, prod)
	return &prod, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req transport.ProductIn) (*models.Product, error) {
	name, err := validateProduct(req)
	if err != nil {
		return nil, err
	}

	prod, err := s.Repo.UpdateProduct(ctx, id, name, req.Price)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}

	s.afterWrite(ctx, events.ProductUpdated, *prod)
	return prod, nil
}

// DeleteProduct refuses to remove a product that orders still reference.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.GetProduct(ctx, id); err != nil {
			return err
		}
		n, err := tx.CountOrdersByProduct(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: product %d is referenced by %d orders", ErrConflict, id, n)
		}
		return tx.DeleteProduct(ctx, id)
	})
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: product %d", ErrNotFound, id)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: product %d is referenced by orders", ErrConflict, id)
	default:
		return err
	}

	s.afterWrite(ctx, events.ProductDeleted, models.Product{ID: id})
	return nil
}

func (s *CatalogService) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("%w: query required", ErrValidation)
	}

	if s.Index == nil {
		return s.Repo.SearchProducts(ctx, q, search.MaxResults)
	}

	items, err := s.Index.Search(ctx, q, search.MaxResults)
	if err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to db", "error", err)
		return s.Repo.SearchProducts(ctx, q, search.MaxResults)
	}
	return items, nil
}

// afterWrite keeps the search index and event stream in step with a
// committed catalog change. Failures are logged only.
func (s *CatalogService) afterWrite(ctx context.Context, kind string, prod models.Product) {
	if s.Index != nil {
		var err error
		if kind == events.ProductDeleted {
			err = s.Index.DeleteProduct(ctx, prod.ID)
		} else {
			err = s.Index.IndexProduct(ctx, prod)
		}
		if err != nil {
			logging.FromContext(ctx).Warn("search_index_sync_failed", "product_id", prod.ID, "event", kind, "error", err)
		}
	}

	publish(ctx, s.Events, events.TopicProducts, prod.ID, events.ProductEvent{
		Type:      kind,
		ProductID: prod.ID,
		Name:      prod.Name,
		Price:     prod.Price,
		At:        time.Now().UTC(),
	})
}

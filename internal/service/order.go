package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_order/internal/events"
	"github.com/Skotchmaster/coffee_order/internal/models"
	"github.com/Skotchmaster/coffee_order/internal/repo"
	"github.com/Skotchmaster/coffee_order/internal/transport"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

// TotalPrice multiplies in decimal so 0.1 x 3 gives 0.3 and not 0.30000000000000004.
func TotalPrice(price float64, quantity int) float64 {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity))).InexactFloat64()
}

// CreateOrder snapshots the current product price into the order. The lookup
// and the insert share one transaction, so nothing is written when the
// product is gone.
func (s *OrderService) CreateOrder(ctx context.Context, user *models.User, req transport.OrderIn) (*models.Order, error) {
	if req.ProductID == 0 {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}

	var order models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		prod, err := tx.GetProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}

		order = models.Order{
			UserID:     user.ID,
			ProductID:  prod.ID,
			Quantity:   req.Quantity,
			TotalPrice: TotalPrice(prod.Price, req.Quantity),
		}
		return tx.CreateOrder(ctx, &order)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, req.ProductID)
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicOrders, order.ID, events.OrderEvent{
		Type:       events.OrderCreated,
		OrderID:    order.ID,
		UserID:     order.UserID,
		ProductID:  order.ProductID,
		Quantity:   order.Quantity,
		TotalPrice: order.TotalPrice,
		At:         time.Now().UTC(),
	})
	return &order, nil
}

// ListOrders returns every order to admins and only their own to others.
func (s *OrderService) ListOrders(ctx context.Context, user *models.User) ([]models.Order, error) {
	if user.IsAdmin {
		return s.Repo.ListOrders(ctx)
	}
	return s.Repo.ListOrdersByUser(ctx, user.ID)
}

func (s *OrderService) GetOrder(ctx context.Context, user *models.User, id uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, err
	}
	if !user.IsAdmin && order.UserID != user.ID {
		return nil, fmt.Errorf("%w: order %d belongs to another user", ErrForbidden, id)
	}
	return order, nil
}

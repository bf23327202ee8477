package events

import (
	"context"
	"time"
)

const (
	TopicProducts = "product_events"
	TopicOrders   = "order_events"
	TopicUsers    = "user_events"
)

const (
	ProductCreated = "product_created"
	ProductUpdated = "product_updated"
	ProductDeleted = "product_deleted"
	OrderCreated   = "order_created"
	UserRegistered = "user_registered"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
	Close() error
}

type ProductEvent struct {
	Type      string    `json:"type"`
	ProductID uint      `json:"productID"`
	Name      string    `json:"name,omitempty"`
	Price     float64   `json:"price,omitempty"`
	At        time.Time `json:"at"`
}

type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    uint      `json:"orderID"`
	UserID     uint      `json:"userID"`
	ProductID  uint      `json:"productID"`
	Quantity   int       `json:"quantity"`
	TotalPrice float64   `json:"total_price"`
	At         time.Time `json:"at"`
}

type UserEvent struct {
	Type     string    `json:"type"`
	UserID   uint      `json:"userID"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

// Nop drops every event. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }
func (Nop) Close() error                                         { return nil }

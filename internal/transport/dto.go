package transport

import (
	"strings"
	"time"

	"github.com/Skotchmaster/coffee_order/internal/models"
)

type ProductIn struct {
	Name  string  `json:"name"  validate:"required,max=255"`
	Price float64 `json:"price" validate:"required,gt=0"`
}

func (p *ProductIn) Normalize() { p.Name = strings.TrimSpace(p.Name) }

type ProductOut struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type OrderIn struct {
	ProductID uint `json:"product_id" validate:"required,gt=0"`
	Quantity  int  `json:"quantity"   validate:"required,gt=0"`
}

type OrderOut struct {
	ID         uint    `json:"id"`
	ProductID  uint    `json:"product_id"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"total_price"`
}

type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// Normalize trims the username so length rules apply to what gets stored.
func (c *Credentials) Normalize() { c.Username = strings.TrimSpace(c.Username) }

type RefreshIn struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenOut struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	IsAdmin      bool   `json:"is_admin"`
}

type UserOut struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type MessageOut struct {
	Message string `json:"message"`
}

// LoginResult is what the auth service hands back after login or refresh.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
}

func NewProductOut(p models.Product) ProductOut {
	return ProductOut{ID: p.ID, Name: p.Name, Price: p.Price}
}

func NewProductList(items []models.Product) []ProductOut {
	out := make([]ProductOut, 0, len(items))
	for _, p := range items {
		out = append(out, NewProductOut(p))
	}
	return out
}

func NewOrderOut(o models.Order) OrderOut {
	return OrderOut{
		ID:         o.ID,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice,
	}
}

func NewOrderList(items []models.Order) []OrderOut {
	out := make([]OrderOut, 0, len(items))
	for _, o := range items {
		out = append(out, NewOrderOut(o))
	}
	return out
}

func NewUserOut(u models.User) UserOut {
	return UserOut{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

func NewTokenOut(res *LoginResult, now time.Time) TokenOut {
	return TokenOut{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(res.AccessExp.Sub(now).Seconds()),
		IsAdmin:      res.IsAdmin,
	}
}

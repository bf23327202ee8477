package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null"          json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	IsAdmin      bool      `gorm:"not null;default:false"   json:"is_admin"`
	CreatedAt    time.Time `                                json:"created_at"`
}

type Product struct {
	ID    uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name  string  `gorm:"not null"                 json:"name"`
	Price float64 `gorm:"not null;check:price > 0" json:"price"`
}

// Order keeps TotalPrice as a snapshot of the product price at purchase time.
type Order struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"    json:"id"`
	UserID     uint      `gorm:"index;not null"              json:"user_id"`
	ProductID  uint      `gorm:"index;not null"              json:"product_id"`
	Quantity   int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	TotalPrice float64   `gorm:"not null"                    json:"total_price"`
	CreatedAt  time.Time `                                   json:"created_at"`

	User    User    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	Product Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	UserID    uint      `gorm:"index;not null"       json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null" json:"jti"`
	TokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null"             json:"expires_at"`
	Revoked   bool      `gorm:"default:false"        json:"revoked"`

	User User `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

func (u *User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// All lists every entity migrated at startup, parents first.
func All() []any {
	return []any{&User{}, &Product{}, &Order{}, &RefreshToken{}}
}

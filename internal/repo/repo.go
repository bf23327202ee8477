package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExist    = errors.New("user already exist")
	ErrRefreshTokenInvalid = errors.New("refresh token expired, revoked or unknown")
)

// GormRepo holds explicit query functions for every entity. The handle is
// either the pool or a transaction opened by Transaction.
type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// Transaction runs fn against a repo bound to a single transaction. The
// transaction is committed when fn returns nil and rolled back otherwise.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

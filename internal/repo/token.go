package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/coffee_order/internal/models"
)

func (r *GormRepo) AddRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Omit("User").Create(token).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// consumeRefresh revokes a live token in one statement so two concurrent
// rotations of the same token cannot both succeed.
func (r *GormRepo) consumeRefresh(ctx context.Context, jti, tokenHash string, now time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("jti = ? AND token_hash = ? AND revoked = ? AND expires_at > ?", jti, tokenHash, false, now).
		Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRefreshTokenInvalid
	}
	return nil
}

func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, oldHash string, now time.Time, newToken *models.RefreshToken) error {
	return r.Transaction(ctx, func(tx *GormRepo) error {
		if err := tx.consumeRefresh(ctx, oldJTI, oldHash, now); err != nil {
			return err
		}
		return tx.AddRefreshToken(ctx, newToken)
	})
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, userID uint, tokenHash string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND token_hash = ?", userID, tokenHash).
		Update("revoked", true).Error
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/3dxteam/usdt_bot/internal/models"
	"gorm.io/gorm"
)

func (r *Repository) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "telegram_id = ?", telegramID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername matches case-insensitively; usernames are unique
// regardless of casing.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(username)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) ListReferredUsers(ctx context.Context, code string) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Where("referred_by = ?", code).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list referred users: %w", err)
	}
	return users, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *Repository) UpdateUser(ctx context.Context, user *models.User, tx *gorm.DB) error {
	db := tx
	if tx == nil {
		db = r.db
	}

	return db.WithContext(ctx).Save(user).Error
}

// UpdateUserBalance writes only the balance column. The caller is expected to
// have re-read the user immediately before computing newBalance.
func (r *Repository) UpdateUserBalance(ctx context.Context, userID int64, newBalance float64, tx *gorm.DB) error {
	db := tx
	if tx == nil {
		db = r.db
	}

	res := db.WithContext(ctx).
		Model(&models.User{}).
		Where("telegram_id = ?", userID).
		Update("balance", newBalance)

	if res.Error != nil {
		r.logger.Errorf("failed to update balance for user %d: %v", userID, res.Error)
		return fmt.Errorf("failed to update balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d not found for balance update", userID)
	}

	return nil
}

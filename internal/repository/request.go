package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3dxteam/usdt_bot/internal/models"
	"gorm.io/gorm"
)

func (r *Repository) CreateWithdrawalRequest(ctx context.Context, req *models.WithdrawalRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *Repository) GetWithdrawalRequestByID(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get withdrawal request %d: %w", id, err)
	}
	return &req, nil
}

// UpdateWithdrawalRequestStatus moves an open request to a terminal status
// and stamps processed_at.
func (r *Repository) UpdateWithdrawalRequestStatus(ctx context.Context, id uint, status models.RequestStatus, tx *gorm.DB) error {
	db := tx
	if tx == nil {
		db = r.db
	}

	now := time.Now()
	err := db.WithContext(ctx).
		Model(&models.WithdrawalRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "processed_at": &now}).Error
	if err != nil {
		return fmt.Errorf("failed to update withdrawal request status: %w", err)
	}
	return nil
}

func (r *Repository) CreateDepositRequest(ctx context.Context, req *models.DepositRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *Repository) GetDepositRequestByID(ctx context.Context, id uint) (*models.DepositRequest, error) {
	var req models.DepositRequest
	err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get deposit request %d: %w", id, err)
	}
	return &req, nil
}

func (r *Repository) UpdateDepositRequestStatus(ctx context.Context, id uint, status models.RequestStatus) error {
	now := time.Now()
	err := r.db.WithContext(ctx).
		Model(&models.DepositRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "processed_at": &now}).Error
	if err != nil {
		return fmt.Errorf("failed to update deposit request status: %w", err)
	}
	return nil
}

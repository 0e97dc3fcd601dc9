package repository

import (
	"context"
	"fmt"

	"github.com/3dxteam/usdt_bot/internal/models"
)

func (r *Repository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// ListTransactions returns the user's most recent transactions. filterField
// is "status" or "type"; empty filterField means no filter.
func (r *Repository) ListTransactions(ctx context.Context, userID int64, filterField, filterValue string, limit int) ([]*models.Transaction, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)

	switch filterField {
	case "status":
		q = q.Where("status = ?", filterValue)
	case "type":
		q = q.Where("type = ?", filterValue)
	case "":
	default:
		return nil, fmt.Errorf("unknown transaction filter field %q", filterField)
	}

	var txs []*models.Transaction
	err := q.Order("created_at DESC").Limit(limit).Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (r *Repository) SumCompletedCommissions(ctx context.Context, userID int64) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND status = ?",
			userID, models.TxTypeReferralCommission, models.TxStatusCompleted).
		Select("COALESCE(SUM(amount),0)").Scan(&sum).Error
	return sum, err
}

// FailPendingTransactions marks every pending row for the user as failed.
// Called on /start to clear rows left behind by interrupted flows.
func (r *Repository) FailPendingTransactions(ctx context.Context, userID int64, description string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND status = ?", userID, models.TxStatusPending).
		Updates(map[string]interface{}{
			"status":      models.TxStatusFailed,
			"description": description,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to auto-fail pending transactions: %w", err)
	}
	return nil
}

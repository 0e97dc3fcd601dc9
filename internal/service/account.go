package service

import (
	"context"
	"fmt"
	"time"

	"github.com/3dxteam/usdt_bot/internal/models"
)

const (
	loyaltyCooldown      = 7 * 24 * time.Hour
	loyaltyPointsPerWeek = 10
)

// HistoryFilter selects which transactions TransactionHistory returns.
type HistoryFilter string

const (
	HistoryAll         HistoryFilter = "all"
	HistoryCompleted   HistoryFilter = "completed"
	HistoryFailed      HistoryFilter = "failed"
	HistoryDeposits    HistoryFilter = "deposit"
	HistoryWithdrawals HistoryFilter = "withdrawal"

	historyLimit = 20
)

// TransactionHistory returns the user's most recent transactions, newest
// first, optionally narrowed by status or type.
func (s *Service) TransactionHistory(ctx context.Context, userID int64, filter HistoryFilter) ([]*models.Transaction, error) {
	switch filter {
	case HistoryCompleted:
		return s.repo.ListTransactions(ctx, userID, "status", string(models.TxStatusCompleted), historyLimit)
	case HistoryFailed:
		return s.repo.ListTransactions(ctx, userID, "status", string(models.TxStatusFailed), historyLimit)
	case HistoryDeposits:
		return s.repo.ListTransactions(ctx, userID, "type", string(models.TxTypeDeposit), historyLimit)
	case HistoryWithdrawals:
		return s.repo.ListTransactions(ctx, userID, "type", string(models.TxTypeWithdrawal), historyLimit)
	default:
		return s.repo.ListTransactions(ctx, userID, "", "", historyLimit)
	}
}

type ReferralStats struct {
	Code          string
	ReferredCount int
	Referred      []string
	TotalEarned   float64
}

// ReferralSummary reports the user's code, who joined with it and the
// commissions earned from them so far.
func (s *Service) ReferralSummary(ctx context.Context, userID int64) (*ReferralStats, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	referred, err := s.repo.ListReferredUsers(ctx, user.ReferralCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list referred users: %w", err)
	}

	earned, err := s.repo.SumCompletedCommissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum commissions: %w", err)
	}

	usernames := make([]string, 0, len(referred))
	for _, u := range referred {
		usernames = append(usernames, u.Username)
	}

	return &ReferralStats{
		Code:          user.ReferralCode,
		ReferredCount: len(referred),
		Referred:      usernames,
		TotalEarned:   earned,
	}, nil
}

// ClaimLoyalty grants the weekly loyalty points. A claim within the cooldown
// window returns ErrLoyaltyCooldown with the remaining wait.
func (s *Service) ClaimLoyalty(ctx context.Context, userID int64) (int64, time.Duration, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user == nil {
		return 0, 0, fmt.Errorf("user %d not found", userID)
	}

	now := time.Now()
	if user.LastLoyaltyClaimAt != nil {
		elapsed := now.Sub(*user.LastLoyaltyClaimAt)
		if elapsed < loyaltyCooldown {
			return user.LoyaltyPoints, loyaltyCooldown - elapsed, ErrLoyaltyCooldown
		}
	}

	user.LoyaltyPoints += loyaltyPointsPerWeek
	user.LastLoyaltyClaimAt = &now
	if err := s.repo.UpdateUser(ctx, user, nil); err != nil {
		return 0, 0, fmt.Errorf("failed to claim loyalty points: %w", err)
	}

	s.logger.Infof("User %d claimed %d loyalty points (total %d)", userID, loyaltyPointsPerWeek, user.LoyaltyPoints)
	return user.LoyaltyPoints, 0, nil
}

package service

import (
	"context"
	"fmt"

	"github.com/3dxteam/usdt_bot/internal/models"
	"github.com/3dxteam/usdt_bot/utils"
)

// ReserveWithdrawal debits the user's balance and files an open withdrawal
// request for admin review. The balance is re-read just before the debit so
// a deposit settled mid-flow is not lost. If the request cannot be persisted
// the debit is rolled back.
func (s *Service) ReserveWithdrawal(ctx context.Context, userID int64, amount float64, method models.WithdrawalMethod, destination string) (*models.WithdrawalRequest, float64, error) {
	if amount <= 0 {
		return nil, 0, ErrInvalidAmount
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user == nil {
		return nil, 0, fmt.Errorf("user %d not found", userID)
	}
	if user.Balance < amount {
		return nil, 0, ErrInsufficientFunds
	}

	newBalance := utils.Round8(user.Balance - amount)
	if err := s.repo.UpdateUserBalance(ctx, userID, newBalance, nil); err != nil {
		return nil, 0, fmt.Errorf("failed to reserve withdrawal: %w", err)
	}

	req := &models.WithdrawalRequest{
		UserID:   userID,
		Username: user.Username,
		Amount:   amount,
		Method:   method,
		Status:   models.RequestStatusOpen,
	}
	switch method {
	case models.MethodSyriatelCash:
		req.PhoneNumber = destination
	default:
		req.WalletAddress = destination
	}

	if err := s.repo.CreateWithdrawalRequest(ctx, req); err != nil {
		if rbErr := s.repo.UpdateUserBalance(ctx, userID, user.Balance, nil); rbErr != nil {
			s.logger.Errorf("Failed to roll back reserved %.8f USDT for user %d: %v", amount, userID, rbErr)
		}
		return nil, 0, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	s.logger.Infof("Withdrawal request %d opened by user %d: %.8f USDT via %s", req.ID, userID, amount, method)
	return req, newBalance, nil
}

// ApproveWithdrawal executes an open request. For BEP20 the funds are sent
// on-chain first; a send failure refunds the user and rejects the request
// instead of leaving the debit dangling. Returns the tx hash for BEP20 sends.
func (s *Service) ApproveWithdrawal(ctx context.Context, requestID uint) (*models.WithdrawalRequest, string, error) {
	req, err := s.repo.GetWithdrawalRequestByID(ctx, requestID)
	if err != nil {
		return nil, "", err
	}
	if req == nil || req.Status != models.RequestStatusOpen {
		return nil, "", ErrRequestNotOpen
	}

	if req.Method == models.MethodSyriatelCash {
		if err := s.completeWithdrawal(ctx, req, nil); err != nil {
			return nil, "", err
		}
		return req, "", nil
	}

	hash, err := s.chain.SendFunds(ctx, req.WalletAddress, req.Amount)
	if err != nil || hash == "" {
		s.logger.Errorf("Failed to send %.8f USDT for request %d: %v", req.Amount, requestID, err)
		if refundErr := s.refundWithdrawal(ctx, req, "On-chain send failed"); refundErr != nil {
			return nil, "", refundErr
		}
		req.Status = models.RequestStatusRejected
		return req, "", fmt.Errorf("failed to send funds: %w", err)
	}

	if err := s.completeWithdrawal(ctx, req, &hash); err != nil {
		return nil, "", err
	}
	return req, hash, nil
}

// RejectWithdrawal refunds the reserved amount and closes the request.
func (s *Service) RejectWithdrawal(ctx context.Context, requestID uint) (*models.WithdrawalRequest, error) {
	req, err := s.repo.GetWithdrawalRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.Status != models.RequestStatusOpen {
		return nil, ErrRequestNotOpen
	}

	if err := s.refundWithdrawal(ctx, req, "Withdrawal rejected by admin"); err != nil {
		return nil, err
	}
	req.Status = models.RequestStatusRejected
	return req, nil
}

func (s *Service) completeWithdrawal(ctx context.Context, req *models.WithdrawalRequest, txHash *string) error {
	if err := s.repo.UpdateWithdrawalRequestStatus(ctx, req.ID, models.RequestStatusApproved, nil); err != nil {
		return err
	}
	req.Status = models.RequestStatusApproved

	record := &models.Transaction{
		UserID:        req.UserID,
		Type:          models.TxTypeWithdrawal,
		Amount:        req.Amount,
		Status:        models.TxStatusCompleted,
		TxHash:        txHash,
		WalletAddress: req.WalletAddress,
		Description:   withdrawalDescription(req),
	}
	if err := s.repo.CreateTransaction(ctx, record); err != nil {
		return fmt.Errorf("failed to record withdrawal: %w", err)
	}

	s.logger.Infof("Withdrawal request %d approved: %.8f USDT for user %d", req.ID, req.Amount, req.UserID)
	return nil
}

// refundWithdrawal returns the reserved amount and marks the request
// rejected inside one db transaction, so a crash between the two leaves
// nothing half-done.
func (s *Service) refundWithdrawal(ctx context.Context, req *models.WithdrawalRequest, reason string) error {
	user, err := s.repo.GetUser(ctx, req.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", req.UserID, err)
	}
	if user == nil {
		return fmt.Errorf("user %d not found", req.UserID)
	}

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return err
	}

	newBalance := utils.Round8(user.Balance + req.Amount)
	if err := s.repo.UpdateUserBalance(ctx, req.UserID, newBalance, tx); err != nil {
		s.repo.Rollback(tx)
		return fmt.Errorf("failed to refund withdrawal: %w", err)
	}
	if err := s.repo.UpdateWithdrawalRequestStatus(ctx, req.ID, models.RequestStatusRejected, tx); err != nil {
		s.repo.Rollback(tx)
		return err
	}
	if err := s.repo.Commit(tx); err != nil {
		return err
	}

	record := &models.Transaction{
		UserID:        req.UserID,
		Type:          models.TxTypeWithdrawal,
		Amount:        req.Amount,
		Status:        models.TxStatusFailed,
		WalletAddress: req.WalletAddress,
		Description:   reason,
	}
	if err := s.repo.CreateTransaction(ctx, record); err != nil {
		s.logger.Errorf("Failed to record refunded withdrawal %d: %v", req.ID, err)
	}

	s.logger.Infof("Withdrawal request %d refunded %.8f USDT to user %d: %s", req.ID, req.Amount, req.UserID, reason)
	return nil
}

func withdrawalDescription(req *models.WithdrawalRequest) string {
	if req.Method == models.MethodSyriatelCash {
		return fmt.Sprintf("Syriatel Cash withdrawal to %s", req.PhoneNumber)
	}
	return "USDT (BEP20) withdrawal"
}

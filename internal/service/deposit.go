package service

import (
	"context"
	"fmt"

	"github.com/3dxteam/usdt_bot/internal/models"
	"github.com/3dxteam/usdt_bot/utils"
)

// DepositOutcome classifies what SettleDeposit decided.
type DepositOutcome int

const (
	DepositVerified DepositOutcome = iota
	DepositRejected
	DepositError
)

type Commission struct {
	ReferrerID int64
	Amount     float64
}

type DepositResult struct {
	Outcome    DepositOutcome
	NewBalance float64
	Commission *Commission
}

// SettleDeposit verifies the claimed on-chain transfer and, when valid,
// credits the user and pays the referrer commission. Every path records a
// transaction row so the user's history reflects the attempt.
func (s *Service) SettleDeposit(ctx context.Context, userID int64, amount float64, txHash string) (*DepositResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(txHash) < MinTxHashLength {
		return &DepositResult{Outcome: DepositRejected}, s.recordFailedDeposit(ctx, userID, amount, txHash, "Transaction hash too short")
	}

	ok, err := s.chain.VerifyTransaction(ctx, txHash, amount)
	if err != nil {
		s.logger.Errorf("Failed to verify deposit tx %s for user %d: %v", txHash, userID, err)
		return &DepositResult{Outcome: DepositError},
			s.recordFailedDeposit(ctx, userID, amount, txHash, "Verification error: "+err.Error())
	}
	if !ok {
		return &DepositResult{Outcome: DepositRejected}, s.recordFailedDeposit(ctx, userID, amount, txHash, "On-chain verification failed")
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	newBalance := utils.Round8(user.Balance + amount)
	if err := s.repo.UpdateUserBalance(ctx, userID, newBalance, nil); err != nil {
		return nil, fmt.Errorf("failed to credit deposit: %w", err)
	}

	hash := txHash
	record := &models.Transaction{
		UserID:      userID,
		Type:        models.TxTypeDeposit,
		Amount:      amount,
		Status:      models.TxStatusCompleted,
		TxHash:      &hash,
		Description: "USDT (BEP20) deposit",
	}
	if err := s.repo.CreateTransaction(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record deposit: %w", err)
	}

	result := &DepositResult{Outcome: DepositVerified, NewBalance: newBalance}
	result.Commission = s.payCommission(ctx, user, amount)

	s.logger.Infof("Deposit settled for user %d: +%.8f USDT (tx %s)", userID, amount, utils.ShortHash(txHash))
	return result, nil
}

// payCommission credits the depositor's referrer. Commission failures are
// logged and swallowed; the deposit itself already settled.
func (s *Service) payCommission(ctx context.Context, depositor *models.User, amount float64) *Commission {
	if depositor.ReferredBy == "" {
		return nil
	}

	referrer, err := s.repo.GetUserByReferralCode(ctx, depositor.ReferredBy)
	if err != nil {
		s.logger.Errorf("Failed to resolve referrer %q: %v", depositor.ReferredBy, err)
		return nil
	}
	if referrer == nil || referrer.TelegramID == depositor.TelegramID {
		return nil
	}

	commission := utils.Round8(amount * CommissionPercent / 100)
	if commission <= 0 {
		return nil
	}

	newBalance := utils.Round8(referrer.Balance + commission)
	if err := s.repo.UpdateUserBalance(ctx, referrer.TelegramID, newBalance, nil); err != nil {
		s.logger.Errorf("Failed to credit commission to user %d: %v", referrer.TelegramID, err)
		return nil
	}

	fromID := depositor.TelegramID
	record := &models.Transaction{
		UserID:               referrer.TelegramID,
		Type:                 models.TxTypeReferralCommission,
		Amount:               commission,
		Status:               models.TxStatusCompleted,
		CommissionFromUserID: &fromID,
		CommissionPercentage: CommissionPercent,
		Description:          "Referral commission",
	}
	if err := s.repo.CreateTransaction(ctx, record); err != nil {
		s.logger.Errorf("Failed to record commission for user %d: %v", referrer.TelegramID, err)
	}

	return &Commission{ReferrerID: referrer.TelegramID, Amount: commission}
}

// recordFailedDeposit writes the failed row without the hash: the hash
// column is unique, and a later successful retry must be able to claim it.
func (s *Service) recordFailedDeposit(ctx context.Context, userID int64, amount float64, txHash, reason string) error {
	record := &models.Transaction{
		UserID:      userID,
		Type:        models.TxTypeDeposit,
		Amount:      amount,
		Status:      models.TxStatusFailed,
		Description: fmt.Sprintf("%s (%s)", reason, utils.ShortHash(txHash)),
	}
	if err := s.repo.CreateTransaction(ctx, record); err != nil {
		return fmt.Errorf("failed to record rejected deposit: %w", err)
	}
	return nil
}

// OpenSyriatelDeposit files a cash deposit claim for admin review. Nothing is
// credited until an admin approves it.
func (s *Service) OpenSyriatelDeposit(ctx context.Context, userID int64, amountSYP float64, processID string) (*models.DepositRequest, error) {
	if amountSYP <= 0 {
		return nil, ErrInvalidAmount
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	req := &models.DepositRequest{
		UserID:    userID,
		Username:  user.Username,
		Amount:    amountSYP,
		ProcessID: processID,
		Status:    models.RequestStatusOpen,
	}
	if err := s.repo.CreateDepositRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create deposit request: %w", err)
	}

	s.logger.Infof("Syriatel deposit request %d opened by user %d: %.0f SYP (process %s)", req.ID, userID, amountSYP, processID)
	return req, nil
}

// ApproveSyriatelDeposit converts the claimed SYP amount at the configured
// rate and credits the user. Only open requests can be approved.
func (s *Service) ApproveSyriatelDeposit(ctx context.Context, requestID uint) (*models.DepositRequest, float64, error) {
	req, err := s.repo.GetDepositRequestByID(ctx, requestID)
	if err != nil {
		return nil, 0, err
	}
	if req == nil || req.Status != models.RequestStatusOpen {
		return nil, 0, ErrRequestNotOpen
	}

	user, err := s.repo.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load user %d: %w", req.UserID, err)
	}
	if user == nil {
		return nil, 0, fmt.Errorf("user %d not found", req.UserID)
	}

	credited := utils.Round8(req.Amount / s.sypPerUSDT)
	newBalance := utils.Round8(user.Balance + credited)
	if err := s.repo.UpdateUserBalance(ctx, req.UserID, newBalance, nil); err != nil {
		return nil, 0, fmt.Errorf("failed to credit Syriatel deposit: %w", err)
	}

	record := &models.Transaction{
		UserID:      req.UserID,
		Type:        models.TxTypeDeposit,
		Amount:      credited,
		Status:      models.TxStatusCompleted,
		Description: fmt.Sprintf("Syriatel Cash deposit (%.0f SYP, process %s)", req.Amount, req.ProcessID),
	}
	if err := s.repo.CreateTransaction(ctx, record); err != nil {
		return nil, 0, fmt.Errorf("failed to record Syriatel deposit: %w", err)
	}

	if err := s.repo.UpdateDepositRequestStatus(ctx, requestID, models.RequestStatusApproved); err != nil {
		return nil, 0, err
	}
	req.Status = models.RequestStatusApproved

	if commission := s.payCommission(ctx, user, credited); commission != nil {
		s.logger.Infof("Commission %.8f USDT paid to user %d for request %d", commission.Amount, commission.ReferrerID, requestID)
	}

	s.logger.Infof("Syriatel deposit request %d approved: +%.8f USDT for user %d", requestID, credited, req.UserID)
	return req, credited, nil
}

// RejectSyriatelDeposit closes the claim without crediting anything.
func (s *Service) RejectSyriatelDeposit(ctx context.Context, requestID uint) (*models.DepositRequest, error) {
	req, err := s.repo.GetDepositRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.Status != models.RequestStatusOpen {
		return nil, ErrRequestNotOpen
	}

	if err := s.repo.UpdateDepositRequestStatus(ctx, requestID, models.RequestStatusRejected); err != nil {
		return nil, err
	}
	req.Status = models.RequestStatusRejected

	record := &models.Transaction{
		UserID:      req.UserID,
		Type:        models.TxTypeDeposit,
		Amount:      utils.Round8(req.Amount / s.sypPerUSDT),
		Status:      models.TxStatusFailed,
		Description: fmt.Sprintf("Syriatel Cash deposit rejected (process %s)", req.ProcessID),
	}
	if err := s.repo.CreateTransaction(ctx, record); err != nil {
		s.logger.Errorf("Failed to record rejected Syriatel deposit %d: %v", requestID, err)
	}

	s.logger.Infof("Syriatel deposit request %d rejected", requestID)
	return req, nil
}

// SYPToUSDT converts a Syriatel Cash amount at the configured rate.
func (s *Service) SYPToUSDT(amountSYP float64) float64 {
	return utils.Round8(amountSYP / s.sypPerUSDT)
}

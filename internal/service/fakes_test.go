package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/3dxteam/usdt_bot/config"
	"github.com/3dxteam/usdt_bot/internal/models"
	"github.com/3dxteam/usdt_bot/utils"
	"gorm.io/gorm"
)

var errTest = errors.New("forced failure")

// fakeRepo is an in-memory Repository. Reads return copies so tests see the
// same re-read semantics as the real database.
type fakeRepo struct {
	users       map[int64]*models.User
	txs         []*models.Transaction
	withdrawals map[uint]*models.WithdrawalRequest
	deposits    map[uint]*models.DepositRequest
	nextTxID    uint
	nextReqID   uint

	failCreateWithdrawal bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:       make(map[int64]*models.User),
		withdrawals: make(map[uint]*models.WithdrawalRequest),
		deposits:    make(map[uint]*models.DepositRequest),
	}
}

func (f *fakeRepo) addUser(user models.User) {
	f.users[user.TelegramID] = &user
}

func (f *fakeRepo) GetUser(_ context.Context, telegramID int64) (*models.User, error) {
	u, ok := f.users[telegramID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) GetUserByReferralCode(_ context.Context, code string) (*models.User, error) {
	for _, u := range f.users {
		if u.ReferralCode == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListReferredUsers(_ context.Context, code string) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f.users {
		if u.ReferredBy == code {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateUser(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.TelegramID]; ok {
		return fmt.Errorf("user %d already exists", user.TelegramID)
	}
	cp := *user
	cp.CreatedAt = time.Now()
	f.users[user.TelegramID] = &cp
	return nil
}

func (f *fakeRepo) UpdateUser(_ context.Context, user *models.User, _ *gorm.DB) error {
	cp := *user
	f.users[user.TelegramID] = &cp
	return nil
}

func (f *fakeRepo) UpdateUserBalance(_ context.Context, userID int64, newBalance float64, _ *gorm.DB) error {
	u, ok := f.users[userID]
	if !ok {
		return fmt.Errorf("user %d not found", userID)
	}
	u.Balance = newBalance
	return nil
}

func (f *fakeRepo) CreateTransaction(_ context.Context, tx *models.Transaction) error {
	f.nextTxID++
	tx.ID = f.nextTxID
	tx.CreatedAt = time.Now()
	cp := *tx
	f.txs = append(f.txs, &cp)
	return nil
}

func (f *fakeRepo) ListTransactions(_ context.Context, userID int64, filterField, filterValue string, limit int) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for i := len(f.txs) - 1; i >= 0 && len(out) < limit; i-- {
		tx := f.txs[i]
		if tx.UserID != userID {
			continue
		}
		switch filterField {
		case "status":
			if string(tx.Status) != filterValue {
				continue
			}
		case "type":
			if string(tx.Type) != filterValue {
				continue
			}
		}
		cp := *tx
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRepo) SumCompletedCommissions(_ context.Context, userID int64) (float64, error) {
	var sum float64
	for _, tx := range f.txs {
		if tx.UserID == userID && tx.Type == models.TxTypeReferralCommission && tx.Status == models.TxStatusCompleted {
			sum += tx.Amount
		}
	}
	return sum, nil
}

func (f *fakeRepo) FailPendingTransactions(_ context.Context, userID int64, description string) error {
	for _, tx := range f.txs {
		if tx.UserID == userID && tx.Status == models.TxStatusPending {
			tx.Status = models.TxStatusFailed
			tx.Description = description
		}
	}
	return nil
}

func (f *fakeRepo) CreateWithdrawalRequest(_ context.Context, req *models.WithdrawalRequest) error {
	if f.failCreateWithdrawal {
		return fmt.Errorf("forced create failure")
	}
	f.nextReqID++
	req.ID = f.nextReqID
	req.CreatedAt = time.Now()
	cp := *req
	f.withdrawals[req.ID] = &cp
	return nil
}

func (f *fakeRepo) GetWithdrawalRequestByID(_ context.Context, id uint) (*models.WithdrawalRequest, error) {
	req, ok := f.withdrawals[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRepo) UpdateWithdrawalRequestStatus(_ context.Context, id uint, status models.RequestStatus, _ *gorm.DB) error {
	req, ok := f.withdrawals[id]
	if !ok {
		return fmt.Errorf("withdrawal request %d not found", id)
	}
	now := time.Now()
	req.Status = status
	req.ProcessedAt = &now
	return nil
}

func (f *fakeRepo) CreateDepositRequest(_ context.Context, req *models.DepositRequest) error {
	f.nextReqID++
	req.ID = f.nextReqID
	req.CreatedAt = time.Now()
	cp := *req
	f.deposits[req.ID] = &cp
	return nil
}

func (f *fakeRepo) GetDepositRequestByID(_ context.Context, id uint) (*models.DepositRequest, error) {
	req, ok := f.deposits[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRepo) UpdateDepositRequestStatus(_ context.Context, id uint, status models.RequestStatus) error {
	req, ok := f.deposits[id]
	if !ok {
		return fmt.Errorf("deposit request %d not found", id)
	}
	now := time.Now()
	req.Status = status
	req.ProcessedAt = &now
	return nil
}

func (f *fakeRepo) BeginTransaction(_ context.Context) (*gorm.DB, error) { return nil, nil }
func (f *fakeRepo) Commit(_ *gorm.DB) error                             { return nil }
func (f *fakeRepo) Rollback(_ *gorm.DB)                                 {}

// userTransactions filters the recorded rows for assertions.
func (f *fakeRepo) userTransactions(userID int64, txType models.TransactionType) []*models.Transaction {
	var out []*models.Transaction
	for _, tx := range f.txs {
		if tx.UserID == userID && tx.Type == txType {
			out = append(out, tx)
		}
	}
	return out
}

type fakeChain struct {
	verifyOK  bool
	verifyErr error
	sendHash  string
	sendErr   error
	sentTo    []string
}

func (f *fakeChain) VerifyTransaction(_ context.Context, _ string, _ float64) (bool, error) {
	return f.verifyOK, f.verifyErr
}

func (f *fakeChain) SendFunds(_ context.Context, address string, _ float64) (string, error) {
	f.sentTo = append(f.sentTo, address)
	return f.sendHash, f.sendErr
}

func (f *fakeChain) DepositAddress(userID int64) string {
	return fmt.Sprintf("0x%040x", userID)
}

func (f *fakeChain) ValidateAddress(address string) bool {
	return strings.HasPrefix(address, "0x") && len(address) == 42
}

func newTestService(repo *fakeRepo, chain *fakeChain) *Service {
	cfg := &config.Config{SYPPerUSDT: 5000}
	return NewService(repo, chain, cfg, utils.InitLogger())
}

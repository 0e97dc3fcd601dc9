package service

import (
	"context"
	"errors"

	"github.com/3dxteam/usdt_bot/config"
	"github.com/3dxteam/usdt_bot/internal/models"
	"github.com/3dxteam/usdt_bot/utils"
	"gorm.io/gorm"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
	MinPasswordLength = 6
	MinTxHashLength   = 10

	// Referral commission on verified deposits.
	CommissionPercent = 5
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrUsernameLength    = errors.New("username length out of bounds")
	ErrUsernameCharset   = errors.New("username has invalid characters")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrPasswordTooShort  = errors.New("password too short")
	ErrRequestNotOpen    = errors.New("request no longer open")
	ErrLoyaltyCooldown   = errors.New("loyalty reward already claimed this week")
)

type Repository interface {
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*models.User, error)
	ListReferredUsers(ctx context.Context, code string) ([]*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User, tx *gorm.DB) error
	UpdateUserBalance(ctx context.Context, userID int64, newBalance float64, tx *gorm.DB) error

	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, userID int64, filterField, filterValue string, limit int) ([]*models.Transaction, error)
	SumCompletedCommissions(ctx context.Context, userID int64) (float64, error)
	FailPendingTransactions(ctx context.Context, userID int64, description string) error

	CreateWithdrawalRequest(ctx context.Context, req *models.WithdrawalRequest) error
	GetWithdrawalRequestByID(ctx context.Context, id uint) (*models.WithdrawalRequest, error)
	UpdateWithdrawalRequestStatus(ctx context.Context, id uint, status models.RequestStatus, tx *gorm.DB) error

	CreateDepositRequest(ctx context.Context, req *models.DepositRequest) error
	GetDepositRequestByID(ctx context.Context, id uint) (*models.DepositRequest, error)
	UpdateDepositRequestStatus(ctx context.Context, id uint, status models.RequestStatus) error

	BeginTransaction(ctx context.Context) (*gorm.DB, error)
	Commit(tx *gorm.DB) error
	Rollback(tx *gorm.DB)
}

// Blockchain is the black-box chain collaborator. Any method may fail on
// network errors; verification failures are reported as (false, nil).
type Blockchain interface {
	VerifyTransaction(ctx context.Context, txHash string, expectedAmount float64) (bool, error)
	SendFunds(ctx context.Context, address string, amount float64) (string, error)
	DepositAddress(userID int64) string
	ValidateAddress(address string) bool
}

type Service struct {
	repo       Repository
	chain      Blockchain
	sypPerUSDT float64
	logger     *utils.Logger
}

func NewService(repo Repository, chain Blockchain, cfg *config.Config, logger *utils.Logger) *Service {
	return &Service{
		repo:       repo,
		chain:      chain,
		sypPerUSDT: cfg.SYPPerUSDT,
		logger:     logger,
	}
}

func (s *Service) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	return s.repo.GetUser(ctx, telegramID)
}

func (s *Service) DepositAddress(userID int64) string {
	return s.chain.DepositAddress(userID)
}

func (s *Service) ValidateAddress(address string) bool {
	return s.chain.ValidateAddress(address)
}

// FailPendingTransactions clears pending rows left by interrupted flows.
// Invoked on /start; see DESIGN.md for the policy note.
func (s *Service) FailPendingTransactions(ctx context.Context, userID int64) error {
	return s.repo.FailPendingTransactions(ctx, userID, "Auto-failed pending on new session")
}

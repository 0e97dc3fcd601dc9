package models

import "time"

type TransactionType string

const (
	TxTypeDeposit            TransactionType = "deposit"
	TxTypeWithdrawal         TransactionType = "withdrawal"
	TxTypeReferralCommission TransactionType = "referral_commission"
)

type TransactionStatus string

const (
	TxStatusPending   TransactionStatus = "pending"
	TxStatusCompleted TransactionStatus = "completed"
	TxStatusFailed    TransactionStatus = "failed"
)

type RequestStatus string

const (
	RequestStatusOpen     RequestStatus = "open"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

type WithdrawalMethod string

const (
	MethodUSDTBEP20    WithdrawalMethod = "USDT_BEP20"
	MethodSyriatelCash WithdrawalMethod = "SYRIATEL_CASH"
)

type User struct {
	TelegramID   int64   `gorm:"primaryKey" json:"telegram_id"`
	Username     string  `gorm:"uniqueIndex" json:"username"`
	PasswordHash string  `gorm:"type:varchar(255)" json:"-"`
	Balance      float64 `gorm:"default:0" json:"balance"`

	ReferralCode string `gorm:"uniqueIndex" json:"referral_code"`
	// Referral code of the user who referred this one, empty when none.
	ReferredBy string `gorm:"index" json:"referred_by"`

	LoyaltyPoints      int64      `gorm:"default:0" json:"loyalty_points"`
	LastLoyaltyClaimAt *time.Time `json:"last_loyalty_claim_at"`

	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction rows are terminal records: they are written once when a flow
// completes and never updated afterwards.
type Transaction struct {
	ID     uint              `gorm:"primaryKey" json:"id"`
	UserID int64             `gorm:"index" json:"user_id"`
	Type   TransactionType   `json:"type"`
	Amount float64           `json:"amount"`
	Status TransactionStatus `gorm:"default:pending" json:"status"`

	// Nil when the transaction never touched the chain; unique across rows
	// when present.
	TxHash        *string `gorm:"uniqueIndex" json:"tx_hash,omitempty"`
	WalletAddress string  `json:"wallet_address,omitempty"`

	// Set only for referral_commission rows.
	CommissionFromUserID *int64  `json:"commission_from_user_id,omitempty"`
	CommissionPercentage float64 `json:"commission_percentage,omitempty"`

	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// WithdrawalRequest is the admin-review entity for withdrawals. The user's
// balance is debited when the request is created, not when it is approved;
// rejection or a failed send refunds that debit.
type WithdrawalRequest struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	UserID        int64            `gorm:"index" json:"user_id"`
	Username      string           `json:"username"`
	Amount        float64          `json:"amount"`
	Method        WithdrawalMethod `json:"method"`
	WalletAddress string           `json:"wallet_address,omitempty"`
	PhoneNumber   string           `json:"phone_number,omitempty"`
	Status        RequestStatus    `gorm:"default:open;index" json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	ProcessedAt   *time.Time       `json:"processed_at"`
}

// DepositRequest is the admin-review entity for manual Syriatel Cash
// deposits. Amount is in SYP; the balance is credited only on approval.
type DepositRequest struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UserID      int64         `gorm:"index" json:"user_id"`
	Username    string        `json:"username"`
	Amount      float64       `json:"amount"`
	ProcessID   string        `json:"process_id"`
	Status      RequestStatus `gorm:"default:open;index" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	ProcessedAt *time.Time    `json:"processed_at"`
}

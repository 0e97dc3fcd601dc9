package models

import "time"

// Flow identifies the single multi-step interaction a chat may have in
// progress. A session holds exactly one Flow, so "at most one flow active"
// is structural rather than a convention across independent step fields.
type Flow int

const (
	FlowNone Flow = iota
	FlowRegistration
	FlowDeposit
	FlowWithdrawal
	FlowSyriatelDeposit
	FlowSyriatelWithdrawal
)

// Step values per flow. StepNone is the shared idle sentinel.
const (
	StepNone = 0

	RegistrationStepUsername = 1
	RegistrationStepPassword = 2
	RegistrationStepReferral = 3

	DepositStepAmount       = 1
	DepositStepConfirmation = 2
	DepositStepTxHash       = 3

	WithdrawalStepAmount       = 1
	WithdrawalStepAddress      = 2
	WithdrawalStepConfirmation = 3
	WithdrawalStepProcessing   = 4

	SyriatelDepositStepAmount    = 1
	SyriatelDepositStepProcessID = 2

	SyriatelWithdrawStepAmount       = 1
	SyriatelWithdrawStepPhone        = 2
	SyriatelWithdrawStepConfirmation = 3
)

// Session is the per-chat flow state, persisted between updates. Scratch
// fields belong to the active flow only and are zeroed on Reset.
type Session struct {
	ChatID int64 `gorm:"primaryKey" json:"chat_id"`
	Flow   Flow  `json:"flow"`
	Step   int   `json:"step"`

	DepositAmount     float64 `json:"deposit_amount"`
	WithdrawalAmount  float64 `json:"withdrawal_amount"`
	WithdrawalAddress string  `json:"withdrawal_address"`

	RegUsername string `json:"reg_username"`
	RegPassword string `json:"-"`
	ReferredBy  string `json:"referred_by"`

	SyriatelAmount float64 `json:"syriatel_amount"`
	SyriatelPhone  string  `json:"syriatel_phone"`

	LastBotMessageID int `json:"last_bot_message_id"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns the idle default shape applied on first access.
func NewSession(chatID int64) *Session {
	return &Session{ChatID: chatID, Flow: FlowNone, Step: StepNone}
}

// Active reports whether any flow is mid-progress.
func (s *Session) Active() bool {
	return s.Flow != FlowNone
}

// Reset returns the session to the idle shape, keeping only the chat key.
func (s *Session) Reset() {
	*s = Session{ChatID: s.ChatID}
}

// Begin enters a flow at its first step. Callers must check Active first;
// Begin does not guard against overwriting a flow in progress.
func (s *Session) Begin(flow Flow, step int) {
	s.Reset()
	s.Flow = flow
	s.Step = step
}

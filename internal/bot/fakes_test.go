package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/3dxteam/usdt_bot/config"
	"github.com/3dxteam/usdt_bot/internal/models"
	"github.com/3dxteam/usdt_bot/internal/service"
	"github.com/3dxteam/usdt_bot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"
)

const testAdminID = int64(9000)

// fakeAPI records every outgoing request. The processing animation edits
// from a goroutine, so access is locked.
type fakeAPI struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

// messagesTo returns the text of every message sent to chatID, including
// edits.
func (f *fakeAPI) messagesTo(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			if m.ChatID == chatID {
				out = append(out, m.Text)
			}
		case tgbotapi.EditMessageTextConfig:
			if m.ChatID == chatID {
				out = append(out, m.Text)
			}
		}
	}
	return out
}

func (f *fakeAPI) lastMessageTo(chatID int64) string {
	msgs := f.messagesTo(chatID)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

type fakeSessions struct {
	sessions map[int64]*models.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[int64]*models.Session)}
}

func (f *fakeSessions) GetSession(_ context.Context, chatID int64) (*models.Session, error) {
	s, ok := f.sessions[chatID]
	if !ok {
		fresh := models.NewSession(chatID)
		f.sessions[chatID] = fresh
		s = fresh
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessions) SaveSession(_ context.Context, session *models.Session) error {
	cp := *session
	f.sessions[session.ChatID] = &cp
	return nil
}

func (f *fakeSessions) current(chatID int64) models.Session {
	s, ok := f.sessions[chatID]
	if !ok {
		return models.Session{ChatID: chatID}
	}
	return *s
}

// memRepo is an in-memory service.Repository for driving the real service
// under the bot.
type memRepo struct {
	users       map[int64]*models.User
	txs         []*models.Transaction
	withdrawals map[uint]*models.WithdrawalRequest
	deposits    map[uint]*models.DepositRequest
	nextTxID    uint
	nextReqID   uint

	failCreateTransaction bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:       make(map[int64]*models.User),
		withdrawals: make(map[uint]*models.WithdrawalRequest),
		deposits:    make(map[uint]*models.DepositRequest),
	}
}

func (r *memRepo) GetUser(_ context.Context, telegramID int64) (*models.User, error) {
	u, ok := r.users[telegramID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) GetUserByReferralCode(_ context.Context, code string) (*models.User, error) {
	for _, u := range r.users {
		if u.ReferralCode == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) ListReferredUsers(_ context.Context, code string) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.users {
		if u.ReferredBy == code {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) CreateUser(_ context.Context, user *models.User) error {
	if _, ok := r.users[user.TelegramID]; ok {
		return fmt.Errorf("user %d already exists", user.TelegramID)
	}
	cp := *user
	r.users[user.TelegramID] = &cp
	return nil
}

func (r *memRepo) UpdateUser(_ context.Context, user *models.User, _ *gorm.DB) error {
	cp := *user
	r.users[user.TelegramID] = &cp
	return nil
}

func (r *memRepo) UpdateUserBalance(_ context.Context, userID int64, newBalance float64, _ *gorm.DB) error {
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user %d not found", userID)
	}
	u.Balance = newBalance
	return nil
}

func (r *memRepo) CreateTransaction(_ context.Context, tx *models.Transaction) error {
	if r.failCreateTransaction {
		return fmt.Errorf("forced create failure")
	}
	r.nextTxID++
	tx.ID = r.nextTxID
	tx.CreatedAt = time.Now()
	cp := *tx
	r.txs = append(r.txs, &cp)
	return nil
}

func (r *memRepo) ListTransactions(_ context.Context, userID int64, filterField, filterValue string, limit int) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for i := len(r.txs) - 1; i >= 0 && len(out) < limit; i-- {
		tx := r.txs[i]
		if tx.UserID != userID {
			continue
		}
		if filterField == "status" && string(tx.Status) != filterValue {
			continue
		}
		if filterField == "type" && string(tx.Type) != filterValue {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRepo) SumCompletedCommissions(_ context.Context, userID int64) (float64, error) {
	var sum float64
	for _, tx := range r.txs {
		if tx.UserID == userID && tx.Type == models.TxTypeReferralCommission && tx.Status == models.TxStatusCompleted {
			sum += tx.Amount
		}
	}
	return sum, nil
}

func (r *memRepo) FailPendingTransactions(_ context.Context, userID int64, description string) error {
	for _, tx := range r.txs {
		if tx.UserID == userID && tx.Status == models.TxStatusPending {
			tx.Status = models.TxStatusFailed
			tx.Description = description
		}
	}
	return nil
}

func (r *memRepo) CreateWithdrawalRequest(_ context.Context, req *models.WithdrawalRequest) error {
	r.nextReqID++
	req.ID = r.nextReqID
	req.CreatedAt = time.Now()
	cp := *req
	r.withdrawals[req.ID] = &cp
	return nil
}

func (r *memRepo) GetWithdrawalRequestByID(_ context.Context, id uint) (*models.WithdrawalRequest, error) {
	req, ok := r.withdrawals[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r *memRepo) UpdateWithdrawalRequestStatus(_ context.Context, id uint, status models.RequestStatus, _ *gorm.DB) error {
	req, ok := r.withdrawals[id]
	if !ok {
		return fmt.Errorf("withdrawal request %d not found", id)
	}
	now := time.Now()
	req.Status = status
	req.ProcessedAt = &now
	return nil
}

func (r *memRepo) CreateDepositRequest(_ context.Context, req *models.DepositRequest) error {
	r.nextReqID++
	req.ID = r.nextReqID
	req.CreatedAt = time.Now()
	cp := *req
	r.deposits[req.ID] = &cp
	return nil
}

func (r *memRepo) GetDepositRequestByID(_ context.Context, id uint) (*models.DepositRequest, error) {
	req, ok := r.deposits[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r *memRepo) UpdateDepositRequestStatus(_ context.Context, id uint, status models.RequestStatus) error {
	req, ok := r.deposits[id]
	if !ok {
		return fmt.Errorf("deposit request %d not found", id)
	}
	now := time.Now()
	req.Status = status
	req.ProcessedAt = &now
	return nil
}

func (r *memRepo) BeginTransaction(_ context.Context) (*gorm.DB, error) { return nil, nil }
func (r *memRepo) Commit(_ *gorm.DB) error                             { return nil }
func (r *memRepo) Rollback(_ *gorm.DB)                                 {}

type memChain struct {
	verifyOK  bool
	verifyErr error
	sendHash  string
}

func (c *memChain) VerifyTransaction(_ context.Context, _ string, _ float64) (bool, error) {
	return c.verifyOK, c.verifyErr
}

func (c *memChain) SendFunds(_ context.Context, _ string, _ float64) (string, error) {
	return c.sendHash, nil
}

func (c *memChain) DepositAddress(userID int64) string {
	return fmt.Sprintf("0x%040x", userID)
}

func (c *memChain) ValidateAddress(address string) bool {
	return strings.HasPrefix(address, "0x") && len(address) == 42
}

type testBot struct {
	bot      *Bot
	api      *fakeAPI
	repo     *memRepo
	chain    *memChain
	sessions *fakeSessions
}

func newTestBot() *testBot {
	api := &fakeAPI{}
	repo := newMemRepo()
	chain := &memChain{}
	sessions := newFakeSessions()
	cfg := &config.Config{AdminChatID: testAdminID, SyriatelDepositNumber: "0999999999", SYPPerUSDT: 5000}
	svc := service.NewService(repo, chain, cfg, utils.InitLogger())
	return &testBot{
		bot:      NewBot(api, svc, sessions, utils.InitLogger(), cfg),
		api:      api,
		repo:     repo,
		chain:    chain,
		sessions: sessions,
	}
}

func (tb *testBot) message(userID, chatID int64, text string) {
	tb.bot.handleMessage(&tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: userID},
	})
}

func (tb *testBot) callback(userID, chatID int64, data string) {
	tb.bot.handleCallbackQuery(&tgbotapi.CallbackQuery{
		ID:   "cb",
		Data: data,
		From: &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{
			MessageID: 1,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
	})
}

func (tb *testBot) addUser(user models.User) {
	tb.repo.users[user.TelegramID] = &user
}

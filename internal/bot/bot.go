package bot

import (
	"context"
	"strings"

	"github.com/3dxteam/usdt_bot/config"
	"github.com/3dxteam/usdt_bot/internal/models"
	"github.com/3dxteam/usdt_bot/internal/service"
	"github.com/3dxteam/usdt_bot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the slice of tgbotapi.BotAPI the bot actually uses. Tests swap
// in a recording fake.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

// SessionStore persists per-chat flow state between updates.
type SessionStore interface {
	GetSession(ctx context.Context, chatID int64) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
}

type Bot struct {
	api      BotAPI
	service  *service.Service
	sessions SessionStore
	logger   *utils.Logger
	config   *config.Config
}

func NewBot(
	api BotAPI,
	svc *service.Service,
	sessions SessionStore,
	logger *utils.Logger,
	config *config.Config,
) *Bot {
	return &Bot{
		api:      api,
		service:  svc,
		sessions: sessions,
		logger:   logger,
		config:   config,
	}
}

func (b *Bot) Start() {
	b.logger.Info("Starting bot...")
	updates := b.api.GetUpdatesChan(tgbotapi.NewUpdate(0))
	for update := range updates {
		b.handleUpdate(update)
	}
}

// handleUpdate dispatches one update. A panic in a handler must not take
// down the update loop.
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("Recovered from panic while handling update: %v", r)
		}
	}()

	if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
		return
	}
	if update.Message != nil {
		b.handleMessage(update.Message)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	b.logger.Debugf("Message from chat %d: %s", chatID, text)

	session, err := b.sessions.GetSession(ctx, chatID)
	if err != nil {
		b.logger.Errorf("Failed to load session for chat %d: %v", chatID, err)
		b.sendMessage(chatID, "Something went wrong. Please try again later.", nil)
		return
	}

	user, err := b.service.GetUser(ctx, msg.From.ID)
	if err != nil {
		b.logger.Errorf("Failed to get user %d: %v", msg.From.ID, err)
		b.sendMessage(chatID, "Something went wrong. Please try again later.", nil)
		return
	}

	if text == "/start" || strings.HasPrefix(text, "/start ") {
		payload := strings.TrimSpace(strings.TrimPrefix(text, "/start"))
		b.handleStart(ctx, msg.From.ID, chatID, user, session, payload)
		return
	}
	if text == "/cancel" || text == btnCancel {
		b.cancelFlow(ctx, chatID, user, session)
		return
	}

	if session.Active() {
		if isMenuButton(text) {
			b.sendMessage(chatID, "⏳ You already have an operation in progress. Finish it or tap ❌ Cancel first.", nil)
			return
		}
		b.continueFlow(ctx, msg, user, session)
		return
	}

	if user == nil {
		switch text {
		case btnRegister, "/register":
			b.startRegistration(ctx, chatID, session)
		default:
			b.sendMessage(chatID, "You need an account first. Tap the button below to register.", registerMenu())
		}
		return
	}

	switch text {
	case btnDeposit:
		b.startDeposit(ctx, chatID, session)
	case btnWithdraw:
		b.startWithdrawal(ctx, chatID, user, session)
	case btnSyriatelDeposit:
		b.startSyriatelDeposit(ctx, chatID, session)
	case btnSyriatelWithdraw:
		b.startSyriatelWithdrawal(ctx, chatID, user, session)
	case btnAccount:
		b.handleAccount(ctx, chatID, user)
	case btnHistory:
		b.handleHistory(ctx, chatID)
	case btnReferral:
		b.handleReferral(ctx, chatID, user)
	case btnLoyalty:
		b.handleLoyalty(ctx, chatID, user)
	default:
		b.sendMessage(chatID, "Unknown command. Use the menu below.", mainMenu())
	}
}

// handleStart resets any flow in progress and fails transactions left
// pending by an interrupted one, then shows the entry point. A deep-link
// payload is treated as a referral code for users who are not registered yet.
func (b *Bot) handleStart(ctx context.Context, userID, chatID int64, user *models.User, session *models.Session, payload string) {
	session.Reset()

	if user == nil {
		welcome := "👋 Welcome! Tap the button below to create your account."
		if payload != "" {
			referrer, err := b.service.FindReferrer(ctx, payload, userID)
			if err != nil {
				b.logger.Errorf("Failed to resolve deep-link referral %q: %v", payload, err)
			} else if referrer != nil {
				session.ReferredBy = referrer.ReferralCode
				welcome = "👋 Welcome! Your referral code was applied. Tap the button below to create your account."
			}
		}
		b.saveSession(ctx, session)
		b.sendMessage(chatID, welcome, registerMenu())
		return
	}

	b.saveSession(ctx, session)

	if err := b.service.FailPendingTransactions(ctx, user.TelegramID); err != nil {
		b.logger.Errorf("Failed to fail pending transactions for user %d: %v", user.TelegramID, err)
	}

	b.sendMessage(chatID, "👋 Welcome back! Use the menu to manage your balance.", mainMenu())
}

func (b *Bot) cancelFlow(ctx context.Context, chatID int64, user *models.User, session *models.Session) {
	if !session.Active() {
		b.sendMessage(chatID, "Nothing to cancel.", b.menuFor(user))
		return
	}

	session.Reset()
	if err := b.sessions.SaveSession(ctx, session); err != nil {
		b.logger.Errorf("Failed to save session for chat %d: %v", chatID, err)
	}
	b.sendMessage(chatID, "❌ Operation cancelled.", b.menuFor(user))
}

// continueFlow routes a text message to the step handler of the active flow.
func (b *Bot) continueFlow(ctx context.Context, msg *tgbotapi.Message, user *models.User, session *models.Session) {
	switch session.Flow {
	case models.FlowRegistration:
		b.handleRegistrationStep(ctx, msg, session)
	case models.FlowDeposit:
		b.handleDepositStep(ctx, msg, user, session)
	case models.FlowWithdrawal:
		b.handleWithdrawalStep(ctx, msg, user, session)
	case models.FlowSyriatelDeposit:
		b.handleSyriatelDepositStep(ctx, msg, user, session)
	case models.FlowSyriatelWithdrawal:
		b.handleSyriatelWithdrawalStep(ctx, msg, user, session)
	default:
		b.logger.Errorf("Session for chat %d has unknown flow %d, resetting", session.ChatID, session.Flow)
		session.Reset()
		b.saveSession(ctx, session)
		b.sendMessage(msg.Chat.ID, "Use the menu below.", b.menuFor(user))
	}
}

func (b *Bot) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	ctx := context.Background()
	data := callback.Data

	b.logger.Debugf("Callback from user %d: %s", callback.From.ID, data)

	switch {
	case strings.HasPrefix(data, "wd_") || strings.HasPrefix(data, "sd_"):
		if !b.isAdmin(callback.From.ID) {
			b.answerCallback(callback.ID, "This action is for the administrator only.")
			return
		}
		b.handleAdminCallback(ctx, callback)
	case strings.HasPrefix(data, "history:"):
		b.handleHistoryCallback(ctx, callback)
	default:
		b.handleFlowCallback(ctx, callback)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return userID == b.config.AdminChatID
}

func (b *Bot) menuFor(user *models.User) tgbotapi.ReplyKeyboardMarkup {
	if user == nil {
		return registerMenu()
	}
	return mainMenu()
}

func (b *Bot) saveSession(ctx context.Context, session *models.Session) {
	if err := b.sessions.SaveSession(ctx, session); err != nil {
		b.logger.Errorf("Failed to save session for chat %d: %v", session.ChatID, err)
	}
}

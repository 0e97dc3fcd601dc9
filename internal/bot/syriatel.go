package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/3dxteam/usdt_bot/internal/models"
	"github.com/3dxteam/usdt_bot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	syriatelPhonePattern = regexp.MustCompile(`^09\d{8}$`)
	processIDPattern     = regexp.MustCompile(`^\d{5,}$`)
)

// --- Syriatel Cash deposit ---

func (b *Bot) startSyriatelDeposit(ctx context.Context, chatID int64, session *models.Session) {
	session.Begin(models.FlowSyriatelDeposit, models.SyriatelDepositStepAmount)
	b.saveSession(ctx, session)
	b.sendMessage(chatID,
		fmt.Sprintf("📱 Transfer the amount via Syriatel Cash to:\n\n`%s`\n\nHow many SYP did you send?",
			b.config.SyriatelDepositNumber),
		cancelMenu())
}

func (b *Bot) handleSyriatelDepositStep(ctx context.Context, msg *tgbotapi.Message, user *models.User, session *models.Session) {
	chatID := msg.Chat.ID

	switch session.Step {
	case models.SyriatelDepositStepAmount:
		amount, err := parseAmount(msg.Text)
		if err != nil || amount <= 0 {
			b.sendMessage(chatID, "❌ Invalid amount. Enter a positive number of SYP.", cancelMenu())
			return
		}
		session.SyriatelAmount = amount
		session.Step = models.SyriatelDepositStepProcessID
		b.saveSession(ctx, session)
		b.sendMessage(chatID, "Now send the Syriatel Cash process number from the transfer receipt:", cancelMenu())

	case models.SyriatelDepositStepProcessID:
		processID := msg.Text
		if !processIDPattern.MatchString(processID) {
			b.sendMessage(chatID, "❌ The process number is digits only, at least 5 of them.", cancelMenu())
			return
		}

		req, err := b.service.OpenSyriatelDeposit(ctx, user.TelegramID, session.SyriatelAmount, processID)
		if err != nil {
			b.logger.Errorf("Failed to open Syriatel deposit for user %d: %v", user.TelegramID, err)
			b.sendMessage(chatID, "Something went wrong. Please try again later.", cancelMenu())
			return
		}

		session.Reset()
		b.saveSession(ctx, session)

		credited := b.service.SYPToUSDT(req.Amount)
		b.sendMessage(chatID,
			fmt.Sprintf("✅ Deposit request #%d filed for `%.0f` SYP (≈ `%.8f` USDT).\n\n"+
				"You will be notified once it is reviewed.", req.ID, req.Amount, credited),
			mainMenu())
		b.notifyAdminSyriatelDeposit(req, credited)

	default:
		b.logger.Errorf("Syriatel deposit session for chat %d at unknown step %d", chatID, session.Step)
		session.Reset()
		b.saveSession(ctx, session)
		b.sendMessage(chatID, "Something went wrong. Please start over.", mainMenu())
	}
}

func (b *Bot) notifyAdminSyriatelDeposit(req *models.DepositRequest, credited float64) {
	text := fmt.Sprintf(
		"🆕 Syriatel Cash deposit request #%d\n\n"+
			"👤 User: `%s` (`%d`)\n"+
			"💰 Amount: `%.0f` SYP (≈ `%.8f` USDT)\n"+
			"🧾 Process number: `%s`\n"+
			"🕐 Filed: %s",
		req.ID, req.Username, req.UserID, req.Amount, credited, req.ProcessID,
		req.CreatedAt.Format("2006-01-02 15:04:05"),
	)

	msg := tgbotapi.NewMessage(b.config.AdminChatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = adminReviewKeyboard(cbSyriatelApprove, cbSyriatelReject, req.ID)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Errorf("Failed to notify admin about Syriatel deposit %d: %v", req.ID, err)
	}
}

// --- Syriatel Cash withdrawal ---

func (b *Bot) startSyriatelWithdrawal(ctx context.Context, chatID int64, user *models.User, session *models.Session) {
	if user.Balance <= 0 {
		b.sendMessage(chatID, "❌ Your balance is empty, there is nothing to withdraw.", mainMenu())
		return
	}

	session.Begin(models.FlowSyriatelWithdrawal, models.SyriatelWithdrawStepAmount)
	b.saveSession(ctx, session)
	b.sendMessage(chatID,
		fmt.Sprintf("💰 Your balance: `%.8f` USDT\n\nHow much USDT do you want to withdraw via Syriatel Cash?", user.Balance),
		cancelMenu())
}

func (b *Bot) handleSyriatelWithdrawalStep(ctx context.Context, msg *tgbotapi.Message, user *models.User, session *models.Session) {
	chatID := msg.Chat.ID

	switch session.Step {
	case models.SyriatelWithdrawStepAmount:
		amount, err := parseAmount(msg.Text)
		if err != nil || amount <= 0 {
			b.sendMessage(chatID, "❌ Invalid amount. Enter a positive number.", cancelMenu())
			return
		}
		if amount > user.Balance {
			b.sendMessage(chatID,
				fmt.Sprintf("❌ Insufficient funds. Your balance is `%.8f` USDT.", user.Balance),
				cancelMenu())
			return
		}
		session.SyriatelAmount = amount
		session.Step = models.SyriatelWithdrawStepPhone
		b.saveSession(ctx, session)
		b.sendMessage(chatID, "Send the Syriatel number to receive the cash (09 followed by 8 digits):", cancelMenu())

	case models.SyriatelWithdrawStepPhone:
		phone := msg.Text
		if !syriatelPhonePattern.MatchString(phone) {
			b.sendMessage(chatID, "❌ That is not a valid Syriatel number. Format: `09` followed by 8 digits.", cancelMenu())
			return
		}
		session.SyriatelPhone = phone
		session.Step = models.SyriatelWithdrawStepConfirmation
		b.saveSession(ctx, session)
		b.sendSyriatelWithdrawalSummary(chatID, session)

	case models.SyriatelWithdrawStepConfirmation:
		b.sendSyriatelWithdrawalSummary(chatID, session)

	default:
		b.logger.Errorf("Syriatel withdrawal session for chat %d at unknown step %d", chatID, session.Step)
		session.Reset()
		b.saveSession(ctx, session)
		b.sendMessage(chatID, "Something went wrong. Please start over.", mainMenu())
	}
}

func (b *Bot) sendSyriatelWithdrawalSummary(chatID int64, session *models.Session) {
	text := fmt.Sprintf(
		"Confirm your withdrawal:\n\n"+
			"💰 Amount: `%.8f` USDT\n"+
			"📱 Syriatel number: `%s`\n\n"+
			"The amount is deducted from your balance immediately and refunded if the request is rejected.",
		session.SyriatelAmount, session.SyriatelPhone,
	)
	b.sendMessage(chatID, text, confirmKeyboard("✅ Confirm", cbSyriatelWDConfirm))
}

func (b *Bot) confirmSyriatelWithdrawal(ctx context.Context, callback *tgbotapi.CallbackQuery, user *models.User, session *models.Session) {
	chatID := callback.Message.Chat.ID

	req, newBalance, err := b.service.ReserveWithdrawal(ctx, user.TelegramID, session.SyriatelAmount, models.MethodSyriatelCash, session.SyriatelPhone)
	if err != nil {
		session.Reset()
		b.saveSession(ctx, session)
		if errors.Is(err, service.ErrInsufficientFunds) {
			b.sendMessage(chatID, "❌ Insufficient funds. Your balance changed since you started.", mainMenu())
			return
		}
		b.logger.Errorf("Failed to reserve Syriatel withdrawal for user %d: %v", user.TelegramID, err)
		b.sendMessage(chatID, "Something went wrong. Please try again later.", mainMenu())
		return
	}

	session.Reset()
	b.saveSession(ctx, session)

	b.sendMessage(chatID,
		fmt.Sprintf("✅ Withdrawal request #%d filed.\n\n💰 New balance: `%.8f` USDT\n\n"+
			"You will be notified once it is reviewed.", req.ID, newBalance),
		mainMenu())
	b.notifyAdminWithdrawal(req)
}

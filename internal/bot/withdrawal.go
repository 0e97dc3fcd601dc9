package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/3dxteam/usdt_bot/internal/models"
	"github.com/3dxteam/usdt_bot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) startWithdrawal(ctx context.Context, chatID int64, user *models.User, session *models.Session) {
	if user.Balance <= 0 {
		b.sendMessage(chatID, "❌ Your balance is empty, there is nothing to withdraw.", mainMenu())
		return
	}

	session.Begin(models.FlowWithdrawal, models.WithdrawalStepAmount)
	b.saveSession(ctx, session)
	b.sendMessage(chatID,
		fmt.Sprintf("💰 Your balance: `%.8f` USDT\n\nHow much do you want to withdraw?", user.Balance),
		cancelMenu())
}

func (b *Bot) handleWithdrawalStep(ctx context.Context, msg *tgbotapi.Message, user *models.User, session *models.Session) {
	chatID := msg.Chat.ID

	switch session.Step {
	case models.WithdrawalStepAmount:
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
		session.WithdrawalAmount = amount
		session.Step = models.WithdrawalStepAddress
		b.saveSession(ctx, session)
		b.sendMessage(chatID, "Send the BEP20 wallet address to withdraw to:", cancelMenu())

	case models.WithdrawalStepAddress:
		address := msg.Text
		if !b.service.ValidateAddress(address) {
			b.sendMessage(chatID, "❌ That is not a valid BEP20 address. It starts with `0x` followed by 40 hex characters.", cancelMenu())
			return
		}
		session.WithdrawalAddress = address
		session.Step = models.WithdrawalStepConfirmation
		b.saveSession(ctx, session)
		b.sendWithdrawalSummary(chatID, session)

	case models.WithdrawalStepConfirmation:
		// Waiting on the inline button; text just gets the summary again.
		b.sendWithdrawalSummary(chatID, session)

	case models.WithdrawalStepProcessing:
		b.sendMessage(chatID, "⏳ Your withdrawal is already being processed.", nil)

	default:
		b.logger.Errorf("Withdrawal session for chat %d at unknown step %d", chatID, session.Step)
		session.Reset()
		b.saveSession(ctx, session)
		b.sendMessage(chatID, "Something went wrong. Please start over.", mainMenu())
	}
}

func (b *Bot) sendWithdrawalSummary(chatID int64, session *models.Session) {
	text := fmt.Sprintf(
		"Confirm your withdrawal:\n\n"+
			"💰 Amount: `%.8f` USDT\n"+
			"💳 Address: `%s`\n\n"+
			"The amount is deducted from your balance immediately and refunded if the request is rejected.",
		session.WithdrawalAmount, session.WithdrawalAddress,
	)
	b.sendMessage(chatID, text, confirmKeyboard("✅ Confirm", cbWithdrawConfirm))
}

// confirmWithdrawal runs on the inline confirm button: reserve the funds,
// file the request and hand it to the admin.
func (b *Bot) confirmWithdrawal(ctx context.Context, callback *tgbotapi.CallbackQuery, user *models.User, session *models.Session) {
	chatID := callback.Message.Chat.ID

	session.Step = models.WithdrawalStepProcessing
	b.saveSession(ctx, session)

	req, newBalance, err := b.service.ReserveWithdrawal(ctx, user.TelegramID, session.WithdrawalAmount, models.MethodUSDTBEP20, session.WithdrawalAddress)
	if err != nil {
		session.Reset()
		b.saveSession(ctx, session)
		if errors.Is(err, service.ErrInsufficientFunds) {
			b.sendMessage(chatID, "❌ Insufficient funds. Your balance changed since you started.", mainMenu())
			return
		}
		b.logger.Errorf("Failed to reserve withdrawal for user %d: %v", user.TelegramID, err)
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

func (b *Bot) notifyAdminWithdrawal(req *models.WithdrawalRequest) {
	var destination string
	if req.Method == models.MethodSyriatelCash {
		destination = fmt.Sprintf("📱 Syriatel number: `%s`", req.PhoneNumber)
	} else {
		destination = fmt.Sprintf("💳 Address: `%s`", req.WalletAddress)
	}

	text := fmt.Sprintf(
		"🆕 Withdrawal request #%d\n\n"+
			"👤 User: `%s` (`%d`)\n"+
			"💰 Amount: `%.8f` USDT\n"+
			"%s\n"+
			"🕐 Filed: %s",
		req.ID, req.Username, req.UserID, req.Amount, destination,
		req.CreatedAt.Format("2006-01-02 15:04:05"),
	)

	msg := tgbotapi.NewMessage(b.config.AdminChatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = adminReviewKeyboard(cbWithdrawApprove, cbWithdrawReject, req.ID)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Errorf("Failed to notify admin about withdrawal %d: %v", req.ID, err)
	}
}

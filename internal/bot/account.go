package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/3dxteam/usdt_bot/internal/models"
	"github.com/3dxteam/usdt_bot/internal/service"
	"github.com/3dxteam/usdt_bot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleAccount(ctx context.Context, chatID int64, user *models.User) {
	referredBy := ""
	if user.ReferredBy != "" {
		referredBy = fmt.Sprintf("🤝 Referred by: `%s`\n", user.ReferredBy)
	}

	text := fmt.Sprintf(
		"👤 *Your account*\n\n"+
			"Username: `%s`\n"+
			"💰 Balance: `%.8f` USDT\n"+
			"🎁 Referral code: `%s`\n"+
			"%s"+
			"⭐ Loyalty points: `%d`\n\n"+
			"📥 Deposit address (BEP20):\n`%s`",
		user.Username, user.Balance, user.ReferralCode, referredBy, user.LoyaltyPoints,
		b.service.DepositAddress(user.TelegramID),
	)
	b.sendMessage(chatID, text, mainMenu())
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64) {
	b.sendMessage(chatID, "📜 Which transactions do you want to see?", historyFilterKeyboard())
}

// handleHistoryCallback renders the filtered history in place of the filter
// prompt.
func (b *Bot) handleHistoryCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	filter := service.HistoryFilter(strings.TrimPrefix(callback.Data, "history:"))

	transactions, err := b.service.TransactionHistory(ctx, callback.From.ID, filter)
	if err != nil {
		b.logger.Errorf("Failed to load history for user %d: %v", callback.From.ID, err)
		b.answerCallback(callback.ID, "Something went wrong.")
		return
	}

	b.answerCallback(callback.ID, "")
	b.editMessage(callback.Message.Chat.ID, callback.Message.MessageID, formatHistory(transactions))
}

func formatHistory(transactions []*models.Transaction) string {
	if len(transactions) == 0 {
		return "📜 No transactions yet."
	}

	var sb strings.Builder
	sb.WriteString("📜 *Your transactions*\n\n")
	for _, tx := range transactions {
		sb.WriteString(fmt.Sprintf("%s %s `%.8f` USDT | %s\n",
			statusIcon(tx.Status), typeLabel(tx.Type), tx.Amount, tx.CreatedAt.Format("2006-01-02 15:04")))
		if tx.TxHash != nil {
			sb.WriteString(fmt.Sprintf("    🔗 `%s`\n", utils.ShortHash(*tx.TxHash)))
		}
	}
	return sb.String()
}

func statusIcon(status models.TransactionStatus) string {
	switch status {
	case models.TxStatusCompleted:
		return "✅"
	case models.TxStatusFailed:
		return "❌"
	default:
		return "⏳"
	}
}

func typeLabel(txType models.TransactionType) string {
	switch txType {
	case models.TxTypeDeposit:
		return "Deposit"
	case models.TxTypeWithdrawal:
		return "Withdrawal"
	case models.TxTypeReferralCommission:
		return "Commission"
	default:
		return string(txType)
	}
}

func (b *Bot) handleReferral(ctx context.Context, chatID int64, user *models.User) {
	stats, err := b.service.ReferralSummary(ctx, user.TelegramID)
	if err != nil {
		b.logger.Errorf("Failed to load referral summary for user %d: %v", user.TelegramID, err)
		b.sendMessage(chatID, "Something went wrong. Please try again later.", mainMenu())
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎁 *Your referrals*\n\nCode: `%s`\n", stats.Code)
	if b.config.BotUsername != "" {
		fmt.Fprintf(&sb, "🔗 https://t.me/%s?start=%s\n", b.config.BotUsername, stats.Code)
	}
	fmt.Fprintf(&sb, "👥 Users referred: `%d`\n💰 Total earned: `%.8f` USDT\n",
		stats.ReferredCount, stats.TotalEarned)
	for _, username := range stats.Referred {
		fmt.Fprintf(&sb, "    • `%s`\n", username)
	}
	fmt.Fprintf(&sb, "\nShare your code and earn %d%% of every deposit your referrals make.",
		service.CommissionPercent)
	b.sendMessage(chatID, sb.String(), mainMenu())
}

func (b *Bot) handleLoyalty(ctx context.Context, chatID int64, user *models.User) {
	points, wait, err := b.service.ClaimLoyalty(ctx, user.TelegramID)
	if err != nil {
		if errors.Is(err, service.ErrLoyaltyCooldown) {
			days := int(wait.Hours()) / 24
			hours := int(wait.Hours()) % 24
			b.sendMessage(chatID,
				fmt.Sprintf("⭐ You have `%d` loyalty points.\n\nNext claim available in %dd %dh.", points, days, hours),
				mainMenu())
			return
		}
		b.logger.Errorf("Failed to claim loyalty for user %d: %v", user.TelegramID, err)
		b.sendMessage(chatID, "Something went wrong. Please try again later.", mainMenu())
		return
	}

	b.sendMessage(chatID,
		fmt.Sprintf("⭐ Weekly loyalty points claimed!\n\nYou now have `%d` points.", points),
		mainMenu())
}

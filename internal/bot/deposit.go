package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/3dxteam/usdt_bot/internal/models"
	"github.com/3dxteam/usdt_bot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// parseAmount accepts both decimal separators.
func parseAmount(text string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(strings.TrimSpace(text), ",", ".", -1), 64)
}

func (b *Bot) startDeposit(ctx context.Context, chatID int64, session *models.Session) {
	session.Begin(models.FlowDeposit, models.DepositStepAmount)
	b.saveSession(ctx, session)
	b.sendMessage(chatID, "💰 How much USDT do you want to deposit?", amountMenu())
}

func (b *Bot) handleDepositStep(ctx context.Context, msg *tgbotapi.Message, user *models.User, session *models.Session) {
	chatID := msg.Chat.ID

	switch session.Step {
	case models.DepositStepAmount:
		amount, err := parseAmount(msg.Text)
		if err != nil || amount <= 0 {
			b.sendMessage(chatID, "❌ Invalid amount. Enter a positive number.", cancelMenu())
			return
		}
		session.DepositAmount = amount
		session.Step = models.DepositStepConfirmation
		b.saveSession(ctx, session)
		b.sendDepositInstructions(chatID, user, amount)

	case models.DepositStepConfirmation:
		// Waiting on the inline button; text just gets the prompt again.
		b.sendDepositInstructions(chatID, user, session.DepositAmount)

	case models.DepositStepTxHash:
		b.settleDeposit(ctx, msg, user, session)

	default:
		b.logger.Errorf("Deposit session for chat %d at unknown step %d", chatID, session.Step)
		session.Reset()
		b.saveSession(ctx, session)
		b.sendMessage(chatID, "Something went wrong. Please start over.", mainMenu())
	}
}

func (b *Bot) sendDepositInstructions(chatID int64, user *models.User, amount float64) {
	address := b.service.DepositAddress(user.TelegramID)
	text := fmt.Sprintf(
		"Send `%.8f` USDT (BEP20) to your deposit address:\n\n`%s`\n\n"+
			"When the transfer is done, tap the button below.",
		amount, address,
	)
	b.sendMessage(chatID, text, confirmKeyboard("✅ I sent it", cbDepositSent))
}

func (b *Bot) settleDeposit(ctx context.Context, msg *tgbotapi.Message, user *models.User, session *models.Session) {
	chatID := msg.Chat.ID
	txHash := strings.TrimSpace(msg.Text)

	if len(txHash) < service.MinTxHashLength {
		b.sendMessage(chatID, "❌ That does not look like a transaction hash. Paste the full hash.", cancelMenu())
		return
	}

	stop := b.startProcessingAnimation(chatID, "🔍 Verifying your transaction")
	result, err := b.service.SettleDeposit(ctx, user.TelegramID, session.DepositAmount, txHash)
	if err != nil {
		// Storage failures must not leave the flow resumable: a credited
		// deposit retried here would be credited twice.
		stop("Something went wrong. Contact support if your balance looks wrong.")
		b.logger.Errorf("Failed to settle deposit for user %d: %v", user.TelegramID, err)
		session.Reset()
		b.saveSession(ctx, session)
		b.sendMessage(chatID, "Use the menu below.", mainMenu())
		return
	}

	switch result.Outcome {
	case service.DepositVerified:
		stop(fmt.Sprintf("✅ Deposit confirmed! `%.8f` USDT credited.\n\n💰 New balance: `%.8f` USDT.",
			session.DepositAmount, result.NewBalance))
		if result.Commission != nil {
			b.sendMessage(result.Commission.ReferrerID,
				fmt.Sprintf("🎁 You earned `%.8f` USDT referral commission!", result.Commission.Amount), nil)
		}
		session.Reset()
		b.saveSession(ctx, session)
		b.sendMessage(chatID, "Use the menu below.", mainMenu())

	case service.DepositRejected:
		stop("❌ The transaction could not be verified. The deposit was not credited.")
		session.Reset()
		b.saveSession(ctx, session)
		b.sendMessage(chatID, "Check the hash and amount, then start a new deposit.", mainMenu())

	case service.DepositError:
		stop("⚠️ The transaction could not be verified right now. Nothing was credited; start a new deposit to try again.")
		session.Reset()
		b.saveSession(ctx, session)
		b.sendMessage(chatID, "Use the menu below.", mainMenu())
	}
}

package bot

import (
	"context"

	"github.com/3dxteam/usdt_bot/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleFlowCallback routes the user-facing inline buttons. Buttons from
// messages older than the current session state are answered as expired
// instead of acting on stale scratch data.
func (b *Bot) handleFlowCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID

	session, err := b.sessions.GetSession(ctx, chatID)
	if err != nil {
		b.logger.Errorf("Failed to load session for chat %d: %v", chatID, err)
		b.answerCallback(callback.ID, "Something went wrong.")
		return
	}

	user, err := b.service.GetUser(ctx, callback.From.ID)
	if err != nil {
		b.logger.Errorf("Failed to get user %d: %v", callback.From.ID, err)
		b.answerCallback(callback.ID, "Something went wrong.")
		return
	}

	b.clearInlineKeyboard(chatID, callback.Message.MessageID)

	switch callback.Data {
	case cbFlowCancel:
		b.answerCallback(callback.ID, "")
		b.cancelFlow(ctx, chatID, user, session)

	case cbDepositSent:
		if user == nil || session.Flow != models.FlowDeposit || session.Step != models.DepositStepConfirmation {
			b.expiredButton(callback)
			return
		}
		b.answerCallback(callback.ID, "")
		session.Step = models.DepositStepTxHash
		b.saveSession(ctx, session)
		b.sendMessage(chatID, "Paste the transaction hash so we can verify the transfer:", cancelMenu())

	case cbWithdrawConfirm:
		if user == nil || session.Flow != models.FlowWithdrawal || session.Step != models.WithdrawalStepConfirmation {
			b.expiredButton(callback)
			return
		}
		b.answerCallback(callback.ID, "")
		b.confirmWithdrawal(ctx, callback, user, session)

	case cbSyriatelWDConfirm:
		if user == nil || session.Flow != models.FlowSyriatelWithdrawal || session.Step != models.SyriatelWithdrawStepConfirmation {
			b.expiredButton(callback)
			return
		}
		b.answerCallback(callback.ID, "")
		b.confirmSyriatelWithdrawal(ctx, callback, user, session)

	default:
		b.logger.Debugf("Unknown callback data from chat %d: %s", chatID, callback.Data)
		b.expiredButton(callback)
	}
}

func (b *Bot) expiredButton(callback *tgbotapi.CallbackQuery) {
	b.answerCallback(callback.ID, "This button has expired.")
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/3dxteam/usdt_bot/internal/models"
	"github.com/3dxteam/usdt_bot/internal/service"
	"github.com/3dxteam/usdt_bot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleAdminCallback processes the approve/reject buttons on review
// notifications. The callback data is "<action>:<request id>".
func (b *Bot) handleAdminCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	action, idStr, found := strings.Cut(callback.Data, ":")
	if !found {
		b.logger.Errorf("Malformed admin callback data: %s", callback.Data)
		b.answerCallback(callback.ID, "Malformed button data.")
		return
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		b.logger.Errorf("Invalid request id in admin callback %q: %v", callback.Data, err)
		b.answerCallback(callback.ID, "Malformed button data.")
		return
	}
	requestID := uint(id)

	switch action {
	case cbWithdrawApprove:
		b.approveWithdrawal(ctx, callback, requestID)
	case cbWithdrawReject:
		b.rejectWithdrawal(ctx, callback, requestID)
	case cbSyriatelApprove:
		b.approveSyriatelDeposit(ctx, callback, requestID)
	case cbSyriatelReject:
		b.rejectSyriatelDeposit(ctx, callback, requestID)
	default:
		b.answerCallback(callback.ID, "Unknown action.")
	}
}

func (b *Bot) approveWithdrawal(ctx context.Context, callback *tgbotapi.CallbackQuery, requestID uint) {
	chatID := callback.Message.Chat.ID
	b.answerCallback(callback.ID, "")
	b.clearInlineKeyboard(chatID, callback.Message.MessageID)

	stop := b.startProcessingAnimation(chatID, fmt.Sprintf("⏳ Processing withdrawal #%d", requestID))

	req, txHash, err := b.service.ApproveWithdrawal(ctx, requestID)
	if err != nil {
		if errors.Is(err, service.ErrRequestNotOpen) {
			stop(fmt.Sprintf("ℹ️ Request #%d is no longer open.", requestID))
			return
		}
		if req != nil && req.Status == models.RequestStatusRejected {
			// Send failed, the user was refunded.
			stop(fmt.Sprintf("❌ On-chain send failed for request #%d. The user was refunded.", requestID))
			b.sendMessage(req.UserID,
				fmt.Sprintf("⚠️ Your withdrawal #%d could not be sent. `%.8f` USDT was returned to your balance.",
					req.ID, req.Amount), nil)
			return
		}
		b.logger.Errorf("Failed to approve withdrawal %d: %v", requestID, err)
		stop(fmt.Sprintf("❌ Failed to process request #%d: %v", requestID, err))
		return
	}

	if req.Method == models.MethodSyriatelCash {
		stop(fmt.Sprintf("✅ Request #%d approved. Pay `%.8f` USDT worth of SYP to `%s`.",
			req.ID, req.Amount, req.PhoneNumber))
		b.sendMessage(req.UserID,
			fmt.Sprintf("✅ Your withdrawal #%d was approved! The cash is on its way to `%s`.",
				req.ID, req.PhoneNumber), nil)
		return
	}

	stop(fmt.Sprintf("✅ Request #%d approved and sent.\n\n🔗 Tx: `%s`", req.ID, txHash))
	b.sendMessage(req.UserID,
		fmt.Sprintf("✅ Your withdrawal #%d was sent!\n\n💰 Amount: `%.8f` USDT\n🔗 Tx: `%s`",
			req.ID, req.Amount, utils.ShortHash(txHash)), nil)
}

func (b *Bot) rejectWithdrawal(ctx context.Context, callback *tgbotapi.CallbackQuery, requestID uint) {
	chatID := callback.Message.Chat.ID
	b.answerCallback(callback.ID, "")
	b.clearInlineKeyboard(chatID, callback.Message.MessageID)

	req, err := b.service.RejectWithdrawal(ctx, requestID)
	if err != nil {
		if errors.Is(err, service.ErrRequestNotOpen) {
			b.sendMessage(chatID, fmt.Sprintf("ℹ️ Request #%d is no longer open.", requestID), nil)
			return
		}
		b.logger.Errorf("Failed to reject withdrawal %d: %v", requestID, err)
		b.sendMessage(chatID, fmt.Sprintf("❌ Failed to reject request #%d: %v", requestID, err), nil)
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("❌ Request #%d rejected, the user was refunded.", requestID), nil)
	b.sendMessage(req.UserID,
		fmt.Sprintf("❌ Your withdrawal #%d was rejected. `%.8f` USDT was returned to your balance.",
			req.ID, req.Amount), nil)
}

func (b *Bot) approveSyriatelDeposit(ctx context.Context, callback *tgbotapi.CallbackQuery, requestID uint) {
	chatID := callback.Message.Chat.ID
	b.answerCallback(callback.ID, "")
	b.clearInlineKeyboard(chatID, callback.Message.MessageID)

	req, credited, err := b.service.ApproveSyriatelDeposit(ctx, requestID)
	if err != nil {
		if errors.Is(err, service.ErrRequestNotOpen) {
			b.sendMessage(chatID, fmt.Sprintf("ℹ️ Request #%d is no longer open.", requestID), nil)
			return
		}
		b.logger.Errorf("Failed to approve Syriatel deposit %d: %v", requestID, err)
		b.sendMessage(chatID, fmt.Sprintf("❌ Failed to approve request #%d: %v", requestID, err), nil)
		return
	}

	b.sendMessage(chatID,
		fmt.Sprintf("✅ Request #%d approved, `%.8f` USDT credited to `%s`.", req.ID, credited, req.Username), nil)
	b.sendMessage(req.UserID,
		fmt.Sprintf("✅ Your Syriatel Cash deposit was confirmed!\n\n💰 `%.8f` USDT credited to your balance.", credited),
		nil)
}

func (b *Bot) rejectSyriatelDeposit(ctx context.Context, callback *tgbotapi.CallbackQuery, requestID uint) {
	chatID := callback.Message.Chat.ID
	b.answerCallback(callback.ID, "")
	b.clearInlineKeyboard(chatID, callback.Message.MessageID)

	req, err := b.service.RejectSyriatelDeposit(ctx, requestID)
	if err != nil {
		if errors.Is(err, service.ErrRequestNotOpen) {
			b.sendMessage(chatID, fmt.Sprintf("ℹ️ Request #%d is no longer open.", requestID), nil)
			return
		}
		b.logger.Errorf("Failed to reject Syriatel deposit %d: %v", requestID, err)
		b.sendMessage(chatID, fmt.Sprintf("❌ Failed to reject request #%d: %v", requestID, err), nil)
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("❌ Request #%d rejected.", req.ID), nil)
	b.sendMessage(req.UserID,
		fmt.Sprintf("❌ Your Syriatel Cash deposit (process `%s`) could not be confirmed. Nothing was credited.",
			req.ProcessID), nil)
}

package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func callbackData(prefix string, requestID uint) string {
	return fmt.Sprintf("%s:%d", prefix, requestID)
}

// Main menu button labels. The message router matches on these exact
// strings, so they live in one place.
const (
	btnRegister = "📝 Register"

	btnDeposit          = "💰 Deposit USDT"
	btnWithdraw         = "📤 Withdraw USDT"
	btnSyriatelDeposit  = "📱 Syriatel Cash Deposit"
	btnSyriatelWithdraw = "📱 Syriatel Cash Withdraw"
	btnAccount          = "👤 My Account"
	btnHistory          = "📜 History"
	btnReferral         = "🎁 Referrals"
	btnLoyalty          = "⭐ Loyalty"

	btnCancel = "❌ Cancel"
)

// Callback data values. Admin review buttons carry the request id after the
// colon; the rest are fixed.
const (
	cbDepositSent       = "deposit_sent"
	cbWithdrawConfirm   = "withdraw_confirm"
	cbSyriatelWDConfirm = "syrwd_confirm"
	cbFlowCancel        = "flow_cancel"

	cbWithdrawApprove = "wd_approve"
	cbWithdrawReject  = "wd_reject"
	cbSyriatelApprove = "sd_approve"
	cbSyriatelReject  = "sd_reject"
)

// isMenuButton reports whether text is one of the menu labels. Flow step
// handlers never see these; a label pressed mid-flow gets an "operation in
// progress" reply instead of an input-validation complaint.
func isMenuButton(text string) bool {
	switch text {
	case btnRegister, btnDeposit, btnWithdraw, btnSyriatelDeposit, btnSyriatelWithdraw,
		btnAccount, btnHistory, btnReferral, btnLoyalty:
		return true
	}
	return false
}

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDeposit),
			tgbotapi.NewKeyboardButton(btnWithdraw),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSyriatelDeposit),
			tgbotapi.NewKeyboardButton(btnSyriatelWithdraw),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAccount),
			tgbotapi.NewKeyboardButton(btnHistory),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnReferral),
			tgbotapi.NewKeyboardButton(btnLoyalty),
		),
	)
}

func registerMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRegister),
		),
	)
}

// amountMenu offers quick-pick deposit amounts; free text still works.
func amountMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("10"),
			tgbotapi.NewKeyboardButton("50"),
			tgbotapi.NewKeyboardButton("100"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
}

func cancelMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
}

func confirmKeyboard(confirmText, confirmData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(confirmText, confirmData),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cbFlowCancel),
		),
	)
}

func adminReviewKeyboard(approvePrefix, rejectPrefix string, requestID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", callbackData(approvePrefix, requestID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", callbackData(rejectPrefix, requestID)),
		),
	)
}

func historyFilterKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("All", "history:all"),
			tgbotapi.NewInlineKeyboardButtonData("Completed", "history:completed"),
			tgbotapi.NewInlineKeyboardButtonData("Failed", "history:failed"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Deposits", "history:deposit"),
			tgbotapi.NewInlineKeyboardButtonData("Withdrawals", "history:withdrawal"),
		),
	)
}

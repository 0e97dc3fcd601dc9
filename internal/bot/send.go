package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendMessage is the unified send helper. Markdown is the default parse
// mode, so dynamic values in messages go into backtick spans.
func (b *Bot) sendMessage(chatID int64, text string, replyMarkup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Errorf("Failed to send message: %v", err)
	}
}

// sendMessageID is sendMessage for callers that need the message id back,
// e.g. to edit it later.
func (b *Bot) sendMessageID(chatID int64, text string, replyMarkup interface{}) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Errorf("Failed to send message: %v", err)
		return 0
	}
	return sent.MessageID
}

func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Errorf("Failed to edit message %d: %v", messageID, err)
	}
}

func (b *Bot) clearInlineKeyboard(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Debugf("Failed to clear inline keyboard on message %d: %v", messageID, err)
	}
}

// answerCallback acknowledges a callback query. Telegram rejects answers to
// queries older than a few minutes; those are expected for stale buttons and
// are not worth an error log.
func (b *Bot) answerCallback(callbackID string, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		if strings.Contains(err.Error(), "query is too old") {
			b.logger.Debugf("Stale callback %s: %v", callbackID, err)
			return
		}
		b.logger.Errorf("Failed to answer callback: %v", err)
	}
}

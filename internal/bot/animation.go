package bot

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const animationInterval = 700 * time.Millisecond

// startProcessingAnimation sends a progress message and animates it until
// the returned stop function is called with the final text. Safe to call
// stop more than once; only the first call wins.
func (b *Bot) startProcessingAnimation(chatID int64, text string) func(final string) {
	messageID := b.sendMessageID(chatID, text+"...", nil)

	done := make(chan struct{})
	var once sync.Once

	if messageID != 0 {
		go func() {
			ticker := time.NewTicker(animationInterval)
			defer ticker.Stop()

			dots := 3
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					dots = dots%3 + 1
					edit := tgbotapi.NewEditMessageText(chatID, messageID, text+dotString(dots))
					if _, err := b.api.Send(edit); err != nil {
						// The message was likely finalized or deleted; stop
						// animating instead of retrying every tick.
						b.logger.Debugf("Stopping animation on message %d: %v", messageID, err)
						return
					}
				}
			}
		}()
	}

	return func(final string) {
		once.Do(func() {
			close(done)
			if messageID != 0 {
				b.editMessage(chatID, messageID, final)
			} else {
				b.sendMessage(chatID, final, nil)
			}
		})
	}
}

func dotString(n int) string {
	return "..."[:n]
}

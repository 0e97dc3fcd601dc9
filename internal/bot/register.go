package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/3dxteam/usdt_bot/internal/models"
	"github.com/3dxteam/usdt_bot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const skipReferral = "-"

func (b *Bot) startRegistration(ctx context.Context, chatID int64, session *models.Session) {
	// A deep-link referral resolved on /start survives into the flow.
	referredBy := session.ReferredBy
	session.Begin(models.FlowRegistration, models.RegistrationStepUsername)
	session.ReferredBy = referredBy
	b.saveSession(ctx, session)
	b.sendMessage(chatID,
		fmt.Sprintf("Choose a username (%d-%d characters, letters, digits and underscores):",
			service.MinUsernameLength, service.MaxUsernameLength),
		cancelMenu())
}

// handleRegistrationStep advances the registration flow one step. Invalid
// input re-prompts without moving the step.
func (b *Bot) handleRegistrationStep(ctx context.Context, msg *tgbotapi.Message, session *models.Session) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch session.Step {
	case models.RegistrationStepUsername:
		if err := b.service.ValidateUsername(ctx, text); err != nil {
			b.sendMessage(chatID, usernameError(err), cancelMenu())
			return
		}
		session.RegUsername = text
		session.Step = models.RegistrationStepPassword
		b.saveSession(ctx, session)
		b.sendMessage(chatID,
			fmt.Sprintf("Now choose a password (at least %d characters):", service.MinPasswordLength),
			cancelMenu())

	case models.RegistrationStepPassword:
		if err := b.service.ValidatePassword(text); err != nil {
			b.sendMessage(chatID,
				fmt.Sprintf("❌ Password too short. It must be at least %d characters.", service.MinPasswordLength),
				cancelMenu())
			return
		}
		session.RegPassword = text
		if session.ReferredBy != "" {
			b.finishRegistration(ctx, msg, session, session.ReferredBy)
			return
		}
		session.Step = models.RegistrationStepReferral
		b.saveSession(ctx, session)
		b.sendMessage(chatID,
			"If someone referred you, send their referral code now. Send `-` to skip.",
			cancelMenu())

	case models.RegistrationStepReferral:
		b.finishRegistration(ctx, msg, session, text)

	default:
		b.logger.Errorf("Registration session for chat %d at unknown step %d", chatID, session.Step)
		session.Reset()
		b.saveSession(ctx, session)
		b.sendMessage(chatID, "Something went wrong. Please start over.", registerMenu())
	}
}

func (b *Bot) finishRegistration(ctx context.Context, msg *tgbotapi.Message, session *models.Session, code string) {
	chatID := msg.Chat.ID

	referredBy := ""
	if code != skipReferral {
		referrer, err := b.service.FindReferrer(ctx, code, msg.From.ID)
		if err != nil {
			b.logger.Errorf("Failed to resolve referral code %q: %v", code, err)
			b.sendMessage(chatID, "Something went wrong. Please try again later.", cancelMenu())
			return
		}
		if referrer == nil {
			b.sendMessage(chatID, "❌ That referral code does not exist. Check it and try again, or send `-` to skip.", cancelMenu())
			return
		}
		referredBy = referrer.ReferralCode
	}

	user, err := b.service.RegisterUser(ctx, msg.From.ID, session.RegUsername, session.RegPassword, referredBy)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			session.Step = models.RegistrationStepUsername
			session.RegUsername = ""
			session.RegPassword = ""
			b.saveSession(ctx, session)
			b.sendMessage(chatID, "❌ That username was just taken. Choose another one:", cancelMenu())
			return
		}
		b.logger.Errorf("Failed to register user %d: %v", msg.From.ID, err)
		session.Reset()
		b.saveSession(ctx, session)
		b.sendMessage(chatID, "Something went wrong. Please register again later.", registerMenu())
		return
	}

	session.Reset()
	b.saveSession(ctx, session)

	welcome := fmt.Sprintf(
		"✅ Account created!\n\n"+
			"👤 Username: `%s`\n"+
			"🎁 Your referral code: `%s`\n\n"+
			"Share your code and earn %d%% of every deposit your referrals make.",
		user.Username, user.ReferralCode, service.CommissionPercent,
	)
	b.sendMessage(chatID, welcome, mainMenu())
}

func usernameError(err error) string {
	switch {
	case errors.Is(err, service.ErrUsernameLength):
		return fmt.Sprintf("❌ Username must be %d to %d characters long.", service.MinUsernameLength, service.MaxUsernameLength)
	case errors.Is(err, service.ErrUsernameCharset):
		return "❌ Username may only contain letters, digits and underscores."
	case errors.Is(err, service.ErrUsernameTaken):
		return "❌ That username is already taken. Choose another one."
	default:
		return "Something went wrong. Please try again later."
	}
}

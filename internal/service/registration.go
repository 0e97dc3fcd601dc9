package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/3dxteam/usdt_bot/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidateUsername checks length, charset and case-insensitive uniqueness.
func (s *Service) ValidateUsername(ctx context.Context, username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return ErrUsernameLength
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameCharset
	}

	existing, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return ErrUsernameTaken
	}

	return nil
}

func (s *Service) ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// FindReferrer resolves a referral code to its owner. Unknown codes and
// self-referrals resolve to (nil, nil): both are treated as "no referrer".
func (s *Service) FindReferrer(ctx context.Context, code string, selfID int64) (*models.User, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}

	referrer, err := s.repo.GetUserByReferralCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to look up referral code: %w", err)
	}
	if referrer == nil || referrer.TelegramID == selfID {
		return nil, nil
	}

	return referrer, nil
}

// RegisterUser commits a completed registration: hashes the password,
// generates a unique referral code and persists the user. referredByCode
// must already be resolved (or empty).
func (s *Service) RegisterUser(ctx context.Context, telegramID int64, username, password, referredByCode string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		TelegramID:   telegramID,
		Username:     strings.ToLower(username),
		PasswordHash: string(hash),
		ReferredBy:   referredByCode,
	}

	// Referral codes are random enough that collisions are rare; retry a
	// few times against the unique index before giving up.
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateReferralCode(telegramID)
		if err != nil {
			return nil, err
		}
		user.ReferralCode = code

		existing, err := s.repo.GetUserByReferralCode(ctx, user.ReferralCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check referral code: %w", err)
		}
		if existing != nil {
			continue
		}

		if err := s.repo.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		s.logger.Infof("Registered user %d as %q (referred by %q)", telegramID, user.Username, referredByCode)
		return user, nil
	}

	return nil, fmt.Errorf("failed to generate a unique referral code for user %d", telegramID)
}

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// generateReferralCode builds the code from the last 4 digits of the user id
// plus 6 random base36 characters, uppercased.
func generateReferralCode(userID int64) (string, error) {
	id := strconv.FormatInt(userID, 10)
	if len(id) > 4 {
		id = id[len(id)-4:]
	}

	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = base36Alphabet[int(b)%len(base36Alphabet)]
	}

	return id + string(buf), nil
}

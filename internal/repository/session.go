package repository

import (
	"context"
	"errors"

	"github.com/3dxteam/usdt_bot/internal/models"
	"gorm.io/gorm"
)

// GetSession returns the chat's session, creating the idle default shape on
// first access. Last write wins per chat; a single chat's updates are
// handled serially so there is no finer locking.
func (r *Repository) GetSession(ctx context.Context, chatID int64) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).First(&session, "chat_id = ?", chatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fresh := models.NewSession(chatID)
			if err := r.db.WithContext(ctx).Create(fresh).Error; err != nil {
				return nil, err
			}
			return fresh, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *Repository) SaveSession(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Save(session).Error
}

package postgres

import (
	"context"

	"github.com/eventflow/eventflow/internal/models"
	"github.com/eventflow/eventflow/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteRepository interface {
	// Add is idempotent; favoriting twice is a no-op.
	Add(ctx context.Context, fav *models.EventFavorite) error
	Remove(ctx context.Context, eventID, userID string) error
	EventIDsByUser(ctx context.Context, userID string) ([]string, error)
}

type favoriteRepo struct {
	db *gorm.DB
}

func NewFavoriteRepo(db *gorm.DB) FavoriteRepository {
	return &favoriteRepo{db: db}
}

func (r *favoriteRepo) Add(ctx context.Context, fav *models.EventFavorite) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(fav).Error
}

func (r *favoriteRepo) Remove(ctx context.Context, eventID, userID string) error {
	res := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&models.EventFavorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *favoriteRepo) EventIDsByUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.EventFavorite{}).
		Where("user_id = ?", userID).
		Pluck("event_id", &ids).Error
	return ids, err
}

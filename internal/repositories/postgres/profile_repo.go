package postgres

import (
	"context"
	"errors"

	"github.com/eventflow/eventflow/internal/models"
	"github.com/eventflow/eventflow/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	// InsertIfMissing is the idempotent half of the two-phase sign-up: it
	// never overwrites an existing row.
	InsertIfMissing(ctx context.Context, p *models.Profile) error
	Update(ctx context.Context, p *models.Profile) error
}

type profileRepo struct {
	db *gorm.DB
}

func NewProfileRepo(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

func (r *profileRepo) InsertIfMissing(ctx context.Context, p *models.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(p).Error
}

func (r *profileRepo) Update(ctx context.Context, p *models.Profile) error {
	res := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"full_name":   p.FullName,
			"avatar_url":  p.AvatarURL,
			"skills":      p.Skills,
			"interests":   p.Interests,
			"preferences": p.Preferences,
			"updated_at":  p.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

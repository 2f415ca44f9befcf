package postgres

import (
	"context"
	"errors"

	"github.com/eventflow/eventflow/internal/models"
	"github.com/eventflow/eventflow/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TeamRepository interface {
	// Create inserts the team and its first membership (the leader) in one
	// transaction.
	Create(ctx context.Context, t *models.Team, leaderMembership *models.TeamMember) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	// List returns teams newest first with the event preloaded, optionally
	// narrowed to one event.
	List(ctx context.Context, eventID string) ([]models.Team, error)
	// AddMemberWithinCapacity inserts the membership only while the team has a
	// free slot, counting under a row lock on the team so concurrent joins
	// cannot overfill it. Returns utils.ErrCapacityFull when full.
	AddMemberWithinCapacity(ctx context.Context, m *models.TeamMember, maxMembers int) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	HasMember(ctx context.Context, teamID, userID string) (bool, error)
	TeamIDsByUser(ctx context.Context, userID string) ([]string, error)
}

type teamRepo struct {
	db *gorm.DB
}

func NewTeamRepo(db *gorm.DB) TeamRepository {
	return &teamRepo{db: db}
}

func (r *teamRepo) Create(ctx context.Context, t *models.Team, leaderMembership *models.TeamMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		leaderMembership.TeamID = t.ID
		return tx.Create(leaderMembership).Error
	})
}

func (r *teamRepo) GetByID(ctx context.Context, id string) (*models.Team, error) {
	var t models.Team
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &t, err
}

func (r *teamRepo) List(ctx context.Context, eventID string) ([]models.Team, error) {
	q := r.db.WithContext(ctx).
		Preload("Event").
		Order("created_at DESC")
	if eventID != "" {
		q = q.Where("event_id = ?", eventID)
	}

	var out []models.Team
	err := q.Find(&out).Error
	return out, err
}

func (r *teamRepo) AddMemberWithinCapacity(ctx context.Context, m *models.TeamMember, maxMembers int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Team
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", m.TeamID).
			Take(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrNotFound
		}
		if err != nil {
			return err
		}

		if maxMembers > 0 {
			var n int64
			err = tx.Model(&models.TeamMember{}).
				Where("team_id = ?", m.TeamID).
				Count(&n).Error
			if err != nil {
				return err
			}
			if n >= int64(maxMembers) {
				return utils.ErrCapacityFull
			}
		}
		return tx.Create(m).Error
	})
}

func (r *teamRepo) RemoveMember(ctx context.Context, teamID, userID string) error {
	res := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&models.TeamMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *teamRepo) HasMember(ctx context.Context, teamID, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *teamRepo) TeamIDsByUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.TeamMember{}).
		Where("user_id = ?", userID).
		Pluck("team_id", &ids).Error
	return ids, err
}

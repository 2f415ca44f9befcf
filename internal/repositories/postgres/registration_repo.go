package postgres

import (
	"context"
	"errors"

	"github.com/eventflow/eventflow/internal/models"
	"github.com/eventflow/eventflow/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RegistrationRepository interface {
	// CreateWithinCapacity inserts the registration only while the event has a
	// free seat. The count and insert run in one transaction holding a row
	// lock on the event, so concurrent registrations cannot oversell it.
	// Returns utils.ErrCapacityFull when the event is full; capacity <= 0
	// means unlimited.
	CreateWithinCapacity(ctx context.Context, reg *models.EventRegistration, capacity int) error
	// ReactivateWithinCapacity flips a cancelled registration back to
	// registered under the same capacity guard.
	ReactivateWithinCapacity(ctx context.Context, regID, eventID string, capacity int) error
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*models.EventRegistration, error)
	ListByUser(ctx context.Context, userID string) ([]models.EventRegistration, error)
	CountByEventIDs(ctx context.Context, eventIDs []string) (int64, error)
	SetStatus(ctx context.Context, id string, status models.RegistrationStatus) error
}

type registrationRepo struct {
	db *gorm.DB
}

func NewRegistrationRepo(db *gorm.DB) RegistrationRepository {
	return &registrationRepo{db: db}
}

func (r *registrationRepo) CreateWithinCapacity(ctx context.Context, reg *models.EventRegistration, capacity int) error {
	if capacity <= 0 {
		return r.db.WithContext(ctx).Create(reg).Error
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.lockAndCheck(tx, reg.EventID, capacity); err != nil {
			return err
		}
		return tx.Create(reg).Error
	})
}

func (r *registrationRepo) ReactivateWithinCapacity(ctx context.Context, regID, eventID string, capacity int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if capacity > 0 {
			if err := r.lockAndCheck(tx, eventID, capacity); err != nil {
				return err
			}
		}
		res := tx.Model(&models.EventRegistration{}).
			Where("id = ?", regID).
			Update("status", models.RegistrationRegistered)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		return nil
	})
}

// lockAndCheck takes a FOR UPDATE lock on the event row, serialising
// registrations for it, then verifies a seat is free.
func (r *registrationRepo) lockAndCheck(tx *gorm.DB, eventID string, capacity int) error {
	var e models.Event
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", eventID).
		Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrNotFound
	}
	if err != nil {
		return err
	}

	var n int64
	err = tx.Model(&models.EventRegistration{}).
		Where("event_id = ? AND status <> ?", eventID, models.RegistrationCancelled).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n >= int64(capacity) {
		return utils.ErrCapacityFull
	}
	return nil
}

func (r *registrationRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*models.EventRegistration, error) {
	var reg models.EventRegistration
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Take(&reg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &reg, err
}

func (r *registrationRepo) ListByUser(ctx context.Context, userID string) ([]models.EventRegistration, error) {
	var out []models.EventRegistration
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ?", userID).
		Order("registered_at DESC").
		Find(&out).Error
	return out, err
}

func (r *registrationRepo) CountByEventIDs(ctx context.Context, eventIDs []string) (int64, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.EventRegistration{}).
		Where("event_id IN ?", eventIDs).
		Count(&n).Error
	return n, err
}

func (r *registrationRepo) SetStatus(ctx context.Context, id string, status models.RegistrationStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.EventRegistration{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/eventflow/eventflow/internal/models"
	"github.com/eventflow/eventflow/internal/utils"
	"gorm.io/gorm"
)

// EventFilter narrows the published-events listing. Zero values mean "any".
type EventFilter struct {
	Search       string
	Category     string
	LocationType models.LocationType
	After        time.Time
	Limit        int
	Offset       int
}

type EventRepository interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	// ListPublished returns published events ordered by start date ascending,
	// with the organizer profile preloaded.
	ListPublished(ctx context.Context, f EventFilter) ([]models.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string, limit int) ([]models.Event, error)
	ListByOrganizerSince(ctx context.Context, organizerID string, since time.Time) ([]models.Event, error)
	CountByOrganizerSince(ctx context.Context, organizerID string, since time.Time) (int64, error)
	IDsByOrganizerSince(ctx context.Context, organizerID string, since time.Time) ([]string, error)
	UpdateStatus(ctx context.Context, id string, status models.EventStatus) error
}

type eventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, e *models.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &e, err
}

func (r *eventRepo) ListPublished(ctx context.Context, f EventFilter) ([]models.Event, error) {
	q := r.db.WithContext(ctx).
		Preload("Organizer").
		Where("status = ?", models.EventPublished)

	if !f.After.IsZero() {
		q = q.Where("start_date >= ?", f.After)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.LocationType != "" {
		q = q.Where("location_type = ?", f.LocationType)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []models.Event
	err := q.Order("start_date ASC").Find(&out).Error
	return out, err
}

func (r *eventRepo) ListByOrganizer(ctx context.Context, organizerID string, limit int) ([]models.Event, error) {
	q := r.db.WithContext(ctx).
		Where("organizer_id = ?", organizerID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []models.Event
	err := q.Find(&out).Error
	return out, err
}

func (r *eventRepo) ListByOrganizerSince(ctx context.Context, organizerID string, since time.Time) ([]models.Event, error) {
	var out []models.Event
	err := r.db.WithContext(ctx).
		Where("organizer_id = ? AND created_at >= ?", organizerID, since).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *eventRepo) CountByOrganizerSince(ctx context.Context, organizerID string, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("organizer_id = ? AND created_at >= ?", organizerID, since).
		Count(&n).Error
	return n, err
}

func (r *eventRepo) IDsByOrganizerSince(ctx context.Context, organizerID string, since time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("organizer_id = ? AND created_at >= ?", organizerID, since).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *eventRepo) UpdateStatus(ctx context.Context, id string, status models.EventStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

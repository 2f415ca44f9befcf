package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventflow/eventflow/internal/cache"
	"github.com/eventflow/eventflow/internal/models"
	pgrepo "github.com/eventflow/eventflow/internal/repositories/postgres"
	"github.com/eventflow/eventflow/internal/storage"
	"github.com/eventflow/eventflow/internal/utils"
)

const (
	publishedEventsTTL = 30 * time.Second
)

type CreateEventInput struct {
	Title        string
	Description  string
	StartDate    time.Time
	EndDate      time.Time
	Location     string
	LocationType models.LocationType
	Category     string
	Capacity     int
	Theme        string
	ImageURL     string
	Status       models.EventStatus // draft or published
}

type EventService interface {
	Create(ctx context.Context, organizerID string, in CreateEventInput) (*models.Event, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	// ListPublished serves the events page: published, upcoming, filtered.
	// Unfiltered listings are cached briefly.
	ListPublished(ctx context.Context, f pgrepo.EventFilter) ([]models.Event, error)
	ListMine(ctx context.Context, organizerID string, limit int) ([]models.Event, error)
	SetStatus(ctx context.Context, organizerID, eventID string, status models.EventStatus) error
	// UploadImage stores an event image and returns its public URL.
	UploadImage(ctx context.Context, ext, contentType string, r storage.Reader) (string, error)
}

type eventService struct {
	events   pgrepo.EventRepository
	cache    cache.Cache
	uploader storage.Uploader
}

func NewEventService(events pgrepo.EventRepository, c cache.Cache, uploader storage.Uploader) EventService {
	return &eventService{events: events, cache: c, uploader: uploader}
}

func (s *eventService) Create(ctx context.Context, organizerID string, in CreateEventInput) (*models.Event, error) {
	const op = "EventService.Create"

	if organizerID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "organizer_id is required", nil)
	}
	if in.Title == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "title is required", nil)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() || in.EndDate.Before(in.StartDate) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid start/end dates", nil)
	}
	if in.Capacity < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "capacity must be non-negative", nil)
	}
	switch in.Status {
	case models.EventDraft, models.EventPublished:
	case "":
		in.Status = models.EventDraft
	default:
		return nil, utils.E(utils.CodeInvalidArgument, op, "status must be draft or published", nil)
	}
	switch in.LocationType {
	case models.LocationPhysical, models.LocationVirtual, models.LocationHybrid, "":
	default:
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid location_type", nil)
	}

	now := time.Now().UTC()
	e := &models.Event{
		ID:           newID(),
		Title:        in.Title,
		Description:  in.Description,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Location:     in.Location,
		LocationType: in.LocationType,
		Category:     in.Category,
		Capacity:     in.Capacity,
		ImageURL:     in.ImageURL,
		OrganizerID:  organizerID,
		Status:       in.Status,
		Theme:        in.Theme,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.events.Create(ctx, e); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create event", err)
	}
	s.invalidate(ctx, organizerID)
	return e, nil
}

func (s *eventService) Get(ctx context.Context, id string) (*models.Event, error) {
	const op = "EventService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "event not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get event", err)
	}
	return e, nil
}

func (s *eventService) ListPublished(ctx context.Context, f pgrepo.EventFilter) ([]models.Event, error) {
	const op = "EventService.ListPublished"

	if f.After.IsZero() {
		f.After = time.Now().UTC()
	}

	cacheable := s.cache != nil && f.Search == "" && f.Category == "" &&
		f.LocationType == "" && f.Limit == 0 && f.Offset == 0
	key := "events:published"

	if cacheable {
		var cached []models.Event
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	out, err := s.events.ListPublished(ctx, f)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list events", err)
	}

	if cacheable {
		_ = s.cache.SetJSON(ctx, key, out, publishedEventsTTL)
	}
	return out, nil
}

func (s *eventService) ListMine(ctx context.Context, organizerID string, limit int) ([]models.Event, error) {
	const op = "EventService.ListMine"

	if organizerID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "organizer_id is required", nil)
	}
	out, err := s.events.ListByOrganizer(ctx, organizerID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list events", err)
	}
	return out, nil
}

func (s *eventService) SetStatus(ctx context.Context, organizerID, eventID string, status models.EventStatus) error {
	const op = "EventService.SetStatus"

	switch status {
	case models.EventDraft, models.EventPublished, models.EventCompleted:
	default:
		return utils.E(utils.CodeInvalidArgument, op, "invalid status", nil)
	}

	e, err := s.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if e.OrganizerID != organizerID {
		return utils.E(utils.CodeForbidden, op, "only the organizer can change event status", nil)
	}

	if err := s.events.UpdateStatus(ctx, eventID, status); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update status", err)
	}
	s.invalidate(ctx, organizerID)
	return nil
}

func (s *eventService) UploadImage(ctx context.Context, ext, contentType string, r storage.Reader) (string, error) {
	const op = "EventService.UploadImage"

	if s.uploader == nil {
		return "", utils.E(utils.CodeInternal, op, "uploader is not configured", nil)
	}
	if ext == "" {
		ext = "png"
	}

	objectName := fmt.Sprintf("events/%d.%s", time.Now().UnixMilli(), ext)
	url, err := s.uploader.Upload(ctx, objectName, contentType, r)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to upload image", err)
	}
	return url, nil
}

// invalidate drops the published listing and the organizer's cached
// dashboard; both go stale on any event write.
func (s *eventService) invalidate(ctx context.Context, organizerID string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, "events:published", dashboardCacheKey(organizerID))
	}
}

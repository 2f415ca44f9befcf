package services

import (
	"context"
	"errors"
	"time"

	"github.com/eventflow/eventflow/internal/cache"
	"github.com/eventflow/eventflow/internal/models"
	pgrepo "github.com/eventflow/eventflow/internal/repositories/postgres"
	"github.com/eventflow/eventflow/internal/utils"
)

type RegistrationService interface {
	// Register enforces capacity and rejects duplicates.
	Register(ctx context.Context, eventID, userID string) (*models.EventRegistration, error)
	Cancel(ctx context.Context, eventID, userID string) error
	// CheckIn is an organizer action on someone else's registration.
	CheckIn(ctx context.Context, organizerID, eventID, userID string) error
	ListMine(ctx context.Context, userID string) ([]models.EventRegistration, error)
	ToggleFavorite(ctx context.Context, eventID, userID string) (favorited bool, err error)
	FavoriteEventIDs(ctx context.Context, userID string) ([]string, error)
}

type registrationService struct {
	events        pgrepo.EventRepository
	registrations pgrepo.RegistrationRepository
	favorites     pgrepo.FavoriteRepository
	cache         cache.Cache
}

func NewRegistrationService(events pgrepo.EventRepository, regs pgrepo.RegistrationRepository, favs pgrepo.FavoriteRepository, c cache.Cache) RegistrationService {
	return &registrationService{events: events, registrations: regs, favorites: favs, cache: c}
}

// invalidateDashboards drops the cached dashboards of everyone whose stats a
// registration write just changed: the attendee and the event's organizer.
func (s *registrationService) invalidateDashboards(ctx context.Context, userIDs ...string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			keys = append(keys, dashboardCacheKey(id))
		}
	}
	_ = s.cache.Del(ctx, keys...)
}

func (s *registrationService) Register(ctx context.Context, eventID, userID string) (*models.EventRegistration, error) {
	const op = "RegistrationService.Register"

	if eventID == "" || userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "event_id and user_id are required", nil)
	}

	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "event not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load event", err)
	}
	if e.Status != models.EventPublished {
		return nil, utils.E(utils.CodeInvalidArgument, op, "event is not open for registration", nil)
	}

	if existing, err := s.registrations.GetByEventAndUser(ctx, eventID, userID); err == nil {
		if existing.Status != models.RegistrationCancelled {
			return nil, utils.E(utils.CodeConflict, op, "already registered", nil)
		}
		// cancelled earlier: re-activate instead of inserting a second row.
		// The repo counts and updates under a lock on the event row.
		if err := s.registrations.ReactivateWithinCapacity(ctx, existing.ID, eventID, e.Capacity); err != nil {
			if errors.Is(err, utils.ErrCapacityFull) {
				return nil, utils.E(utils.CodeCapacityFull, op, "event is full", err)
			}
			return nil, utils.E(utils.CodeInternal, op, "failed to re-register", err)
		}
		existing.Status = models.RegistrationRegistered
		s.invalidateDashboards(ctx, userID, e.OrganizerID)
		return existing, nil
	} else if !errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeInternal, op, "failed to check registration", err)
	}

	reg := &models.EventRegistration{
		ID:           newID(),
		EventID:      eventID,
		UserID:       userID,
		Status:       models.RegistrationRegistered,
		RegisteredAt: time.Now().UTC(),
	}
	if err := s.registrations.CreateWithinCapacity(ctx, reg, e.Capacity); err != nil {
		if errors.Is(err, utils.ErrCapacityFull) {
			return nil, utils.E(utils.CodeCapacityFull, op, "event is full", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to register", err)
	}
	s.invalidateDashboards(ctx, userID, e.OrganizerID)
	return reg, nil
}

func (s *registrationService) Cancel(ctx context.Context, eventID, userID string) error {
	const op = "RegistrationService.Cancel"

	reg, err := s.registrations.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "registration not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load registration", err)
	}
	if reg.Status == models.RegistrationCancelled {
		return nil
	}
	if err := s.registrations.SetStatus(ctx, reg.ID, models.RegistrationCancelled); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to cancel registration", err)
	}

	ids := []string{userID}
	if e, err := s.events.GetByID(ctx, eventID); err == nil {
		ids = append(ids, e.OrganizerID)
	}
	s.invalidateDashboards(ctx, ids...)
	return nil
}

func (s *registrationService) CheckIn(ctx context.Context, organizerID, eventID, userID string) error {
	const op = "RegistrationService.CheckIn"

	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "event not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load event", err)
	}
	if e.OrganizerID != organizerID {
		return utils.E(utils.CodeForbidden, op, "only the organizer can check in attendees", nil)
	}

	reg, err := s.registrations.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "registration not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load registration", err)
	}
	if reg.Status == models.RegistrationCancelled {
		return utils.E(utils.CodeConflict, op, "registration was cancelled", nil)
	}
	if err := s.registrations.SetStatus(ctx, reg.ID, models.RegistrationCheckedIn); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to check in", err)
	}
	s.invalidateDashboards(ctx, userID, e.OrganizerID)
	return nil
}

func (s *registrationService) ListMine(ctx context.Context, userID string) ([]models.EventRegistration, error) {
	const op = "RegistrationService.ListMine"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := s.registrations.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list registrations", err)
	}
	return out, nil
}

func (s *registrationService) ToggleFavorite(ctx context.Context, eventID, userID string) (bool, error) {
	const op = "RegistrationService.ToggleFavorite"

	if eventID == "" || userID == "" {
		return false, utils.E(utils.CodeInvalidArgument, op, "event_id and user_id are required", nil)
	}

	err := s.favorites.Remove(ctx, eventID, userID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, utils.ErrNotFound) {
		return false, utils.E(utils.CodeInternal, op, "failed to remove favorite", err)
	}

	fav := &models.EventFavorite{
		ID:        newID(),
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.favorites.Add(ctx, fav); err != nil {
		return false, utils.E(utils.CodeInternal, op, "failed to add favorite", err)
	}
	return true, nil
}

func (s *registrationService) FavoriteEventIDs(ctx context.Context, userID string) ([]string, error) {
	const op = "RegistrationService.FavoriteEventIDs"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	ids, err := s.favorites.EventIDsByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list favorites", err)
	}
	return ids, nil
}

package services

import (
	"context"
	"time"

	"github.com/eventflow/eventflow/internal/cache"
	"github.com/eventflow/eventflow/internal/models"
	pgrepo "github.com/eventflow/eventflow/internal/repositories/postgres"
	"github.com/eventflow/eventflow/internal/utils"
)

const dashboardTTL = 15 * time.Second

// dashboardCacheKey is shared with the event and registration services, which
// delete the entry when a write changes what the dashboard would show.
func dashboardCacheKey(userID string) string { return "dashboard:" + userID }

type DashboardStats struct {
	TotalEvents       int `json:"total_events"`
	UpcomingEvents    int `json:"upcoming_events"`
	CompletedEvents   int `json:"completed_events"`
	TotalParticipants int `json:"total_participants"`
}

type Dashboard struct {
	Stats         DashboardStats             `json:"stats"`
	RecentEvents  []models.Event             `json:"recent_events"`
	Registrations []models.EventRegistration `json:"registrations,omitempty"`
}

type DashboardService interface {
	// ForUser assembles the role-dependent dashboard: organizers see their
	// own events, everyone else sees their registrations plus upcoming
	// published events.
	ForUser(ctx context.Context, profile *models.Profile) (*Dashboard, error)
}

type dashboardService struct {
	events        pgrepo.EventRepository
	registrations pgrepo.RegistrationRepository
	cache         cache.Cache
}

func NewDashboardService(events pgrepo.EventRepository, regs pgrepo.RegistrationRepository, c cache.Cache) DashboardService {
	return &dashboardService{events: events, registrations: regs, cache: c}
}

func (s *dashboardService) ForUser(ctx context.Context, profile *models.Profile) (*Dashboard, error) {
	const op = "DashboardService.ForUser"

	if profile == nil || profile.ID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "profile is required", nil)
	}

	key := dashboardCacheKey(profile.ID)
	if s.cache != nil {
		var cached Dashboard
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	var d *Dashboard
	var err error
	if profile.Role == models.RoleOrganizer {
		d, err = s.forOrganizer(ctx, profile.ID)
	} else {
		d, err = s.forAttendee(ctx, profile.ID)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, d, dashboardTTL)
	}
	return d, nil
}

func (s *dashboardService) forOrganizer(ctx context.Context, userID string) (*Dashboard, error) {
	const op = "DashboardService.ForUser"

	all, err := s.events.ListByOrganizer(ctx, userID, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list events", err)
	}

	now := time.Now().UTC()
	stats := DashboardStats{TotalEvents: len(all)}
	ids := make([]string, 0, len(all))
	for _, e := range all {
		ids = append(ids, e.ID)
		if e.StartDate.After(now) {
			stats.UpcomingEvents++
		}
		if e.Status == models.EventCompleted {
			stats.CompletedEvents++
		}
	}

	participants, err := s.registrations.CountByEventIDs(ctx, ids)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count participants", err)
	}
	stats.TotalParticipants = int(participants)

	recent := all
	if len(recent) > 5 {
		recent = recent[:5]
	}
	return &Dashboard{Stats: stats, RecentEvents: recent}, nil
}

func (s *dashboardService) forAttendee(ctx context.Context, userID string) (*Dashboard, error) {
	const op = "DashboardService.ForUser"

	regs, err := s.registrations.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list registrations", err)
	}

	now := time.Now().UTC()
	stats := DashboardStats{TotalEvents: len(regs)}
	for _, r := range regs {
		if r.Event == nil {
			continue
		}
		if r.Event.StartDate.After(now) {
			stats.UpcomingEvents++
		}
		if r.Event.Status == models.EventCompleted {
			stats.CompletedEvents++
		}
	}

	upcoming, err := s.events.ListPublished(ctx, pgrepo.EventFilter{After: now, Limit: 5})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list upcoming events", err)
	}

	return &Dashboard{Stats: stats, RecentEvents: upcoming, Registrations: regs}, nil
}

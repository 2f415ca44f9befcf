package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	mongorepo "github.com/eventflow/eventflow/internal/repositories/mongo"
	"github.com/eventflow/eventflow/internal/models"
	pgrepo "github.com/eventflow/eventflow/internal/repositories/postgres"
	"github.com/eventflow/eventflow/internal/utils"
)

// Window is the analytics time range selector from the analytics page.
type Window string

const (
	Window7d  Window = "7d"
	Window30d Window = "30d"
	Window90d Window = "90d"
	Window1y  Window = "1y"
)

func (w Window) start(now time.Time) (time.Time, bool) {
	switch w {
	case Window7d:
		return now.AddDate(0, 0, -7), true
	case Window30d:
		return now.AddDate(0, 0, -30), true
	case Window90d:
		return now.AddDate(0, 0, -90), true
	case Window1y:
		return now.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

type AnalyticsSummary struct {
	TotalEvents       int64 `json:"total_events"`
	TotalParticipants int64 `json:"total_participants"`
	// sign-ins in the window, from the auth audit trail
	TotalEngagement int64 `json:"total_engagement"`
}

type MonthlyRow struct {
	Month        string `json:"month"` // 2006-01
	Events       int    `json:"events"`
	Participants int64  `json:"participants"`
}

type AnalyticsService interface {
	Summary(ctx context.Context, organizerID string, w Window) (*AnalyticsSummary, error)
	// Monthly returns per-month event and participant counts for the window,
	// oldest first.
	Monthly(ctx context.Context, organizerID string, w Window) ([]MonthlyRow, error)
	// ExportCSV renders the monthly rows as a CSV document.
	ExportCSV(ctx context.Context, organizerID string, w Window) ([]byte, error)
}

type analyticsService struct {
	events        pgrepo.EventRepository
	registrations pgrepo.RegistrationRepository
	authEvents    mongorepo.AuthEventRepository
}

func NewAnalyticsService(events pgrepo.EventRepository, regs pgrepo.RegistrationRepository, authEvents mongorepo.AuthEventRepository) AnalyticsService {
	return &analyticsService{events: events, registrations: regs, authEvents: authEvents}
}

func (s *analyticsService) Summary(ctx context.Context, organizerID string, w Window) (*AnalyticsSummary, error) {
	const op = "AnalyticsService.Summary"

	since, ok := w.start(time.Now().UTC())
	if !ok {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid window", nil)
	}
	if organizerID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "organizer_id is required", nil)
	}

	ids, err := s.events.IDsByOrganizerSince(ctx, organizerID, since)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list events", err)
	}
	participants, err := s.registrations.CountByEventIDs(ctx, ids)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count registrations", err)
	}

	var engagement int64
	if s.authEvents != nil {
		// audit trail is best-effort; a miss degrades to zero
		if n, aerr := s.authEvents.CountByKindSince(ctx, models.AuthEventSignedIn, since); aerr == nil {
			engagement = n
		}
	}

	return &AnalyticsSummary{
		TotalEvents:       int64(len(ids)),
		TotalParticipants: participants,
		TotalEngagement:   engagement,
	}, nil
}

func (s *analyticsService) Monthly(ctx context.Context, organizerID string, w Window) ([]MonthlyRow, error) {
	const op = "AnalyticsService.Monthly"

	since, ok := w.start(time.Now().UTC())
	if !ok {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid window", nil)
	}

	events, err := s.events.ListByOrganizerSince(ctx, organizerID, since)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list events", err)
	}

	byMonth := map[string][]string{} // month -> event ids
	var order []string
	for _, e := range events {
		m := e.CreatedAt.UTC().Format("2006-01")
		if _, seen := byMonth[m]; !seen {
			order = append(order, m)
		}
		byMonth[m] = append(byMonth[m], e.ID)
	}

	rows := make([]MonthlyRow, 0, len(order))
	for _, m := range order {
		ids := byMonth[m]
		participants, err := s.registrations.CountByEventIDs(ctx, ids)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to count registrations", err)
		}
		rows = append(rows, MonthlyRow{Month: m, Events: len(ids), Participants: participants})
	}
	return rows, nil
}

func (s *analyticsService) ExportCSV(ctx context.Context, organizerID string, w Window) ([]byte, error) {
	rows, err := s.Monthly(ctx, organizerID, w)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"month", "events", "participants"})
	for _, r := range rows {
		_ = cw.Write([]string{r.Month, strconv.Itoa(r.Events), strconv.FormatInt(r.Participants, 10)})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, utils.E(utils.CodeInternal, "AnalyticsService.ExportCSV", "failed to render csv", err)
	}
	return buf.Bytes(), nil
}

package services

import (
	"context"
	"errors"
	"time"

	"github.com/eventflow/eventflow/internal/models"
	pgrepo "github.com/eventflow/eventflow/internal/repositories/postgres"
	"github.com/eventflow/eventflow/internal/utils"
)

type CreateTeamInput struct {
	Name           string
	Description    string
	EventID        string
	MaxMembers     int
	SkillsRequired []string
}

type TeamService interface {
	// Create makes the caller the leader and first member.
	Create(ctx context.Context, leaderID string, in CreateTeamInput) (*models.Team, error)
	List(ctx context.Context, eventID string) ([]models.Team, error)
	Join(ctx context.Context, teamID, userID string) error
	Leave(ctx context.Context, teamID, userID string) error
	MyTeamIDs(ctx context.Context, userID string) ([]string, error)
}

type teamService struct {
	teams  pgrepo.TeamRepository
	events pgrepo.EventRepository
}

func NewTeamService(teams pgrepo.TeamRepository, events pgrepo.EventRepository) TeamService {
	return &teamService{teams: teams, events: events}
}

func (s *teamService) Create(ctx context.Context, leaderID string, in CreateTeamInput) (*models.Team, error) {
	const op = "TeamService.Create"

	if leaderID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "leader_id is required", nil)
	}
	if in.Name == "" || in.EventID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "name and event_id are required", nil)
	}
	if in.MaxMembers < 1 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "max_members must be at least 1", nil)
	}

	if _, err := s.events.GetByID(ctx, in.EventID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "event not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load event", err)
	}

	now := time.Now().UTC()
	t := &models.Team{
		ID:             newID(),
		Name:           in.Name,
		Description:    in.Description,
		EventID:        in.EventID,
		LeaderID:       leaderID,
		MaxMembers:     in.MaxMembers,
		SkillsRequired: in.SkillsRequired,
		CreatedAt:      now,
	}
	leader := &models.TeamMember{
		ID:       newID(),
		UserID:   leaderID,
		JoinedAt: now,
	}

	if err := s.teams.Create(ctx, t, leader); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create team", err)
	}
	return t, nil
}

func (s *teamService) List(ctx context.Context, eventID string) ([]models.Team, error) {
	const op = "TeamService.List"

	out, err := s.teams.List(ctx, eventID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list teams", err)
	}
	return out, nil
}

func (s *teamService) Join(ctx context.Context, teamID, userID string) error {
	const op = "TeamService.Join"

	if teamID == "" || userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "team_id and user_id are required", nil)
	}

	t, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "team not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load team", err)
	}

	already, err := s.teams.HasMember(ctx, teamID, userID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to check membership", err)
	}
	if already {
		return utils.E(utils.CodeConflict, op, "already a member", nil)
	}

	m := &models.TeamMember{
		ID:       newID(),
		TeamID:   teamID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	}
	// the repo counts and inserts under a lock on the team row, so two
	// concurrent joins cannot take the last slot twice
	if err := s.teams.AddMemberWithinCapacity(ctx, m, t.MaxMembers); err != nil {
		switch {
		case errors.Is(err, utils.ErrCapacityFull):
			return utils.E(utils.CodeCapacityFull, op, "team is full", err)
		case errors.Is(err, utils.ErrNotFound):
			return utils.E(utils.CodeNotFound, op, "team not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to join team", err)
	}
	return nil
}

func (s *teamService) Leave(ctx context.Context, teamID, userID string) error {
	const op = "TeamService.Leave"

	if err := s.teams.RemoveMember(ctx, teamID, userID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "not a member", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to leave team", err)
	}
	return nil
}

func (s *teamService) MyTeamIDs(ctx context.Context, userID string) ([]string, error) {
	const op = "TeamService.MyTeamIDs"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	ids, err := s.teams.TeamIDsByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list memberships", err)
	}
	return ids, nil
}

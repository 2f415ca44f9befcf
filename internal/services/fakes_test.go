package services

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/eventflow/eventflow/internal/models"
	pgrepo "github.com/eventflow/eventflow/internal/repositories/postgres"
	"github.com/eventflow/eventflow/internal/utils"
)

// In-memory repository fakes shared by the service tests.

type memEvents struct {
	mu   sync.Mutex
	rows map[string]*models.Event
}

func newMemEvents(events ...*models.Event) *memEvents {
	m := &memEvents{rows: map[string]*models.Event{}}
	for _, e := range events {
		m.rows[e.ID] = e
	}
	return m
}

func (m *memEvents) Create(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[e.ID] = e
	return nil
}

func (m *memEvents) GetByID(_ context.Context, id string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memEvents) ListPublished(_ context.Context, f pgrepo.EventFilter) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Event
	for _, e := range m.rows {
		if e.Status != models.EventPublished {
			continue
		}
		if !f.After.IsZero() && e.StartDate.Before(f.After) {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (m *memEvents) ListByOrganizer(_ context.Context, organizerID string, limit int) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Event
	for _, e := range m.rows {
		if e.OrganizerID == organizerID {
			out = append(out, *e)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memEvents) ListByOrganizerSince(_ context.Context, organizerID string, since time.Time) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Event
	for _, e := range m.rows {
		if e.OrganizerID == organizerID && !e.CreatedAt.Before(since) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memEvents) CountByOrganizerSince(ctx context.Context, organizerID string, since time.Time) (int64, error) {
	out, err := m.ListByOrganizerSince(ctx, organizerID, since)
	return int64(len(out)), err
}

func (m *memEvents) IDsByOrganizerSince(ctx context.Context, organizerID string, since time.Time) ([]string, error) {
	out, err := m.ListByOrganizerSince(ctx, organizerID, since)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(out))
	for _, e := range out {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

func (m *memEvents) UpdateStatus(_ context.Context, id string, status models.EventStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	e.Status = status
	return nil
}

type memRegistrations struct {
	mu   sync.Mutex
	rows map[string]*models.EventRegistration // by id
}

func newMemRegistrations() *memRegistrations {
	return &memRegistrations{rows: map[string]*models.EventRegistration{}}
}

// Create seeds a registration directly, bypassing the capacity guard.
func (m *memRegistrations) Create(_ context.Context, reg *models.EventRegistration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[reg.ID] = reg
	return nil
}

// countActiveLocked is the capacity count; callers hold m.mu so the
// check-and-insert below is atomic the way the real repo's transaction is.
func (m *memRegistrations) countActiveLocked(eventID string) int64 {
	var n int64
	for _, r := range m.rows {
		if r.EventID == eventID && r.Status != models.RegistrationCancelled {
			n++
		}
	}
	return n
}

func (m *memRegistrations) CreateWithinCapacity(_ context.Context, reg *models.EventRegistration, capacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if capacity > 0 && m.countActiveLocked(reg.EventID) >= int64(capacity) {
		return utils.ErrCapacityFull
	}
	m.rows[reg.ID] = reg
	return nil
}

func (m *memRegistrations) ReactivateWithinCapacity(_ context.Context, regID, eventID string, capacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if capacity > 0 && m.countActiveLocked(eventID) >= int64(capacity) {
		return utils.ErrCapacityFull
	}
	r, ok := m.rows[regID]
	if !ok {
		return utils.ErrNotFound
	}
	r.Status = models.RegistrationRegistered
	return nil
}

func (m *memRegistrations) GetByEventAndUser(_ context.Context, eventID, userID string) (*models.EventRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.EventID == eventID && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (m *memRegistrations) ListByUser(_ context.Context, userID string) ([]models.EventRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EventRegistration
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRegistrations) CountByEventIDs(_ context.Context, eventIDs []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := map[string]struct{}{}
	for _, id := range eventIDs {
		ids[id] = struct{}{}
	}
	var n int64
	for _, r := range m.rows {
		if _, ok := ids[r.EventID]; ok && r.Status != models.RegistrationCancelled {
			n++
		}
	}
	return n, nil
}

func (m *memRegistrations) SetStatus(_ context.Context, id string, status models.RegistrationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	r.Status = status
	return nil
}

type memFavorites struct {
	mu   sync.Mutex
	rows map[string]*models.EventFavorite
}

func newMemFavorites() *memFavorites {
	return &memFavorites{rows: map[string]*models.EventFavorite{}}
}

func (m *memFavorites) Add(_ context.Context, fav *models.EventFavorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.rows {
		if f.EventID == fav.EventID && f.UserID == fav.UserID {
			return nil
		}
	}
	m.rows[fav.ID] = fav
	return nil
}

func (m *memFavorites) Remove(_ context.Context, eventID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, f := range m.rows {
		if f.EventID == eventID && f.UserID == userID {
			delete(m.rows, id)
			return nil
		}
	}
	return utils.ErrNotFound
}

func (m *memFavorites) EventIDsByUser(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, f := range m.rows {
		if f.UserID == userID {
			out = append(out, f.EventID)
		}
	}
	return out, nil
}

type memTeams struct {
	mu      sync.Mutex
	teams   map[string]*models.Team
	members map[string][]*models.TeamMember // by team id
}

func newMemTeams() *memTeams {
	return &memTeams{
		teams:   map[string]*models.Team{},
		members: map[string][]*models.TeamMember{},
	}
}

func (m *memTeams) Create(_ context.Context, t *models.Team, leader *models.TeamMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[t.ID] = t
	leader.TeamID = t.ID
	m.members[t.ID] = append(m.members[t.ID], leader)
	return nil
}

func (m *memTeams) GetByID(_ context.Context, id string) (*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTeams) List(_ context.Context, eventID string) ([]models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Team
	for _, t := range m.teams {
		if eventID == "" || t.EventID == eventID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTeams) AddMemberWithinCapacity(_ context.Context, mem *models.TeamMember, maxMembers int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[mem.TeamID]; !ok {
		return utils.ErrNotFound
	}
	if maxMembers > 0 && len(m.members[mem.TeamID]) >= maxMembers {
		return utils.ErrCapacityFull
	}
	m.members[mem.TeamID] = append(m.members[mem.TeamID], mem)
	return nil
}

func (m *memTeams) RemoveMember(_ context.Context, teamID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.members[teamID]
	for i, mem := range list {
		if mem.UserID == userID {
			m.members[teamID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return utils.ErrNotFound
}

func (m *memTeams) CountMembers(_ context.Context, teamID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.members[teamID])), nil
}

func (m *memTeams) HasMember(_ context.Context, teamID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mem := range m.members[teamID] {
		if mem.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memTeams) TeamIDsByUser(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for teamID, list := range m.members {
		for _, mem := range list {
			if mem.UserID == userID {
				out = append(out, teamID)
				break
			}
		}
	}
	return out, nil
}

type memProfiles struct {
	mu   sync.Mutex
	rows map[string]*models.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{rows: map[string]*models.Profile{}}
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) InsertIfMissing(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.ID]; ok {
		return nil
	}
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memProfiles) Update(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.ID]; !ok {
		return utils.ErrNotFound
	}
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

type memCache struct {
	mu   sync.Mutex
	vals map[string][]byte
	sets int
	hits int
}

func newMemCache() *memCache {
	return &memCache{vals: map[string][]byte{}}
}

func (m *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.vals[key]
	if !ok {
		return false, nil
	}
	m.hits++
	return true, json.Unmarshal(raw, dst)
}

func (m *memCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	m.vals[key] = raw
	m.sets++
	return nil
}

func (m *memCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.vals, k)
	}
	return nil
}

type fakeUploader struct {
	lastObject string
	lastType   string
}

func (f *fakeUploader) Upload(_ context.Context, objectName, contentType string, r io.Reader) (string, error) {
	f.lastObject = objectName
	f.lastType = contentType
	_, _ = io.Copy(io.Discard, r)
	return "https://storage.example.com/bucket/" + objectName, nil
}

// Package nav holds the static role-to-section table that gates navigation
// and, through the route guards, the corresponding endpoints.
package nav

import "github.com/eventflow/eventflow/internal/models"

type Section string

const (
	SectionDashboard   Section = "dashboard"
	SectionEvents      Section = "events"
	SectionCreateEvent Section = "create_event"
	SectionTeams       Section = "teams"
	SectionAnalytics   Section = "analytics"
	SectionProfile     Section = "profile"
	SectionSettings    Section = "settings"
)

var table = []struct {
	section Section
	roles   []models.Role
}{
	{SectionDashboard, []models.Role{models.RoleOrganizer, models.RoleParticipant, models.RoleSponsor}},
	{SectionEvents, []models.Role{models.RoleOrganizer, models.RoleParticipant, models.RoleSponsor}},
	{SectionCreateEvent, []models.Role{models.RoleOrganizer}},
	{SectionTeams, []models.Role{models.RoleParticipant}},
	{SectionAnalytics, []models.Role{models.RoleOrganizer, models.RoleSponsor}},
	{SectionProfile, []models.Role{models.RoleOrganizer, models.RoleParticipant, models.RoleSponsor}},
	{SectionSettings, []models.Role{models.RoleOrganizer, models.RoleParticipant, models.RoleSponsor}},
}

// VisibleSections returns the sections available to a role, in display order.
// Unknown roles see nothing.
func VisibleSections(role models.Role) []Section {
	var out []Section
	for _, row := range table {
		for _, r := range row.roles {
			if r == role {
				out = append(out, row.section)
				break
			}
		}
	}
	return out
}

// CanAccess reports whether a role may use a section.
func CanAccess(role models.Role, s Section) bool {
	for _, v := range VisibleSections(role) {
		if v == s {
			return true
		}
	}
	return false
}

package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type Role string

const (
	RoleOrganizer   Role = "organizer"
	RoleParticipant Role = "participant"
	RoleSponsor     Role = "sponsor"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOrganizer, RoleParticipant, RoleSponsor:
		return true
	}
	return false
}

// Profile is this application's own record describing a user, keyed 1:1 by the
// auth subject id. Distinct from the auth session, which stays opaque.
type Profile struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email     string `gorm:"column:email;type:text;not null" json:"email"`
	FullName  string `gorm:"column:full_name;type:text" json:"full_name"`
	AvatarURL string `gorm:"column:avatar_url;type:text" json:"avatar_url,omitempty"`
	Role      Role   `gorm:"column:role;type:text;not null" json:"role"`

	Skills    pq.StringArray `gorm:"column:skills;type:text[]" json:"skills"`
	Interests pq.StringArray `gorm:"column:interests;type:text[]" json:"interests"`

	// JSONB notification/appearance preferences from the settings page
	Preferences datatypes.JSON `gorm:"column:preferences;type:jsonb" json:"preferences,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

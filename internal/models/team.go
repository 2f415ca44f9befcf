package models

import (
	"time"

	"github.com/lib/pq"
)

type Team struct {
	ID             string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name           string         `gorm:"column:name;type:text;not null" json:"name"`
	Description    string         `gorm:"column:description;type:text" json:"description"`
	EventID        string         `gorm:"column:event_id;type:uuid;not null;index" json:"event_id"`
	LeaderID       string         `gorm:"column:leader_id;type:uuid;not null" json:"leader_id"`
	MaxMembers     int            `gorm:"column:max_members;not null" json:"max_members"`
	SkillsRequired pq.StringArray `gorm:"column:skills_required;type:text[]" json:"skills_required"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`

	Event   *Event       `gorm:"foreignKey:EventID;references:ID" json:"event,omitempty"`
	Members []TeamMember `gorm:"foreignKey:TeamID;references:ID" json:"members,omitempty"`
}

func (Team) TableName() string { return "teams" }

type TeamMember struct {
	ID       string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TeamID   string    `gorm:"column:team_id;type:uuid;not null;uniqueIndex:uniq_team_user" json:"team_id"`
	UserID   string    `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uniq_team_user" json:"user_id"`
	JoinedAt time.Time `gorm:"column:joined_at;type:timestamptz" json:"joined_at"`
}

func (TeamMember) TableName() string { return "team_members" }

package models

import "time"

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCompleted EventStatus = "completed"
)

type LocationType string

const (
	LocationPhysical LocationType = "physical"
	LocationVirtual  LocationType = "virtual"
	LocationHybrid   LocationType = "hybrid"
)

type Event struct {
	ID           string       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title        string       `gorm:"column:title;type:text;not null" json:"title"`
	Description  string       `gorm:"column:description;type:text" json:"description"`
	StartDate    time.Time    `gorm:"column:start_date;type:timestamptz;not null" json:"start_date"`
	EndDate      time.Time    `gorm:"column:end_date;type:timestamptz;not null" json:"end_date"`
	Location     string       `gorm:"column:location;type:text" json:"location"`
	LocationType LocationType `gorm:"column:location_type;type:text" json:"location_type"`
	Category     string       `gorm:"column:category;type:text" json:"category"`
	Capacity     int          `gorm:"column:capacity" json:"capacity"`
	ImageURL     string       `gorm:"column:image_url;type:text" json:"image_url,omitempty"`
	OrganizerID  string       `gorm:"column:organizer_id;type:uuid;not null;index" json:"organizer_id"`
	Status       EventStatus  `gorm:"column:status;type:text;not null" json:"status"`
	Theme        string       `gorm:"column:theme;type:text" json:"theme"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`

	// populated on list queries that join the organizer profile
	Organizer *Profile `gorm:"foreignKey:OrganizerID;references:ID" json:"organizer,omitempty"`
}

func (Event) TableName() string { return "events" }

type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationCheckedIn  RegistrationStatus = "checked_in"
	RegistrationCancelled  RegistrationStatus = "cancelled"
)

type EventRegistration struct {
	ID           string             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventID      string             `gorm:"column:event_id;type:uuid;not null;uniqueIndex:uniq_event_user" json:"event_id"`
	UserID       string             `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uniq_event_user" json:"user_id"`
	Status       RegistrationStatus `gorm:"column:status;type:text;not null" json:"status"`
	RegisteredAt time.Time          `gorm:"column:registered_at;type:timestamptz" json:"registered_at"`

	Event *Event `gorm:"foreignKey:EventID;references:ID" json:"event,omitempty"`
}

func (EventRegistration) TableName() string { return "event_registrations" }

type EventFavorite struct {
	ID      string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventID string `gorm:"column:event_id;type:uuid;not null;uniqueIndex:uniq_fav_event_user" json:"event_id"`
	UserID  string `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uniq_fav_event_user" json:"user_id"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (EventFavorite) TableName() string { return "event_favorites" }

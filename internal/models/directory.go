package models

import (
	"time"
)

// Roles a user can hold
const (
	RoleVolunteer = "volunteer"
	RoleAdmin     = "admin"
)

// User represents a volunteer or admin identity
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"uniqueIndex;not null" json:"email"` // stored lower-case
	Role  string `gorm:"type:varchar(16);not null;default:volunteer;index" json:"role"`
}

// IsAdmin reports whether the user may act on other users' hours
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Event represents something volunteers can sign up for and log time against
type Event struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name        string    `gorm:"not null" json:"name"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Capacity    *int      `json:"capacity,omitempty"` // nil means unlimited
	CreatedBy   string    `gorm:"type:varchar(36)" json:"createdBy,omitempty"`
}

// Registration records that a user signed up for an event
type Registration struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	UserID  string `gorm:"type:varchar(36);not null;uniqueIndex:idx_registrations_user_event" json:"userId"`
	EventID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_registrations_user_event" json:"eventId"`

	// Relationships
	User  *User  `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
	Event *Event `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"event,omitempty"`
}

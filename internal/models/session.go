package models

import (
	"time"
)

// SessionStatus is the lifecycle state of an hour session
type SessionStatus string

const (
	StatusOpen   SessionStatus = "open"   // checked in, no check-out yet
	StatusClosed SessionStatus = "closed" // final hours recorded
)

// HourSession is one ledger entry of volunteer time against an event
type HourSession struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	UserID      string        `gorm:"type:varchar(36);not null;index" json:"userId"`
	EventID     string        `gorm:"type:varchar(36);not null;index" json:"eventId"`
	StartTime   *time.Time    `json:"startTime"`
	EndTime     *time.Time    `json:"endTime"`
	HoursWorked *float64      `json:"hoursWorked"`
	Status      SessionStatus `gorm:"type:varchar(8);not null;default:closed" json:"status"`
	Approved    bool          `gorm:"not null;default:false" json:"approved"`

	// Relationships
	User  *User  `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
	Event *Event `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"event,omitempty"`
}

// Hours returns the recorded hours, 0 for open sessions
func (s HourSession) Hours() float64 {
	if s.HoursWorked == nil {
		return 0
	}
	return *s.HoursWorked
}

// IsOpen reports whether the session is still waiting for a check-out
func (s HourSession) IsOpen() bool {
	return s.Status == StatusOpen
}

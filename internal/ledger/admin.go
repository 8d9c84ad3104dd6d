package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/balkashynov/volhours/internal/metrics"
	"github.com/balkashynov/volhours/internal/models"
)

// ManualEntry is an admin back-fill of a volunteer's time. Either a positive
// HoursWorked or both StartTime and EndTime must be set.
type ManualEntry struct {
	UserEmail    string     `json:"userEmail"`
	EventID      string     `json:"eventId"`
	HoursWorked  *float64   `json:"hoursWorked,omitempty"`
	StartTime    *time.Time `json:"startTime,omitempty"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	MarkApproved bool       `json:"markApproved"`
}

// CreateManualEntry creates a closed session on behalf of the user owning
// entry.UserEmail
func (s *Service) CreateManualEntry(ctx context.Context, entry ManualEntry) (session *models.HourSession, err error) {
	defer func() { s.observe(ctx, "manual_entry", err) }()

	email := strings.ToLower(strings.TrimSpace(entry.UserEmail))
	eventID := strings.TrimSpace(entry.EventID)
	if email == "" || eventID == "" {
		return nil, invalidInput("userEmail and eventId are required")
	}

	// A zero hours value counts as not given, like a missing one
	hoursGiven := entry.HoursWorked != nil && *entry.HoursWorked != 0
	haveTimes := entry.StartTime != nil && entry.EndTime != nil
	if !hoursGiven && !haveTimes {
		return nil, invalidInput("Provide either hoursWorked or a valid startTime and endTime to compute hours.")
	}
	if (entry.StartTime == nil) != (entry.EndTime == nil) {
		return nil, invalidInput("startTime and endTime must be provided together")
	}

	user, err := s.identity.ResolveUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("User with that email not found")
	}
	if err != nil {
		return nil, internal("failed to resolve user", err)
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Event not found")
	}
	if err != nil {
		return nil, internal("failed to resolve event", err)
	}

	var start, end *time.Time
	if haveTimes {
		st, et := entry.StartTime.UTC(), entry.EndTime.UTC()
		if !et.After(st) {
			return nil, invalidInput("endTime must be after startTime")
		}
		start, end = &st, &et
	}

	var hours float64
	if hoursGiven {
		hours = *entry.HoursWorked
	} else {
		hours = round(end.Sub(*start).Hours(), 2)
	}
	if !isPositiveFinite(hours) {
		return nil, invalidInput("Computed hoursWorked must be a positive number")
	}

	session = &models.HourSession{
		ID:          uuid.NewString(),
		CreatedAt:   s.clock(),
		UserID:      user.ID,
		EventID:     event.ID,
		StartTime:   start,
		EndTime:     end,
		HoursWorked: &hours,
		Status:      models.StatusClosed,
		Approved:    entry.MarkApproved,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, internal("failed to create manual entry", err)
	}

	session.User = user
	session.Event = event

	metrics.RecordHours("manual", hours)
	s.logger(ctx).WithFields(map[string]interface{}{
		"session_id": session.ID,
		"user_id":    user.ID,
		"event_id":   event.ID,
		"hours":      hours,
		"approved":   entry.MarkApproved,
	}).Info("manual hours entry created")

	return session, nil
}

// SetApproval sets the approved flag of a session. A nil approved means the
// caller sent something that was not a boolean.
func (s *Service) SetApproval(ctx context.Context, sessionID string, approved *bool) (session *models.HourSession, err error) {
	defer func() { s.observe(ctx, "set_approval", err) }()

	if approved == nil {
		return nil, invalidInput("approved must be boolean")
	}

	res := s.db.WithContext(ctx).Model(&models.HourSession{}).
		Where("id = ?", sessionID).
		Update("approved", *approved)
	if res.Error != nil {
		return nil, internal("failed to update approval", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound("Hours entry not found")
	}

	session, err = s.getSession(ctx, sessionID, "User", "Event")
	if err != nil {
		return nil, err
	}

	s.logger(ctx).WithFields(map[string]interface{}{
		"session_id": sessionID,
		"approved":   *approved,
	}).Info("approval updated")

	return session, nil
}

// ListAll returns every session, optionally filtered by approval, newest
// first with users and events expanded
func (s *Service) ListAll(ctx context.Context, approved *bool) (sessions []models.HourSession, err error) {
	defer func() { s.observe(ctx, "list_all", err) }()

	q := s.db.WithContext(ctx).Preload("User").Preload("Event")
	if approved != nil {
		q = q.Where("approved = ?", *approved)
	}
	if err := q.Order("created_at DESC, id DESC").Find(&sessions).Error; err != nil {
		return nil, internal("failed to list sessions", err)
	}
	return sessions, nil
}

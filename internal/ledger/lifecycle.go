package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/balkashynov/volhours/internal/metrics"
	"github.com/balkashynov/volhours/internal/models"
)

// minRecordedHours is the smallest hours value a closed session can carry
const minRecordedHours = 0.01

// CheckIn opens a session for the user at the event
func (s *Service) CheckIn(ctx context.Context, userID, eventID string) (session *models.HourSession, err error) {
	defer func() { s.observe(ctx, "check_in", err) }()

	if userID == "" {
		return nil, invalidInput("userId is required")
	}
	if eventID == "" {
		return nil, invalidInput("eventId is required")
	}
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}

	now := s.clock()
	session = &models.HourSession{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UserID:    userID,
		EventID:   eventID,
		StartTime: &now,
		Status:    models.StatusOpen,
	}

	// The partial unique index on open sessions decides races
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("Already checked in for this event")
		}
		return nil, internal("failed to create session", err)
	}

	s.logger(ctx).WithFields(map[string]interface{}{
		"session_id": session.ID,
		"user_id":    userID,
		"event_id":   eventID,
	}).Info("checked in")

	return session, nil
}

// CheckOut closes the user's open session at the event and computes its hours
// as the elapsed time rounded to two decimals. A session shorter than about
// 18 seconds would round to zero, so it is recorded as minRecordedHours (0.01)
// instead.
func (s *Service) CheckOut(ctx context.Context, userID, eventID string) (session *models.HourSession, err error) {
	defer func() { s.observe(ctx, "check_out", err) }()

	if userID == "" || eventID == "" {
		return nil, notFound("No open check-in found for this event")
	}

	var open models.HourSession
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ? AND status = ?", userID, eventID, models.StatusOpen).
		First(&open).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("No open check-in found for this event")
	}
	if err != nil {
		return nil, internal("failed to find open session", err)
	}
	if open.StartTime == nil {
		return nil, internal("open session has no start time", fmt.Errorf("session %s", open.ID))
	}

	end := s.clock()
	elapsed := end.Sub(*open.StartTime)
	if elapsed <= 0 {
		// Clock skew; refuse instead of recording a bogus duration
		return nil, internal("check-out is not after check-in",
			fmt.Errorf("session %s started %s, now %s", open.ID, open.StartTime, end))
	}

	hours := round(elapsed.Hours(), 2)
	if hours < minRecordedHours {
		hours = minRecordedHours
	}

	// Conditional on still being open, so a concurrent check-out loses cleanly
	res := s.db.WithContext(ctx).Model(&models.HourSession{}).
		Where("id = ? AND status = ?", open.ID, models.StatusOpen).
		Updates(map[string]interface{}{
			"end_time":     end,
			"hours_worked": hours,
			"status":       models.StatusClosed,
		})
	if res.Error != nil {
		return nil, internal("failed to close session", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound("No open check-in found for this event")
	}

	session, err = s.getSession(ctx, open.ID, "Event")
	if err != nil {
		return nil, err
	}

	metrics.RecordHours("checkout", hours)
	s.logger(ctx).WithFields(map[string]interface{}{
		"session_id": session.ID,
		"user_id":    userID,
		"hours":      hours,
	}).Info("checked out")

	return session, nil
}

// LogDirect records a closed session with self-reported hours. It does not
// look at open sessions for the same event.
func (s *Service) LogDirect(ctx context.Context, userID, eventID string, hoursWorked float64) (session *models.HourSession, err error) {
	defer func() { s.observe(ctx, "log_direct", err) }()

	if userID == "" {
		return nil, invalidInput("userId is required")
	}
	if eventID == "" {
		return nil, invalidInput("eventId is required")
	}
	if !isPositiveFinite(hoursWorked) {
		return nil, invalidInput("hoursWorked must be a positive number")
	}
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}

	hours := hoursWorked
	session = &models.HourSession{
		ID:          uuid.NewString(),
		CreatedAt:   s.clock(),
		UserID:      userID,
		EventID:     eventID,
		HoursWorked: &hours,
		Status:      models.StatusClosed,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, internal("failed to log hours", err)
	}

	metrics.RecordHours("direct", hours)
	return session, nil
}

// ListMine returns the user's sessions, newest first, with events expanded
func (s *Service) ListMine(ctx context.Context, userID string) (sessions []models.HourSession, err error) {
	defer func() { s.observe(ctx, "list_mine", err) }()

	err = s.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, internal("failed to list sessions", err)
	}
	return sessions, nil
}

// OpenSessions returns the user's sessions that are still checked in
func (s *Service) OpenSessions(ctx context.Context, userID string) (sessions []models.HourSession, err error) {
	defer func() { s.observe(ctx, "open_sessions", err) }()

	err = s.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ? AND status = ?", userID, models.StatusOpen).
		Order("start_time ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, internal("failed to list open sessions", err)
	}
	return sessions, nil
}

// getSession loads one session by ID with the named associations preloaded
func (s *Service) getSession(ctx context.Context, id string, preloads ...string) (*models.HourSession, error) {
	q := s.db.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}

	var session models.HourSession
	err := q.First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Hours entry not found")
	}
	if err != nil {
		return nil, internal("failed to load session", err)
	}
	return &session, nil
}

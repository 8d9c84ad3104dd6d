package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/balkashynov/volhours/internal/models"
)

// ErrEventFull is returned when an event has no capacity left
var ErrEventFull = errors.New("event is at capacity")

// Directory is the gorm-backed identity provider, event directory and
// registration store the ledger talks to
type Directory struct {
	db *gorm.DB
}

// NewDirectory creates a Directory over an open connection
func NewDirectory(conn *gorm.DB) *Directory {
	return &Directory{db: conn}
}

// NormalizeEmail trims and lower-cases an email address for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUserRequest holds the data needed to create a new user
type CreateUserRequest struct {
	Name  string
	Email string
	Role  string // volunteer or admin, empty means volunteer
}

// CreateUser creates a new user
func (d *Directory) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("name and email are required")
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	switch role {
	case "":
		role = models.RoleVolunteer
	case models.RoleVolunteer, models.RoleAdmin:
	default:
		return nil, fmt.Errorf("unknown role %q", req.Role)
	}

	user := models.User{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
		Role:  role,
	}
	if err := d.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("user with email %s already exists", email)
		}
		return nil, err
	}
	return &user, nil
}

// ResolveUserByEmail finds a user by email, case-insensitively
func (d *Directory) ResolveUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", email, err)
	}
	return &user, nil
}

// GetUser retrieves a user by ID
func (d *Directory) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	return &user, nil
}

// UsersByID loads the given users keyed by ID; unknown IDs are skipped
func (d *Directory) UsersByID(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.User
	if err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// CountVolunteers counts users with the volunteer role
func (d *Directory) CountVolunteers(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleVolunteer).Count(&n).Error
	return n, err
}

// CountVolunteersSince counts volunteers created at or after since
func (d *Directory) CountVolunteersSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND created_at >= ?", models.RoleVolunteer, since.UTC()).
		Count(&n).Error
	return n, err
}

// CreateEventRequest holds the data needed to create a new event
type CreateEventRequest struct {
	Name        string
	Date        time.Time
	Location    string
	Description string
	Capacity    *int
	CreatedBy   string
}

// CreateEvent creates a new event
func (d *Directory) CreateEvent(ctx context.Context, req CreateEventRequest) (*models.Event, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("event name is required")
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("event date is required")
	}
	if req.Capacity != nil && *req.Capacity < 0 {
		return nil, fmt.Errorf("capacity must not be negative")
	}

	event := models.Event{
		ID:          uuid.NewString(),
		Name:        name,
		Date:        req.Date.UTC(),
		Location:    strings.TrimSpace(req.Location),
		Description: req.Description,
		Capacity:    req.Capacity,
		CreatedBy:   req.CreatedBy,
	}
	if err := d.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// GetEvent retrieves an event by ID
func (d *Directory) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := d.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}
	return &event, nil
}

// EventExists reports whether an event with the given ID exists
func (d *Directory) EventExists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := d.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListEvents returns all events ordered by date
func (d *Directory) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := d.db.WithContext(ctx).Order("date ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// CountEvents counts all events
func (d *Directory) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.Event{}).Count(&n).Error
	return n, err
}

// CountUpcomingEvents counts events dated at or after from
func (d *Directory) CountUpcomingEvents(ctx context.Context, from time.Time) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.Event{}).Where("date >= ?", from.UTC()).Count(&n).Error
	return n, err
}

// Register signs a user up for an event. Registering twice returns the
// existing registration.
func (d *Directory) Register(ctx context.Context, userID, eventID string) (*models.Registration, bool, error) {
	event, err := d.GetEvent(ctx, eventID)
	if err != nil {
		return nil, false, err
	}

	var existing models.Registration
	err = d.db.WithContext(ctx).Where("user_id = ? AND event_id = ?", userID, eventID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if event.Capacity != nil {
		var count int64
		if err := d.db.WithContext(ctx).Model(&models.Registration{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
			return nil, false, err
		}
		if count >= int64(*event.Capacity) {
			return nil, false, ErrEventFull
		}
	}

	reg := models.Registration{
		ID:      uuid.NewString(),
		UserID:  userID,
		EventID: eventID,
	}
	if err := d.db.WithContext(ctx).Create(&reg).Error; err != nil {
		return nil, false, err
	}
	return &reg, true, nil
}

// CountRegistrations counts all registrations
func (d *Directory) CountRegistrations(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.Registration{}).Count(&n).Error
	return n, err
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/balkashynov/volhours/internal/config"
	"github.com/balkashynov/volhours/internal/db"
	"github.com/balkashynov/volhours/internal/models"
)

// fixture is a ledger over a fresh in-memory SQLite store with a settable clock
type fixture struct {
	svc  *Service
	conn *gorm.DB
	dir  *db.Directory
	now  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.Open(config.Database{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })

	f := &fixture{
		conn: conn,
		dir:  db.NewDirectory(conn),
		now:  time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	f.svc = New(conn, Config{
		Identity:      f.dir,
		Events:        f.dir,
		Registrations: f.dir,
		Now:           func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := f.dir.CreateUser(context.Background(), db.CreateUserRequest{Name: "User " + email, Email: email})
	require.NoError(t, err)
	return u
}

func (f *fixture) event(t *testing.T, name string) *models.Event {
	t.Helper()
	e, err := f.dir.CreateEvent(context.Background(), db.CreateEventRequest{
		Name: name,
		Date: f.now.AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	return e
}

func ptr[T any](v T) *T { return &v }

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestError_KindsAndMessages(t *testing.T) {
	cause := errors.New("disk on fire")
	err := internal("failed to save", cause)

	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal server error", Message(err))
	assert.Equal(t, "internal", Kind(err))

	err = notFound("Event not found")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInternal)
	assert.Equal(t, "Event not found", Message(err))
	assert.Equal(t, "not_found", Kind(err))

	assert.Equal(t, "conflict", Kind(conflict("dup")))
	assert.Equal(t, "invalid_input", Kind(invalidInput("bad")))
	assert.Equal(t, "ok", Kind(nil))
	assert.Equal(t, "internal server error", Message(errors.New("plain")))
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{"postgres unique", &pq.Error{Code: "23505"}, true},
		{"postgres other", &pq.Error{Code: "23503"}, false},
		{"sqlite message", errors.New("constraint failed: UNIQUE constraint failed: hour_sessions.user_id, hour_sessions.event_id (2067)"), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.5, round(1.5, 2))
	assert.Equal(t, 0.33, round(1.0/3.0, 2))
	assert.Equal(t, 5.8, round(5.75, 1))
	assert.Equal(t, 2.25, round(2.2500001, 2))
}

func TestIsPositiveFinite(t *testing.T) {
	assert.True(t, isPositiveFinite(0.01))
	assert.False(t, isPositiveFinite(0))
	assert.False(t, isPositiveFinite(-1))
}

// Package ledger records volunteer hour sessions, runs the admin approval
// workflow and derives statistics from the recorded sessions. It is the only
// writer of the hour_sessions table.
package ledger

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/balkashynov/volhours/internal/logging"
	"github.com/balkashynov/volhours/internal/metrics"
	"github.com/balkashynov/volhours/internal/models"
)

// IdentityProvider resolves and counts user identities. Lookups that miss
// return an error wrapping gorm.ErrRecordNotFound.
type IdentityProvider interface {
	ResolveUserByEmail(ctx context.Context, email string) (*models.User, error)
	UsersByID(ctx context.Context, ids []string) (map[string]models.User, error)
	CountVolunteers(ctx context.Context) (int64, error)
	CountVolunteersSince(ctx context.Context, since time.Time) (int64, error)
}

// EventDirectory resolves and counts events. Lookups that miss return an
// error wrapping gorm.ErrRecordNotFound.
type EventDirectory interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	EventExists(ctx context.Context, id string) (bool, error)
	CountEvents(ctx context.Context) (int64, error)
	CountUpcomingEvents(ctx context.Context, from time.Time) (int64, error)
}

// RegistrationCounter reports how many event registrations exist
type RegistrationCounter interface {
	CountRegistrations(ctx context.Context) (int64, error)
}

// Config wires a Service to its collaborators
type Config struct {
	Identity      IdentityProvider
	Events        EventDirectory
	Registrations RegistrationCounter
	Logger        *logrus.Logger
	Now           func() time.Time // defaults to time.Now
}

// Service is the hours ledger
type Service struct {
	db            *gorm.DB
	identity      IdentityProvider
	events        EventDirectory
	registrations RegistrationCounter
	log           *logrus.Logger
	now           func() time.Time
}

// New creates a ledger over conn
func New(conn *gorm.DB, cfg Config) *Service {
	s := &Service{
		db:            conn,
		identity:      cfg.Identity,
		events:        cfg.Events,
		registrations: cfg.Registrations,
		log:           cfg.Logger,
		now:           cfg.Now,
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// clock returns the current time in UTC, truncated to microseconds so values
// survive a round trip through either store
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) logger(ctx context.Context) *logrus.Entry {
	return logging.FromContext(ctx, s.log)
}

// observe records the outcome of op in metrics and logs internal failures
func (s *Service) observe(ctx context.Context, op string, err error) {
	metrics.RecordLedgerOp(op, Kind(err))
	if err != nil && errors.Is(err, ErrInternal) {
		s.logger(ctx).WithError(err).WithField("op", op).Error("ledger operation failed")
	}
}

// requireEvent checks that eventID names an existing event
func (s *Service) requireEvent(ctx context.Context, eventID string) error {
	ok, err := s.events.EventExists(ctx, eventID)
	if err != nil {
		return internal("failed to look up event", err)
	}
	if !ok {
		return notFound("Event not found")
	}
	return nil
}

// round rounds v to the given number of decimal places
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// isPositiveFinite reports whether v is a usable hours value
func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

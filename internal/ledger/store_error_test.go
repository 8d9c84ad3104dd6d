package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/balkashynov/volhours/internal/db"
)

// newMockService returns a ledger whose store is a sqlmock speaking the
// postgres dialect
func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	dir := db.NewDirectory(conn)
	return New(conn, Config{Identity: dir, Events: dir, Registrations: dir}), mock
}

func TestDashboardStats_StoreFailureIsInternal(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnError(errors.New("connection reset by peer"))

	_, err := svc.DashboardStats(context.Background())
	require.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, "internal server error", Message(err))
	assert.Contains(t, err.Error(), "connection reset by peer")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckIn_EventLookupFailureIsInternal(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "events"`).
		WillReturnError(errors.New("too many connections"))

	_, err := svc.CheckIn(context.Background(), "user-1", "event-1")
	require.ErrorIs(t, err, ErrInternal)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMyStats_StoreFailureIsInternal(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT \* FROM "hour_sessions"`).
		WillReturnError(errors.New("relation does not exist"))

	_, err := svc.MyStats(context.Background(), "user-1")
	require.ErrorIs(t, err, ErrInternal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckOut_StoreFailureIsInternal(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT \* FROM "hour_sessions" WHERE`).
		WillReturnError(errors.New("i/o timeout"))

	_, err := svc.CheckOut(context.Background(), "user-1", "event-1")
	require.ErrorIs(t, err, ErrInternal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

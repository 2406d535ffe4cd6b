package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingColumns = []string{"id", "name", "phone", "email", "preferred_datetime", "notes", "created_at"}

func sampleRecord() Record {
	return newRecord("APPT-20240310-094500-000000", time.Date(2024, time.March, 10, 9, 45, 0, 0, time.UTC), jane)
}

func TestPgRepository_CreateBooking(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rec := sampleRecord()
	created := time.Date(2024, time.March, 10, 9, 45, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(rec.ID, rec.Name, rec.Phone, rec.Email, rec.PreferredDatetime, rec.Notes, pgxmock.AnyArg(), created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO event_logs").
		WithArgs(EventBookingCreated, rec.ID, pgxmock.AnyArg(), created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	repo := NewPgRepository(mock)
	require.NoError(t, repo.CreateBooking(context.Background(), rec, "sess-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_CreateBookingRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("duplicate key")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnError(boom)
	mock.ExpectRollback()

	err = NewPgRepository(mock).CreateBooking(context.Background(), sampleRecord(), "")
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_GetBooking(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	notes := "window seat"
	created := time.Date(2024, time.March, 10, 9, 45, 0, 0, time.UTC)
	mock.ExpectQuery("FROM bookings").
		WithArgs("APPT-1").
		WillReturnRows(pgxmock.NewRows(bookingColumns).
			AddRow("APPT-1", "Jane Doe", "+1 555-123-4567", "jane@example.com", "2024-03-15", &notes, created))
	mock.ExpectQuery("FROM bookings").
		WithArgs("APPT-missing").
		WillReturnRows(pgxmock.NewRows(bookingColumns))

	repo := NewPgRepository(mock)
	rec, err := repo.GetBooking(context.Background(), "APPT-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10T09:45:00.000000", rec.CreatedUTC)
	require.NotNil(t, rec.Notes)
	assert.Equal(t, "window seat", *rec.Notes)

	_, err = repo.GetBooking(context.Background(), "APPT-missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_ListRecentClampsLimit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	notes := "n"
	now := time.Now().UTC()
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(100).
		WillReturnRows(pgxmock.NewRows(bookingColumns).
			AddRow("APPT-2", "B", "p", "e", "d", &notes, now).
			AddRow("APPT-1", "A", "p", "e", "d", &notes, now))

	recs, err := NewPgRepository(mock).ListRecent(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "APPT-2", recs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_InsertEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := "APPT-1"
	mock.ExpectExec("INSERT INTO event_logs").
		WithArgs(EventBookingReplayed, &id, []byte(`{}`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = NewPgRepository(mock).InsertEvent(context.Background(), EventLog{
		EventType: EventBookingReplayed,
		BookingID: &id,
		Payload:   []byte(`{}`),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package booking_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"urbandrive/model"
	bookingrepo "urbandrive/repository/booking"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

// sqlmock collapses whitespace before matching, so this pins the exact
// predicate the count queries run: inclusive on both boundaries, and only
// over rows that actually block the calendar.
const wantOverlapSQL = `SELECT COUNT(*) FROM bookings WHERE vehicle_id = $1 AND status IN ('CONFIRMED', 'ACTIVE') AND start_date <= $3 AND end_date >= $2`

func TestCountOverlapping_Predicate(t *testing.T) {
	db, mock := newDB(t)
	r := bookingrepo.New(db)

	// A booking ending on the 5th and a request starting on the 5th must
	// collide, so start_date is compared against the request end ($3) and
	// end_date against the request start ($2), both inclusive.
	start, end := day(t, "2024-06-05"), day(t, "2024-06-08")
	mock.ExpectQuery(regexp.QuoteMeta(wantOverlapSQL)).
		WithArgs(int64(7), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	n, err := r.CountOverlapping(context.Background(), 7, start, end)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountOverlappingTx_SamePredicate(t *testing.T) {
	db, mock := newDB(t)
	r := bookingrepo.New(db)

	start, end := day(t, "2024-07-01"), day(t, "2024-07-01")
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(wantOverlapSQL)).
		WithArgs(int64(3), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	tx, err := db.Begin()
	require.NoError(t, err)

	n, err := r.CountOverlappingTx(context.Background(), tx, 3, start, end)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func insertInput(t *testing.T) *model.Booking {
	t.Helper()
	return &model.Booking{
		UserID:         1,
		VehicleID:      7,
		StartDate:      day(t, "2024-06-01"),
		EndDate:        day(t, "2024-06-05"),
		TotalPrice:     250,
		Status:         model.BookingConfirmed,
		PickupLocation: "Airport",
		ReturnLocation: "Downtown",
		Payment:        model.PaymentInfo{Status: "success", Method: "card", TransactionID: "TXN-1-test"},
	}
}

func TestInsert_ExclusionViolationIsErrOverlap(t *testing.T) {
	db, mock := newDB(t)
	r := bookingrepo.New(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ExclusionViolation, ConstraintName: "bookings_no_overlap"})

	tx, err := db.Begin()
	require.NoError(t, err)

	err = r.Insert(context.Background(), tx, insertInput(t))
	require.ErrorIs(t, err, bookingrepo.ErrOverlap)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_OtherErrorsPassThrough(t *testing.T) {
	db, mock := newDB(t)
	r := bookingrepo.New(db)

	pgErr := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO bookings").WillReturnError(pgErr)

	tx, err := db.Begin()
	require.NoError(t, err)

	err = r.Insert(context.Background(), tx, insertInput(t))
	require.False(t, errors.Is(err, bookingrepo.ErrOverlap))
	require.ErrorIs(t, err, pgErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_ScansGeneratedColumns(t *testing.T) {
	db, mock := newDB(t)
	r := bookingrepo.New(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

	tx, err := db.Begin()
	require.NoError(t, err)

	b := insertInput(t)
	require.NoError(t, r.Insert(context.Background(), tx, b))
	require.Equal(t, int64(42), b.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

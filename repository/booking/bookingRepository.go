// repository/booking/repo.go
package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"urbandrive/model"
)

// ErrOverlap is returned when an insert loses the race against the
// bookings_no_overlap exclusion constraint. The constraint, not the
// application-level pre-check, is the source of truth for the invariant.
var ErrOverlap = errors.New("booking overlaps an existing reservation")

type Repo interface {
	// Availability reads. Both use the inclusive overlap test
	// (existing.start <= end AND existing.end >= start) over
	// CONFIRMED/ACTIVE rows only.
	CountOverlapping(ctx context.Context, vehicleID int64, start, end time.Time) (int64, error)
	CountOverlappingTx(ctx context.Context, tx *sql.Tx, vehicleID int64, start, end time.Time) (int64, error)

	// Writes
	Insert(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	GetStatusForUpdate(ctx context.Context, tx *sql.Tx, id int64) (model.BookingStatus, int64, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error

	// Reads
	GetDetail(ctx context.Context, id int64) (*model.BookingDetail, error)
	ListByUser(ctx context.Context, userID int64) ([]model.BookingDetail, error)
	ListAll(ctx context.Context) ([]model.BookingDetail, error)
}

type repo struct {
	db *sql.DB
}

func New(db *sql.DB) Repo { return &repo{db: db} }

const overlapQuery = `
		SELECT COUNT(*)
		FROM bookings
		WHERE vehicle_id = $1
		AND status IN ('CONFIRMED', 'ACTIVE')
		AND start_date <= $3
		AND end_date >= $2`

func (r *repo) CountOverlapping(ctx context.Context, vehicleID int64, start, end time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, overlapQuery, vehicleID, start, end).Scan(&n)
	return n, err
}

func (r *repo) CountOverlappingTx(ctx context.Context, tx *sql.Tx, vehicleID int64, start, end time.Time) (int64, error) {
	var n int64
	err := tx.QueryRowContext(ctx, overlapQuery, vehicleID, start, end).Scan(&n)
	return n, err
}

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	var insurance, extras []byte
	var err error
	if b.Insurance != nil {
		if insurance, err = json.Marshal(b.Insurance); err != nil {
			return err
		}
	}
	if len(b.Extras) > 0 {
		if extras, err = json.Marshal(b.Extras); err != nil {
			return err
		}
	}

	const q = `
		INSERT INTO bookings
			(user_id, vehicle_id, start_date, end_date, total_price, status,
			 pickup_location, return_location, insurance, extras,
			 payment_status, payment_method, transaction_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, q,
		b.UserID, b.VehicleID, b.StartDate, b.EndDate, b.TotalPrice, b.Status,
		b.PickupLocation, b.ReturnLocation, insurance, extras,
		b.Payment.Status, b.Payment.Method, b.Payment.TransactionID,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
			return ErrOverlap
		}
		return err
	}
	return nil
}

func (r *repo) GetStatusForUpdate(ctx context.Context, tx *sql.Tx, id int64) (model.BookingStatus, int64, error) {
	const q = `
		SELECT status, vehicle_id
		FROM bookings
		WHERE id = $1
		FOR UPDATE`
	var s model.BookingStatus
	var vehicleID int64
	err := tx.QueryRowContext(ctx, q, id).Scan(&s, &vehicleID)
	return s, vehicleID, err
}

func (r *repo) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error {
	const q = `
		UPDATE bookings
		SET status = $2,
			updated_at = NOW()
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, status)
	return err
}

const detailColumns = `
		b.id, b.user_id, b.vehicle_id, b.start_date, b.end_date,
		b.total_price, b.status, b.pickup_location, b.return_location,
		b.insurance, b.extras,
		b.payment_status, b.payment_method, b.transaction_id,
		b.created_at, b.updated_at,
		v.name, v.category,
		u.first_name, u.last_name, u.email`

const detailFrom = `
		FROM bookings b
		JOIN vehicles v ON v.id = b.vehicle_id
		JOIN users u ON u.id = b.user_id`

func scanDetail(s interface{ Scan(...any) error }) (*model.BookingDetail, error) {
	var d model.BookingDetail
	var insurance, extras []byte
	err := s.Scan(
		&d.ID, &d.UserID, &d.VehicleID, &d.StartDate, &d.EndDate,
		&d.TotalPrice, &d.Status, &d.PickupLocation, &d.ReturnLocation,
		&insurance, &extras,
		&d.Payment.Status, &d.Payment.Method, &d.Payment.TransactionID,
		&d.CreatedAt, &d.UpdatedAt,
		&d.VehicleName, &d.VehicleCategory,
		&d.UserFirstName, &d.UserLastName, &d.UserEmail,
	)
	if err != nil {
		return nil, err
	}
	if len(insurance) > 0 {
		if err := json.Unmarshal(insurance, &d.Insurance); err != nil {
			return nil, err
		}
	}
	if len(extras) > 0 {
		if err := json.Unmarshal(extras, &d.Extras); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

func (r *repo) GetDetail(ctx context.Context, id int64) (*model.BookingDetail, error) {
	q := `SELECT` + detailColumns + detailFrom + `
		WHERE b.id = $1`
	return scanDetail(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.BookingDetail, error) {
	q := `SELECT` + detailColumns + detailFrom + `
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

func (r *repo) ListAll(ctx context.Context) ([]model.BookingDetail, error) {
	q := `SELECT` + detailColumns + detailFrom + `
		ORDER BY b.created_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

func collectDetails(rows *sql.Rows) ([]model.BookingDetail, error) {
	var out []model.BookingDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

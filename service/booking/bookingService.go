package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"urbandrive/model"
	"urbandrive/queue"
	bookingrepo "urbandrive/repository/booking"
	loyaltyrepo "urbandrive/repository/loyalty"
	vehiclerepo "urbandrive/repository/vehicle"
	"urbandrive/util/cache"
)

// errors used by controllers

type ErrCode string

const (
	ErrBadInput        ErrCode = "BAD_INPUT"
	ErrInvalidRange    ErrCode = "INVALID_RANGE"
	ErrVehicleNotFound ErrCode = "VEHICLE_NOT_FOUND"
	ErrUnavailable     ErrCode = "UNAVAILABLE"
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrNotOwner        ErrCode = "NOT_OWNER"
	ErrBadStatus       ErrCode = "BAD_STATUS"
	ErrBadTransition   ErrCode = "BAD_TRANSITION"
	ErrTimeout         ErrCode = "TIMEOUT"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// createTimeout bounds the whole check-and-insert so callers get a retryable
// error instead of guessing at in-flight state.
const createTimeout = 5 * time.Second

// CreateInput carries everything the admission controller needs. TotalPrice
// is trusted as supplied; pricing is not computed here.
type CreateInput struct {
	UserID         int64
	VehicleID      int64
	StartDate      time.Time
	EndDate        time.Time
	PickupLocation string
	ReturnLocation string
	TotalPrice     float64
	Insurance      *model.Insurance
	Extras         []model.Extra
	PaymentMethod  string
}

type Service interface {
	// Create admits a new booking: re-checks availability at write time,
	// persists the booking as CONFIRMED and accrues floor(totalPrice)
	// loyalty points, all in one transaction.
	Create(ctx context.Context, in CreateInput) (*model.BookingDetail, error)

	// Get returns one booking; only the owner or an admin may see it.
	Get(ctx context.Context, requesterID int64, isAdmin bool, id int64) (*model.BookingDetail, error)

	ListMine(ctx context.Context, userID int64) ([]model.BookingDetail, error)
	ListAll(ctx context.Context) ([]model.BookingDetail, error)

	// UpdateStatus applies an administrative status change, validated
	// against the booking status machine.
	UpdateStatus(ctx context.Context, id int64, status model.BookingStatus) error
}

type service struct {
	db    *sql.DB
	br    bookingrepo.Repo
	vr    vehiclerepo.Repo
	lr    loyaltyrepo.Repo
	pub   *queue.Publisher
	cache *cache.Cache
}

func New(db *sql.DB, br bookingrepo.Repo, vr vehiclerepo.Repo, lr loyaltyrepo.Repo, pub *queue.Publisher, c *cache.Cache) Service {
	return &service{db: db, br: br, vr: vr, lr: lr, pub: pub, cache: c}
}

func newTransactionID() string {
	return fmt.Sprintf("TXN-%d-%s", time.Now().UnixMilli(), strings.SplitN(uuid.NewString(), "-", 2)[0])
}

func (s *service) Create(ctx context.Context, in CreateInput) (*model.BookingDetail, error) {
	if in.UserID <= 0 || in.VehicleID <= 0 {
		return nil, makeErr(ErrBadInput)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, makeErr(ErrBadInput)
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, makeErr(ErrInvalidRange)
	}
	if in.PickupLocation == "" || in.ReturnLocation == "" {
		return nil, makeErr(ErrBadInput)
	}
	if in.TotalPrice < 0 {
		return nil, makeErr(ErrBadInput)
	}

	// vehicle must exist and be biddable
	v, err := s.vr.ByID(ctx, in.VehicleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrVehicleNotFound)
		}
		return nil, err
	}
	if !v.Biddable() {
		return nil, makeErr(ErrUnavailable)
	}

	method := in.PaymentMethod
	if method == "" {
		method = "card"
	}

	b := &model.Booking{
		UserID:         in.UserID,
		VehicleID:      in.VehicleID,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		TotalPrice:     in.TotalPrice,
		Status:         model.BookingConfirmed,
		PickupLocation: in.PickupLocation,
		ReturnLocation: in.ReturnLocation,
		Insurance:      in.Insurance,
		Extras:         in.Extras,
		Payment: model.PaymentInfo{
			Status:        "success",
			Method:        method,
			TransactionID: newTransactionID(),
		},
	}
	points := int64(math.Floor(in.TotalPrice))

	ctx, cancel := context.WithTimeout(ctx, createTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Fast-path availability check. The exclusion constraint on the insert
	// below is the authoritative guard; this only rejects early.
	n, err := s.br.CountOverlappingTx(ctx, tx, in.VehicleID, in.StartDate, in.EndDate)
	if err != nil {
		return nil, mapCtxErr(err)
	}
	if n > 0 {
		err = makeErr(ErrUnavailable)
		return nil, err
	}

	if err = s.br.Insert(ctx, tx, b); err != nil {
		if errors.Is(err, bookingrepo.ErrOverlap) {
			err = makeErr(ErrUnavailable)
		}
		return nil, mapCtxErr(err)
	}

	if points > 0 {
		if err = s.accrue(ctx, tx, b.UserID, b.ID, points); err != nil {
			return nil, mapCtxErr(err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, mapCtxErr(err)
	}

	s.cache.InvalidateVehicle(context.WithoutCancel(ctx), in.VehicleID)
	s.publishConfirmed(b, points)

	return s.br.GetDetail(context.WithoutCancel(ctx), b.ID)
}

// accrue credits points and promotes the tier inside the booking transaction,
// keeping the denormalized balance and the ledger in lockstep. Promotion is
// monotonic; accrual never demotes.
func (s *service) accrue(ctx context.Context, tx *sql.Tx, userID, bookingID, points int64) error {
	balance, tier, err := s.lr.BalanceForUpdate(ctx, tx, userID)
	if err != nil {
		return err
	}
	newBalance := balance + points
	newTier := model.HigherTier(tier, model.TierForPoints(newBalance))
	if err := s.lr.UpdateBalance(ctx, tx, userID, newBalance, newTier); err != nil {
		return err
	}
	return s.lr.InsertEntry(ctx, tx, &model.LoyaltyTransaction{
		UserID:      userID,
		BookingID:   &bookingID,
		Points:      points,
		EntryType:   model.EntryEarned,
		Description: fmt.Sprintf("Earned %d points for booking #%d", points, bookingID),
	})
}

func (s *service) publishConfirmed(b *model.Booking, points int64) {
	if s.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.pub.Publish(ctx, queue.BookingConfirmedQueue, queue.BookingConfirmedEvent{
		BookingID:     b.ID,
		UserID:        b.UserID,
		VehicleID:     b.VehicleID,
		StartDate:     b.StartDate.Format("2006-01-02"),
		EndDate:       b.EndDate.Format("2006-01-02"),
		TotalPrice:    b.TotalPrice,
		PointsEarned:  points,
		TransactionID: b.Payment.TransactionID,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	})
}

func mapCtxErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return makeErr(ErrTimeout)
	}
	return err
}

func (s *service) Get(ctx context.Context, requesterID int64, isAdmin bool, id int64) (*model.BookingDetail, error) {
	d, err := s.br.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if !isAdmin && d.UserID != requesterID {
		return nil, makeErr(ErrNotOwner)
	}
	return d, nil
}

func (s *service) ListMine(ctx context.Context, userID int64) ([]model.BookingDetail, error) {
	return s.br.ListByUser(ctx, userID)
}

func (s *service) ListAll(ctx context.Context) ([]model.BookingDetail, error) {
	return s.br.ListAll(ctx)
}

func (s *service) UpdateStatus(ctx context.Context, id int64, status model.BookingStatus) (err error) {
	if !status.Valid() {
		return makeErr(ErrBadStatus)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, vehicleID, err := s.br.GetStatusForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if !model.CanTransition(current, status) {
		return makeErr(ErrBadTransition)
	}
	if err = s.br.UpdateStatus(ctx, tx, id, status); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	// leaving or entering the CONFIRMED/ACTIVE set changes availability
	s.cache.InvalidateVehicle(context.WithoutCancel(ctx), vehicleID)
	return nil
}

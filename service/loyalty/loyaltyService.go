package loyalty

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"urbandrive/model"
	"urbandrive/queue"
	loyaltyrepo "urbandrive/repository/loyalty"
)

// errors used by controllers

type ErrCode string

const (
	ErrBadInput           ErrCode = "BAD_INPUT"
	ErrUserNotFound       ErrCode = "USER_NOT_FOUND"
	ErrRewardNotFound     ErrCode = "REWARD_NOT_FOUND"
	ErrInsufficientPoints ErrCode = "INSUFFICIENT_POINTS"
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

// StatusView is the loyalty snapshot returned to users: balance, tier,
// full history and the redeemable catalog.
type StatusView struct {
	Points  int64                      `json:"points"`
	Tier    model.Tier                 `json:"tier"`
	History []model.LoyaltyTransaction `json:"history"`
	Rewards []model.Reward             `json:"rewards"`
}

type Service interface {
	// Accrue credits points (> 0), promotes the tier when a threshold is
	// crossed and appends an EARNED ledger entry, all in one transaction.
	Accrue(ctx context.Context, userID int64, points int64, bookingID *int64, description string) error

	// Redeem debits the catalog cost of a reward. The cost is always read
	// from the catalog; a caller-supplied cost is never accepted. Returns
	// the new balance. Insufficient balance leaves no trace.
	Redeem(ctx context.Context, userID, rewardID int64) (int64, error)

	Status(ctx context.Context, userID int64) (*StatusView, error)

	// Reconcile recomputes the balance from the ledger and repairs the
	// denormalized counter when they disagree. Returns the drift found.
	Reconcile(ctx context.Context, userID int64) (int64, error)
	ReconcileAll(ctx context.Context) (repaired int64, err error)
}

type service struct {
	db  *sql.DB
	r   loyaltyrepo.Repo
	pub *queue.Publisher
}

func New(db *sql.DB, r loyaltyrepo.Repo, pub *queue.Publisher) Service {
	return &service{db: db, r: r, pub: pub}
}

func (s *service) Accrue(ctx context.Context, userID int64, points int64, bookingID *int64, description string) (err error) {
	if points <= 0 {
		return makeErr(ErrBadInput)
	}
	if description == "" {
		description = fmt.Sprintf("Earned %d points", points)
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

	balance, tier, err := s.r.BalanceForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrUserNotFound)
		}
		return err
	}

	newBalance := balance + points
	newTier := model.HigherTier(tier, model.TierForPoints(newBalance))
	if err = s.r.UpdateBalance(ctx, tx, userID, newBalance, newTier); err != nil {
		return err
	}
	if err = s.r.InsertEntry(ctx, tx, &model.LoyaltyTransaction{
		UserID:      userID,
		BookingID:   bookingID,
		Points:      points,
		EntryType:   model.EntryEarned,
		Description: description,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) Redeem(ctx context.Context, userID, rewardID int64) (newBalance int64, err error) {
	reward, err := s.r.RewardByID(ctx, rewardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, makeErr(ErrRewardNotFound)
		}
		return 0, err
	}
	if !reward.Active {
		return 0, makeErr(ErrRewardNotFound)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	balance, tier, err := s.r.BalanceForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, makeErr(ErrUserNotFound)
		}
		return 0, err
	}
	if balance < reward.PointsCost {
		err = makeErr(ErrInsufficientPoints)
		return 0, err
	}

	// Tier is deliberately not re-evaluated here: redemption spends points
	// but keeps the status the user earned.
	newBalance = balance - reward.PointsCost
	if err = s.r.UpdateBalance(ctx, tx, userID, newBalance, tier); err != nil {
		return 0, err
	}
	if err = s.r.InsertEntry(ctx, tx, &model.LoyaltyTransaction{
		UserID:      userID,
		Points:      -reward.PointsCost,
		EntryType:   model.EntryRedeemed,
		Description: fmt.Sprintf("Redeemed reward: %s", reward.Name),
	}); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (s *service) Status(ctx context.Context, userID int64) (*StatusView, error) {
	points, tier, err := s.r.Balance(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrUserNotFound)
		}
		return nil, err
	}
	history, err := s.r.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	rewards, err := s.r.ListRewards(ctx)
	if err != nil {
		return nil, err
	}
	return &StatusView{Points: points, Tier: tier, History: history, Rewards: rewards}, nil
}

func (s *service) Reconcile(ctx context.Context, userID int64) (drift int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stored, tier, err := s.r.BalanceForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, makeErr(ErrUserNotFound)
		}
		return 0, err
	}
	computed, err := s.r.SumEntries(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	drift = stored - computed
	if drift == 0 {
		return 0, tx.Commit()
	}

	// The ledger wins; the counter is just a cache of it.
	if err = s.r.UpdateBalance(ctx, tx, userID, computed, tier); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}

	if s.pub != nil {
		pubCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.pub.Publish(pubCtx, queue.LoyaltyDriftQueue, queue.LoyaltyDriftEvent{
			UserID:     userID,
			Stored:     stored,
			Computed:   computed,
			Repaired:   true,
			DetectedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
	return drift, nil
}

func (s *service) ReconcileAll(ctx context.Context) (int64, error) {
	ids, err := s.r.UserIDs(ctx)
	if err != nil {
		return 0, err
	}
	var repaired int64
	for _, id := range ids {
		drift, err := s.Reconcile(ctx, id)
		if err != nil {
			return repaired, err
		}
		if drift != 0 {
			repaired++
		}
	}
	return repaired, nil
}

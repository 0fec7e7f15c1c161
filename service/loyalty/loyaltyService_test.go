package loyalty_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"urbandrive/model"
	loyaltyrepo "urbandrive/repository/loyalty"
	ls "urbandrive/service/loyalty"
)

type repoMock struct {
	balForUpdateFn func(ctx context.Context, tx *sql.Tx, userID int64) (int64, model.Tier, error)
	updBalanceFn   func(ctx context.Context, tx *sql.Tx, userID, points int64, tier model.Tier) error
	insertEntryFn  func(ctx context.Context, tx *sql.Tx, e *model.LoyaltyTransaction) error
	balanceFn      func(ctx context.Context, userID int64) (int64, model.Tier, error)
	historyFn      func(ctx context.Context, userID int64) ([]model.LoyaltyTransaction, error)
	sumFn          func(ctx context.Context, tx *sql.Tx, userID int64) (int64, error)
	userIDsFn      func(ctx context.Context) ([]int64, error)
	rewardFn       func(ctx context.Context, id int64) (*model.Reward, error)
	listRewardsFn  func(ctx context.Context) ([]model.Reward, error)
}

var _ loyaltyrepo.Repo = (*repoMock)(nil)

func (m *repoMock) BalanceForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (int64, model.Tier, error) {
	return m.balForUpdateFn(ctx, tx, userID)
}
func (m *repoMock) UpdateBalance(ctx context.Context, tx *sql.Tx, userID, points int64, tier model.Tier) error {
	if m.updBalanceFn == nil {
		return nil
	}
	return m.updBalanceFn(ctx, tx, userID, points, tier)
}
func (m *repoMock) InsertEntry(ctx context.Context, tx *sql.Tx, e *model.LoyaltyTransaction) error {
	if m.insertEntryFn == nil {
		return nil
	}
	return m.insertEntryFn(ctx, tx, e)
}
func (m *repoMock) Balance(ctx context.Context, userID int64) (int64, model.Tier, error) {
	return m.balanceFn(ctx, userID)
}
func (m *repoMock) History(ctx context.Context, userID int64) ([]model.LoyaltyTransaction, error) {
	return m.historyFn(ctx, userID)
}
func (m *repoMock) SumEntries(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	return m.sumFn(ctx, tx, userID)
}
func (m *repoMock) UserIDs(ctx context.Context) ([]int64, error) { return m.userIDsFn(ctx) }
func (m *repoMock) RewardByID(ctx context.Context, id int64) (*model.Reward, error) {
	return m.rewardFn(ctx, id)
}
func (m *repoMock) ListRewards(ctx context.Context) ([]model.Reward, error) {
	return m.listRewardsFn(ctx)
}

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// --- tests ---

func TestAccrue_RejectsNonPositivePoints(t *testing.T) {
	s := ls.New(nil, &repoMock{}, nil)
	err := s.Accrue(context.Background(), 1, 0, nil, "")
	require.Equal(t, ls.ErrBadInput, ls.Code(err))
	err = s.Accrue(context.Background(), 1, -10, nil, "")
	require.Equal(t, ls.ErrBadInput, ls.Code(err))
}

func TestAccrue_UpdatesBalanceAndLedgerTogether(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var gotBalance int64
	var gotTier model.Tier
	var entry *model.LoyaltyTransaction
	m := &repoMock{
		balForUpdateFn: func(ctx context.Context, tx *sql.Tx, userID int64) (int64, model.Tier, error) {
			return 950, model.TierSilver, nil
		},
		updBalanceFn: func(ctx context.Context, tx *sql.Tx, userID, points int64, tier model.Tier) error {
			gotBalance, gotTier = points, tier
			return nil
		},
		insertEntryFn: func(ctx context.Context, tx *sql.Tx, e *model.LoyaltyTransaction) error {
			entry = e
			return nil
		},
	}

	s := ls.New(db, m, nil)
	require.NoError(t, s.Accrue(context.Background(), 7, 75, nil, "booking reward"))

	require.Equal(t, int64(1025), gotBalance)
	require.Equal(t, model.TierGold, gotTier, "crossing 1000 must promote to Gold")
	require.NotNil(t, entry)
	require.Equal(t, int64(75), entry.Points)
	require.Equal(t, model.EntryEarned, entry.EntryType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccrue_NeverDemotes(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var gotTier model.Tier
	m := &repoMock{
		balForUpdateFn: func(ctx context.Context, tx *sql.Tx, userID int64) (int64, model.Tier, error) {
			// balance was spent down below the Gold threshold, tier kept
			return 200, model.TierGold, nil
		},
		updBalanceFn: func(ctx context.Context, tx *sql.Tx, userID, points int64, tier model.Tier) error {
			gotTier = tier
			return nil
		},
	}

	s := ls.New(db, m, nil)
	require.NoError(t, s.Accrue(context.Background(), 7, 50, nil, ""))
	require.Equal(t, model.TierGold, gotTier)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeem_Success(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var gotBalance int64
	var entry *model.LoyaltyTransaction
	m := &repoMock{
		rewardFn: func(ctx context.Context, id int64) (*model.Reward, error) {
			require.Equal(t, int64(4), id)
			return &model.Reward{ID: 4, Name: "Free day", PointsCost: 500, Active: true}, nil
		},
		balForUpdateFn: func(ctx context.Context, tx *sql.Tx, userID int64) (int64, model.Tier, error) {
			return 800, model.TierSilver, nil
		},
		updBalanceFn: func(ctx context.Context, tx *sql.Tx, userID, points int64, tier model.Tier) error {
			gotBalance = points
			require.Equal(t, model.TierSilver, tier, "tier must not change on redemption")
			return nil
		},
		insertEntryFn: func(ctx context.Context, tx *sql.Tx, e *model.LoyaltyTransaction) error {
			entry = e
			return nil
		},
	}

	s := ls.New(db, m, nil)
	newBalance, err := s.Redeem(context.Background(), 7, 4)
	require.NoError(t, err)
	require.Equal(t, int64(300), newBalance)
	require.Equal(t, int64(300), gotBalance)
	require.NotNil(t, entry)
	require.Equal(t, int64(-500), entry.Points)
	require.Equal(t, model.EntryRedeemed, entry.EntryType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeem_InsufficientPointsLeavesNoTrace(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	m := &repoMock{
		rewardFn: func(ctx context.Context, id int64) (*model.Reward, error) {
			return &model.Reward{ID: 4, Name: "Free day", PointsCost: 500, Active: true}, nil
		},
		balForUpdateFn: func(ctx context.Context, tx *sql.Tx, userID int64) (int64, model.Tier, error) {
			return 300, model.TierSilver, nil
		},
		updBalanceFn: func(ctx context.Context, tx *sql.Tx, userID, points int64, tier model.Tier) error {
			t.Fatal("balance must not be written")
			return nil
		},
		insertEntryFn: func(ctx context.Context, tx *sql.Tx, e *model.LoyaltyTransaction) error {
			t.Fatal("no ledger entry on failed redemption")
			return nil
		},
	}

	s := ls.New(db, m, nil)
	_, err := s.Redeem(context.Background(), 7, 4)
	require.Equal(t, ls.ErrInsufficientPoints, ls.Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeem_RewardNotFound(t *testing.T) {
	m := &repoMock{
		rewardFn: func(ctx context.Context, id int64) (*model.Reward, error) {
			return nil, sql.ErrNoRows
		},
	}
	s := ls.New(nil, m, nil)
	_, err := s.Redeem(context.Background(), 7, 999)
	require.Equal(t, ls.ErrRewardNotFound, ls.Code(err))
}

func TestRedeem_InactiveReward(t *testing.T) {
	m := &repoMock{
		rewardFn: func(ctx context.Context, id int64) (*model.Reward, error) {
			return &model.Reward{ID: 4, PointsCost: 100, Active: false}, nil
		},
	}
	s := ls.New(nil, m, nil)
	_, err := s.Redeem(context.Background(), 7, 4)
	require.Equal(t, ls.ErrRewardNotFound, ls.Code(err))
}

func TestStatus(t *testing.T) {
	m := &repoMock{
		balanceFn: func(ctx context.Context, userID int64) (int64, model.Tier, error) {
			return 1200, model.TierGold, nil
		},
		historyFn: func(ctx context.Context, userID int64) ([]model.LoyaltyTransaction, error) {
			return []model.LoyaltyTransaction{{Points: 1200, EntryType: model.EntryEarned}}, nil
		},
		listRewardsFn: func(ctx context.Context) ([]model.Reward, error) {
			return []model.Reward{{ID: 1, Name: "Upgrade", PointsCost: 750, Active: true}}, nil
		},
	}
	s := ls.New(nil, m, nil)
	out, err := s.Status(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, int64(1200), out.Points)
	require.Equal(t, model.TierGold, out.Tier)
	require.Len(t, out.History, 1)
	require.Len(t, out.Rewards, 1)
}

func TestReconcile_RepairsDrift(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var repairedTo int64 = -1
	m := &repoMock{
		balForUpdateFn: func(ctx context.Context, tx *sql.Tx, userID int64) (int64, model.Tier, error) {
			return 300, model.TierSilver, nil
		},
		sumFn: func(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
			return 250, nil
		},
		updBalanceFn: func(ctx context.Context, tx *sql.Tx, userID, points int64, tier model.Tier) error {
			repairedTo = points
			return nil
		},
	}

	s := ls.New(db, m, nil)
	drift, err := s.Reconcile(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, int64(50), drift)
	require.Equal(t, int64(250), repairedTo, "ledger sum wins")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcile_NoDriftNoWrite(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	m := &repoMock{
		balForUpdateFn: func(ctx context.Context, tx *sql.Tx, userID int64) (int64, model.Tier, error) {
			return 250, model.TierSilver, nil
		},
		sumFn: func(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
			return 250, nil
		},
		updBalanceFn: func(ctx context.Context, tx *sql.Tx, userID, points int64, tier model.Tier) error {
			t.Fatal("no write expected when balance matches ledger")
			return nil
		},
	}

	s := ls.New(db, m, nil)
	drift, err := s.Reconcile(context.Background(), 7)
	require.NoError(t, err)
	require.Zero(t, drift)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileAll(t *testing.T) {
	db, mock := newDB(t)
	// two users, first drifted, second clean
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	balances := map[int64]int64{1: 100, 2: 40}
	sums := map[int64]int64{1: 90, 2: 40}
	m := &repoMock{
		userIDsFn: func(ctx context.Context) ([]int64, error) { return []int64{1, 2}, nil },
		balForUpdateFn: func(ctx context.Context, tx *sql.Tx, userID int64) (int64, model.Tier, error) {
			return balances[userID], model.TierSilver, nil
		},
		sumFn: func(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
			return sums[userID], nil
		},
	}

	s := ls.New(db, m, nil)
	repaired, err := s.ReconcileAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), repaired)
	require.NoError(t, mock.ExpectationsWereMet())
}

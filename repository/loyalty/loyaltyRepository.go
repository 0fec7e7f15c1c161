// repository/loyalty/repo.go
package loyalty

import (
	"context"
	"database/sql"

	"urbandrive/model"
)

type Repo interface {
	// Balance mutation. The row lock serializes concurrent earn/redeem on
	// the same account; balance update and ledger append must share a tx.
	BalanceForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (int64, model.Tier, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, userID int64, points int64, tier model.Tier) error
	InsertEntry(ctx context.Context, tx *sql.Tx, e *model.LoyaltyTransaction) error

	// Reads
	Balance(ctx context.Context, userID int64) (int64, model.Tier, error)
	History(ctx context.Context, userID int64) ([]model.LoyaltyTransaction, error)
	SumEntries(ctx context.Context, tx *sql.Tx, userID int64) (int64, error)
	UserIDs(ctx context.Context) ([]int64, error)

	// Reward catalog (external collaborator boundary)
	RewardByID(ctx context.Context, id int64) (*model.Reward, error)
	ListRewards(ctx context.Context) ([]model.Reward, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) BalanceForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (int64, model.Tier, error) {
	const q = `
		SELECT loyalty_points, loyalty_tier
		FROM users
		WHERE id = $1
		FOR UPDATE`
	var points int64
	var tier model.Tier
	err := tx.QueryRowContext(ctx, q, userID).Scan(&points, &tier)
	return points, tier, err
}

func (r *repo) UpdateBalance(ctx context.Context, tx *sql.Tx, userID int64, points int64, tier model.Tier) error {
	const q = `
		UPDATE users
		SET loyalty_points = $2,
			loyalty_tier = $3
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, userID, points, tier)
	return err
}

func (r *repo) InsertEntry(ctx context.Context, tx *sql.Tx, e *model.LoyaltyTransaction) error {
	const q = `
		INSERT INTO loyalty_transactions (user_id, booking_id, points, entry_type, description)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`
	return tx.QueryRowContext(ctx, q,
		e.UserID, e.BookingID, e.Points, e.EntryType, e.Description,
	).Scan(&e.ID, &e.CreatedAt)
}

func (r *repo) Balance(ctx context.Context, userID int64) (int64, model.Tier, error) {
	const q = `
		SELECT loyalty_points, loyalty_tier
		FROM users
		WHERE id = $1`
	var points int64
	var tier model.Tier
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&points, &tier)
	return points, tier, err
}

func (r *repo) History(ctx context.Context, userID int64) ([]model.LoyaltyTransaction, error) {
	const q = `
		SELECT id, user_id, booking_id, points, entry_type, description, created_at
		FROM loyalty_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LoyaltyTransaction
	for rows.Next() {
		var e model.LoyaltyTransaction
		if err := rows.Scan(&e.ID, &e.UserID, &e.BookingID, &e.Points, &e.EntryType, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SumEntries recomputes a user's balance from the ledger. The ledger is the
// source of truth; the denormalized users.loyalty_points column is only a
// read optimization.
func (r *repo) SumEntries(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	const q = `
		SELECT COALESCE(SUM(points), 0)
		FROM loyalty_transactions
		WHERE user_id = $1`
	var sum int64
	err := tx.QueryRowContext(ctx, q, userID).Scan(&sum)
	return sum, err
}

func (r *repo) UserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *repo) RewardByID(ctx context.Context, id int64) (*model.Reward, error) {
	const q = `
		SELECT id, name, description, points_cost, active
		FROM rewards
		WHERE id = $1`
	rw := &model.Reward{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(&rw.ID, &rw.Name, &rw.Description, &rw.PointsCost, &rw.Active)
	if err != nil {
		return nil, err
	}
	return rw, nil
}

func (r *repo) ListRewards(ctx context.Context) ([]model.Reward, error) {
	const q = `
		SELECT id, name, description, points_cost, active
		FROM rewards
		WHERE active
		ORDER BY points_cost`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reward
	for rows.Next() {
		var rw model.Reward
		if err := rows.Scan(&rw.ID, &rw.Name, &rw.Description, &rw.PointsCost, &rw.Active); err != nil {
			return nil, err
		}
		out = append(out, rw)
	}
	return out, rows.Err()
}

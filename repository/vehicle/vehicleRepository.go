// repository/vehicle/repo.go
package vehicle

import (
	"context"
	"database/sql"

	"urbandrive/model"
)

// The booking core does not own vehicle lifecycle; it only needs to confirm
// a vehicle exists and may be booked.
type Repo interface {
	ByID(ctx context.Context, id int64) (*model.Vehicle, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) ByID(ctx context.Context, id int64) (*model.Vehicle, error) {
	const q = `
		SELECT id, name, category, status
		FROM vehicles
		WHERE id = $1`
	v := &model.Vehicle{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(&v.ID, &v.Name, &v.Category, &v.Status)
	if err != nil {
		return nil, err
	}
	return v, nil
}

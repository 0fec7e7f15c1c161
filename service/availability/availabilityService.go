package availability

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidRange is returned for inverted date ranges instead of a
// meaningless availability answer.
var ErrInvalidRange = errors.New("end date before start date")

// Repo is the read-side slice of the booking store the oracle needs.
type Repo interface {
	CountOverlapping(ctx context.Context, vehicleID int64, start, end time.Time) (int64, error)
}

// Service answers "may this vehicle be booked over [start, end]?". It has no
// side effects and its answer may be stale the moment it is returned; the
// admission controller re-checks at write time and the store's exclusion
// constraint settles any race.
type Service interface {
	IsAvailable(ctx context.Context, vehicleID int64, start, end time.Time) (bool, error)
}

type service struct {
	r Repo
}

func New(r Repo) Service { return &service{r: r} }

func (s *service) IsAvailable(ctx context.Context, vehicleID int64, start, end time.Time) (bool, error) {
	if end.Before(start) {
		return false, ErrInvalidRange
	}
	n, err := s.r.CountOverlapping(ctx, vehicleID, start, end)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

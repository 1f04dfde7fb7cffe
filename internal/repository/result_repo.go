package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/keimalab/keima-server/internal/domain"
)

// ResultRepository persists finishing orders. One immutable result per race.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Save records the finishing order for a race. Returns domain.ErrResultExists
// when a result was already recorded; results are never overwritten.
func (r *ResultRepository) Save(ctx context.Context, raceID int64, order []int) error {
	arr := make(pq.Int64Array, len(order))
	for i, p := range order {
		arr[i] = int64(p)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO race_results (race_id, finish_order)
		VALUES ($1, $2)
		ON CONFLICT (race_id) DO NOTHING`,
		raceID, arr)
	if err != nil {
		return fmt.Errorf("result_repo.Save: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrResultExists
	}
	return nil
}

// Get returns the finishing order for a race, or domain.ErrResultNotFound.
func (r *ResultRepository) Get(ctx context.Context, raceID int64) (*domain.RaceResult, error) {
	var arr pq.Int64Array
	err := r.db.GetContext(ctx, &arr,
		`SELECT finish_order FROM race_results WHERE race_id = $1`,
		raceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrResultNotFound
		}
		return nil, fmt.Errorf("result_repo.Get: %w", err)
	}
	order := make([]int, len(arr))
	for i, p := range arr {
		order[i] = int(p)
	}
	return &domain.RaceResult{RaceID: raceID, Order: order}, nil
}

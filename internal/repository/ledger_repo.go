// Package repository holds all PostgreSQL persistence for the wager system.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keimalab/keima-server/internal/domain"
)

// LedgerRepository persists the append-only per-team coin history. A team's
// current balance is the row with the highest race_id (insertion order breaks
// ties); rows are never updated in place.
//
// Because balance mutation is read-latest-then-append, Credit and Debit take
// a per-team advisory transaction lock (pg_advisory_xact_lock) so concurrent
// mutations for the same team serialize instead of appending from a stale
// read.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetCoins returns a team's balance: the latest entry when raceID is nil,
// otherwise the entry recorded at that race. Teams with no history have
// balance 0.
func (r *LedgerRepository) GetCoins(ctx context.Context, team string, raceID *int64) (int64, error) {
	var coins int64
	var err error
	if raceID == nil {
		err = r.db.GetContext(ctx, &coins, `
			SELECT coins FROM coins
			WHERE team_name = $1
			ORDER BY race_id DESC, id DESC
			LIMIT 1`,
			team)
	} else {
		err = r.db.GetContext(ctx, &coins, `
			SELECT coins FROM coins
			WHERE team_name = $1 AND race_id = $2
			ORDER BY id DESC
			LIMIT 1`,
			team, *raceID)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("ledger_repo.GetCoins: %w", err)
	}
	return coins, nil
}

// SetCoins appends an admin balance override. When raceID is nil the entry is
// recorded at max(existing race_id)+1, or 0 for a team with no history.
func (r *LedgerRepository) SetCoins(ctx context.Context, team string, coins int64, raceID *int64) error {
	var rid int64
	if raceID != nil {
		rid = *raceID
	} else {
		err := r.db.GetContext(ctx, &rid, `
			SELECT COALESCE(MAX(race_id) + 1, 0) FROM coins WHERE team_name = $1`,
			team)
		if err != nil {
			return fmt.Errorf("ledger_repo.SetCoins next race_id: %w", err)
		}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO coins (team_name, race_id, coins) VALUES ($1, $2, $3)`,
		team, rid, coins)
	if err != nil {
		return fmt.Errorf("ledger_repo.SetCoins insert: %w", err)
	}
	return nil
}

// EnsureTeam seeds a team that has no history yet with startingCoins at race 0
// and returns the team's current balance. Must run inside the transaction
// that goes on to mutate the balance.
func (r *LedgerRepository) EnsureTeam(ctx context.Context, tx *sqlx.Tx, team string, startingCoins int64) (int64, error) {
	if err := lockTeam(ctx, tx, team); err != nil {
		return 0, fmt.Errorf("ledger_repo.EnsureTeam: %w", err)
	}
	coins, ok, err := latestCoins(ctx, tx, team)
	if err != nil {
		return 0, fmt.Errorf("ledger_repo.EnsureTeam: %w", err)
	}
	if ok {
		return coins, nil
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO coins (team_name, race_id, coins) VALUES ($1, 0, $2)`,
		team, startingCoins)
	if err != nil {
		return 0, fmt.Errorf("ledger_repo.EnsureTeam insert: %w", err)
	}
	return startingCoins, nil
}

// Credit appends a new balance entry at raceID with delta added to the
// current balance and returns the new balance.
func (r *LedgerRepository) Credit(ctx context.Context, tx *sqlx.Tx, team string, raceID, delta int64) (int64, error) {
	if err := lockTeam(ctx, tx, team); err != nil {
		return 0, fmt.Errorf("ledger_repo.Credit: %w", err)
	}
	coins, _, err := latestCoins(ctx, tx, team)
	if err != nil {
		return 0, fmt.Errorf("ledger_repo.Credit: %w", err)
	}
	newBalance := coins + delta
	_, err = tx.ExecContext(ctx,
		`INSERT INTO coins (team_name, race_id, coins) VALUES ($1, $2, $3)`,
		team, raceID, newBalance)
	if err != nil {
		return 0, fmt.Errorf("ledger_repo.Credit insert: %w", err)
	}
	return newBalance, nil
}

// Debit appends a new balance entry at raceID with delta subtracted. Returns
// domain.ErrInsufficientCoins, writing nothing, when the balance cannot cover
// the delta.
func (r *LedgerRepository) Debit(ctx context.Context, tx *sqlx.Tx, team string, raceID, delta int64) (int64, error) {
	if err := lockTeam(ctx, tx, team); err != nil {
		return 0, fmt.Errorf("ledger_repo.Debit: %w", err)
	}
	coins, _, err := latestCoins(ctx, tx, team)
	if err != nil {
		return 0, fmt.Errorf("ledger_repo.Debit: %w", err)
	}
	if coins < delta {
		return 0, domain.ErrInsufficientCoins
	}
	newBalance := coins - delta
	_, err = tx.ExecContext(ctx,
		`INSERT INTO coins (team_name, race_id, coins) VALUES ($1, $2, $3)`,
		team, raceID, newBalance)
	if err != nil {
		return 0, fmt.Errorf("ledger_repo.Debit insert: %w", err)
	}
	return newBalance, nil
}

// History returns a team's full balance history, newest first.
func (r *LedgerRepository) History(ctx context.Context, team string, limit, offset int) ([]*domain.BalanceEntry, error) {
	var entries []*domain.BalanceEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM coins
		WHERE team_name = $1
		ORDER BY race_id DESC, id DESC
		LIMIT $2 OFFSET $3`,
		team, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ledger_repo.History: %w", err)
	}
	return entries, nil
}

// ── internal helpers ─────────────────────────────────────────────────────────

// lockTeam serializes balance mutations for one team until the transaction
// ends. Row-level FOR UPDATE is not enough for an append-only table: the new
// latest row is invisible to a waiter that already selected the old one.
func lockTeam(ctx context.Context, tx *sqlx.Tx, team string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, team)
	return err
}

// latestCoins reads the current balance inside tx. ok is false for a team
// with no history.
func latestCoins(ctx context.Context, tx *sqlx.Tx, team string) (coins int64, ok bool, err error) {
	err = tx.GetContext(ctx, &coins, `
		SELECT coins FROM coins
		WHERE team_name = $1
		ORDER BY race_id DESC, id DESC
		LIMIT 1`,
		team)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return coins, true, nil
}

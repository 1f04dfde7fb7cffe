package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/keimalab/keima-server/internal/domain"
)

// TicketRepository handles all database operations for purchased tickets.
type TicketRepository struct {
	db *sqlx.DB
}

// NewTicketRepository creates a new TicketRepository.
func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// ticketRow maps the tickets table, with the up-to-three picks stored in the
// one/two/three columns.
type ticketRow struct {
	ID        uuid.UUID     `db:"id"`
	TeamName  string        `db:"team_name"`
	RaceID    int64         `db:"race_id"`
	Type      string        `db:"ticket_type"`
	One       int64         `db:"one"`
	Two       sql.NullInt64 `db:"two"`
	Three     sql.NullInt64 `db:"three"`
	Unit      int64         `db:"unit"`
	Status    string        `db:"status"`
	Payout    int64         `db:"payout"`
	PlacedAt  time.Time     `db:"placed_at"`
	SettledAt *time.Time    `db:"settled_at"`
}

func toRow(t *domain.Ticket) ticketRow {
	row := ticketRow{
		ID:        t.ID,
		TeamName:  t.TeamName,
		RaceID:    t.RaceID,
		Type:      string(t.Type),
		Unit:      t.Unit,
		Status:    string(t.Status),
		Payout:    t.Payout,
		PlacedAt:  t.PlacedAt,
		SettledAt: t.SettledAt,
	}
	if len(t.Picks) > 0 {
		row.One = int64(t.Picks[0])
	}
	if len(t.Picks) > 1 {
		row.Two = sql.NullInt64{Int64: int64(t.Picks[1]), Valid: true}
	}
	if len(t.Picks) > 2 {
		row.Three = sql.NullInt64{Int64: int64(t.Picks[2]), Valid: true}
	}
	return row
}

func (row ticketRow) toDomain() *domain.Ticket {
	picks := []int{int(row.One)}
	if row.Two.Valid {
		picks = append(picks, int(row.Two.Int64))
	}
	if row.Three.Valid {
		picks = append(picks, int(row.Three.Int64))
	}
	return &domain.Ticket{
		ID:        row.ID,
		TeamName:  row.TeamName,
		RaceID:    row.RaceID,
		Type:      domain.TicketType(row.Type),
		Picks:     picks,
		Unit:      row.Unit,
		Status:    domain.TicketStatus(row.Status),
		Payout:    row.Payout,
		PlacedAt:  row.PlacedAt,
		SettledAt: row.SettledAt,
	}
}

// Store inserts a new ticket inside an existing transaction.
func (r *TicketRepository) Store(ctx context.Context, tx *sqlx.Tx, t *domain.Ticket) error {
	row := toRow(t)
	query := `
		INSERT INTO tickets
			(id, team_name, race_id, ticket_type, one, two, three, unit, status, payout, placed_at)
		VALUES
			(:id, :team_name, :race_id, :ticket_type, :one, :two, :three, :unit, :status, :payout, :placed_at)`
	if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("ticket_repo.Store: %w", err)
	}
	return nil
}

// GetByRace returns every ticket bound to a race, in purchase order.
func (r *TicketRepository) GetByRace(ctx context.Context, raceID int64) ([]*domain.Ticket, error) {
	var rows []ticketRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM tickets WHERE race_id = $1 ORDER BY placed_at ASC, id ASC`,
		raceID)
	if err != nil {
		return nil, fmt.Errorf("ticket_repo.GetByRace: %w", err)
	}
	return rowsToDomain(rows), nil
}

// GetByTeamAndRace returns one team's tickets for a race, in purchase order.
func (r *TicketRepository) GetByTeamAndRace(ctx context.Context, team string, raceID int64) ([]*domain.Ticket, error) {
	var rows []ticketRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM tickets WHERE team_name = $1 AND race_id = $2 ORDER BY placed_at ASC, id ASC`,
		team, raceID)
	if err != nil {
		return nil, fmt.Errorf("ticket_repo.GetByTeamAndRace: %w", err)
	}
	return rowsToDomain(rows), nil
}

// MarkSettled records a ticket's final status and payout inside a transaction.
// Guarded by status='pending' so a ticket is never evaluated twice; a guard
// miss reports domain.ErrTicketNotFound.
func (r *TicketRepository) MarkSettled(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status domain.TicketStatus, payout int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE tickets
		SET status = $1, payout = $2, settled_at = now()
		WHERE id = $3 AND status = 'pending'`,
		string(status), payout, id)
	if err != nil {
		return fmt.Errorf("ticket_repo.MarkSettled: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func rowsToDomain(rows []ticketRow) []*domain.Ticket {
	tickets := make([]*domain.Ticket, 0, len(rows))
	for _, row := range rows {
		tickets = append(tickets, row.toDomain())
	}
	return tickets
}

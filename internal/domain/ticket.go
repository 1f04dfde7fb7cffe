// Package domain defines the core business entities and types for the
// keima racing wager system.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// TicketType determines how many finishing positions a ticket predicts.
type TicketType string

const (
	// TicketTypeWin predicts the first finisher only.
	TicketTypeWin TicketType = "win"

	// TicketTypeExacta predicts the first two finishers in exact order.
	// This system always treats the 2-pick type as order-sensitive (exacta,
	// not quinella).
	TicketTypeExacta TicketType = "exacta"

	// TicketTypeTrifecta predicts the first three finishers in exact order.
	TicketTypeTrifecta TicketType = "trifecta"
)

// PickCount returns how many picks a ticket of this type must carry.
// Returns 0 for an unrecognised type.
func (t TicketType) PickCount() int {
	switch t {
	case TicketTypeWin:
		return 1
	case TicketTypeExacta:
		return 2
	case TicketTypeTrifecta:
		return 3
	default:
		return 0
	}
}

// IsValid returns true if the ticket type is recognised.
func (t TicketType) IsValid() bool {
	return t.PickCount() > 0
}

// TicketStatus represents the settlement state of a ticket.
type TicketStatus string

const (
	TicketStatusPending TicketStatus = "pending" // bought, race not settled
	TicketStatusWon     TicketStatus = "won"     // matched the race result
	TicketStatusLost    TicketStatus = "lost"    // did not match
)

// ──────────────────────────────────────────────────────────────────────────────
// Ticket
// ──────────────────────────────────────────────────────────────────────────────

// Ticket is a single wager bound to one race. Immutable once created; only
// Status, Payout and SettledAt change, exactly once, at settlement.
type Ticket struct {
	ID        uuid.UUID    `json:"id"         db:"id"`
	TeamName  string       `json:"team_name"  db:"team_name"`
	RaceID    int64        `json:"race_id"    db:"race_id"`
	Type      TicketType   `json:"ticket_type" db:"ticket_type"`
	Picks     []int        `json:"picks"      db:"-"` // mapped to one/two/three columns
	Unit      int64        `json:"unit"       db:"unit"`
	Status    TicketStatus `json:"status"     db:"status"`
	Payout    int64        `json:"payout"     db:"payout"`
	PlacedAt  time.Time    `json:"placed_at"  db:"placed_at"`
	SettledAt *time.Time   `json:"settled_at" db:"settled_at"`
}

// IsPending returns true while the ticket has not been settled.
func (t *Ticket) IsPending() bool {
	return t.Status == TicketStatusPending
}

// Validate checks a ticket against the configured entrant count before it is
// persisted. Returns the first violation as a sentinel error.
func (t *Ticket) Validate(playerCount int) error {
	if !t.Type.IsValid() {
		return ErrInvalidTicketType
	}
	if len(t.Picks) != t.Type.PickCount() {
		return ErrInvalidPickCount
	}
	seen := make(map[int]bool, len(t.Picks))
	for _, p := range t.Picks {
		if p < 1 || p > playerCount {
			return ErrInvalidPick
		}
		if seen[p] {
			return ErrInvalidPick
		}
		seen[p] = true
	}
	if t.Unit <= 0 {
		return ErrInvalidUnit
	}
	return nil
}

// MatchesResult reports whether the ticket's picks match the leading
// positions of order. The comparison is positional for every type: the n-th
// pick must equal the n-th finisher. Unrecognised types never match.
func (t *Ticket) MatchesResult(order []int) bool {
	n := t.Type.PickCount()
	if n == 0 || len(t.Picks) != n || len(order) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if t.Picks[i] != order[i] {
			return false
		}
	}
	return true
}

// ──────────────────────────────────────────────────────────────────────────────
// TicketRequest — value object used by TicketService
// ──────────────────────────────────────────────────────────────────────────────

// TicketRequest carries the validated inputs for one ticket in a purchase.
type TicketRequest struct {
	Type  TicketType `json:"ticket_type"`
	Picks []int      `json:"picks"`
	Unit  int64      `json:"unit"`
}

// PurchaseReceipt summarises an accepted purchase batch.
type PurchaseReceipt struct {
	TeamName       string      `json:"team_name"`
	RaceID         int64       `json:"race_id"`
	TicketIDs      []uuid.UUID `json:"ticket_ids"`
	CoinsSpent     int64       `json:"coins_spent"`
	CoinsRemaining int64       `json:"coins_remaining"`
}

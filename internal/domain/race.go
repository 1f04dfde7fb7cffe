package domain

// ──────────────────────────────────────────────────────────────────────────────
// RaceState
// ──────────────────────────────────────────────────────────────────────────────

// RacePhase is the derived lifecycle phase of the active race.
type RacePhase string

const (
	PhaseOpen   RacePhase = "open"   // tickets can be bought
	PhaseClosed RacePhase = "closed" // betting window over, awaiting settlement
	PhasePaid   RacePhase = "paid"   // settlement executed for this race
)

// RaceState is the lifecycle snapshot of the single active race.
// Invariant: TicketBuy and TicketPaid are never both true.
type RaceState struct {
	RaceID     int64 `json:"race_id"`
	TicketBuy  bool  `json:"ticket_buy"`
	TicketPaid bool  `json:"ticket_paid"`
}

// Phase derives the lifecycle phase from the two flags.
func (s RaceState) Phase() RacePhase {
	switch {
	case s.TicketBuy:
		return PhaseOpen
	case s.TicketPaid:
		return PhasePaid
	default:
		return PhaseClosed
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// RaceResult
// ──────────────────────────────────────────────────────────────────────────────

// RaceResult records the finishing order for one race. Immutable once saved.
type RaceResult struct {
	RaceID int64 `json:"race_id" db:"race_id"`
	Order  []int `json:"order"   db:"-"`
}

// ValidateResult checks a finishing order against the configured entrant
// count: exact length, every entrant in range, no entrant twice.
func ValidateResult(order []int, playerCount int) error {
	if len(order) != playerCount {
		return ErrInvalidResultLength
	}
	seen := make(map[int]bool, len(order))
	for _, p := range order {
		if p < 1 || p > playerCount || seen[p] {
			return ErrInvalidResultLength
		}
		seen[p] = true
	}
	return nil
}

// Package reward computes ticket payouts from a race result. Engines are
// pure: no I/O, no clock, no shared state — the settlement service owns all
// persistence around them.
package reward

import (
	"github.com/google/uuid"

	"github.com/keimalab/keima-server/internal/config"
	"github.com/keimalab/keima-server/internal/domain"
)

// Payout is the settlement outcome for one evaluated ticket. Every ticket
// passed to an engine appears exactly once in the returned slice.
type Payout struct {
	TicketID uuid.UUID
	TeamName string
	Coins    int64
	Won      bool
}

// Engine evaluates a set of tickets against a finishing order.
type Engine interface {
	// Settle returns one Payout per ticket. It fails with
	// domain.ErrInvalidResultLength when the result does not list every
	// entrant exactly once.
	Settle(tickets []*domain.Ticket, result []int) ([]Payout, error)
}

// New selects the payout engine for the configured scheme.
func New(cfg *config.Config) Engine {
	if cfg.Game.Scheme == config.SchemePool {
		return NewPoolEngine(cfg.Game.TakeRate, cfg.Game.PlayerCount)
	}
	return NewFixedEngine(Rates{
		Win:      cfg.Game.WinRate,
		Exacta:   cfg.Game.ExactaRate,
		Trifecta: cfg.Game.TrifectaRate,
	}, cfg.Game.PlayerCount)
}

package reward

import (
	"github.com/keimalab/keima-server/internal/domain"
)

// Rates holds the fixed-scheme multiplier per ticket type.
type Rates struct {
	Win      int64
	Exacta   int64
	Trifecta int64
}

// FixedEngine pays rate × unit for every ticket whose picks match the leading
// finishing positions. No house take is applied in this scheme.
type FixedEngine struct {
	rates       Rates
	playerCount int
}

// NewFixedEngine creates a FixedEngine.
func NewFixedEngine(rates Rates, playerCount int) *FixedEngine {
	return &FixedEngine{rates: rates, playerCount: playerCount}
}

// Settle implements Engine.
//
// A ticket wins when its picks equal the corresponding prefix of the result:
// pick 1 == first finisher for win, picks 1–2 for exacta, picks 1–3 for
// trifecta — always order-sensitive. A ticket with an unrecognised type is
// marked lost with payout 0 rather than failing the whole run.
func (e *FixedEngine) Settle(tickets []*domain.Ticket, result []int) ([]Payout, error) {
	if err := domain.ValidateResult(result, e.playerCount); err != nil {
		return nil, err
	}

	payouts := make([]Payout, 0, len(tickets))
	for _, t := range tickets {
		p := Payout{TicketID: t.ID, TeamName: t.TeamName}
		if t.MatchesResult(result) {
			p.Won = true
			p.Coins = e.rateFor(t.Type) * t.Unit
		}
		payouts = append(payouts, p)
	}
	return payouts, nil
}

func (e *FixedEngine) rateFor(t domain.TicketType) int64 {
	switch t {
	case domain.TicketTypeWin:
		return e.rates.Win
	case domain.TicketTypeExacta:
		return e.rates.Exacta
	case domain.TicketTypeTrifecta:
		return e.rates.Trifecta
	default:
		return 0
	}
}

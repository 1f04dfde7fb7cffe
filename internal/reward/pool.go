package reward

import (
	"github.com/shopspring/decimal"

	"github.com/keimalab/keima-server/internal/domain"
)

// PoolEngine distributes a pari-mutuel pool per ticket type: everyone who bet
// on the exact winning combination splits that type's pool, minus the house
// take, proportionally to stake.
type PoolEngine struct {
	takeRate    decimal.Decimal
	playerCount int
}

// NewPoolEngine creates a PoolEngine with the given house take (e.g. 0.15).
func NewPoolEngine(takeRate float64, playerCount int) *PoolEngine {
	return &PoolEngine{
		takeRate:    decimal.NewFromFloat(takeRate),
		playerCount: playerCount,
	}
}

// Settle implements Engine.
//
// Per ticket type:
//
//	pool          = Σ unit across all tickets of the type
//	winnerStake   = Σ unit across tickets on the exact winning combination
//	distributable = pool × (1 − takeRate)
//	payout        = ⌊ unit / winnerStake × distributable ⌋
//
// Payouts are truncated to whole coins, never rounded, so the sum of payouts
// can never exceed the distributable amount; the rounding residue stays with
// the house. When winnerStake is zero the pool is not distributed at all —
// the house retains it.
func (e *PoolEngine) Settle(tickets []*domain.Ticket, result []int) ([]Payout, error) {
	if err := domain.ValidateResult(result, e.playerCount); err != nil {
		return nil, err
	}

	pools := make(map[domain.TicketType]int64)
	winnerStakes := make(map[domain.TicketType]int64)
	won := make(map[*domain.Ticket]bool, len(tickets))

	for _, t := range tickets {
		if !t.Type.IsValid() {
			continue // unknown type joins no pool, pays nothing
		}
		pools[t.Type] += t.Unit
		if t.MatchesResult(result) {
			winnerStakes[t.Type] += t.Unit
			won[t] = true
		}
	}

	one := decimal.NewFromInt(1)
	keep := one.Sub(e.takeRate)

	payouts := make([]Payout, 0, len(tickets))
	for _, t := range tickets {
		p := Payout{TicketID: t.ID, TeamName: t.TeamName}
		if won[t] {
			p.Won = true
			distributable := decimal.NewFromInt(pools[t.Type]).Mul(keep)
			winnerStake := decimal.NewFromInt(winnerStakes[t.Type])
			// won[t] implies winnerStakes[t.Type] >= t.Unit > 0
			p.Coins = decimal.NewFromInt(t.Unit).
				Mul(distributable).
				Div(winnerStake).
				Floor().
				IntPart()
		}
		payouts = append(payouts, p)
	}
	return payouts, nil
}

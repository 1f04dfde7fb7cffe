package reward_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/keimalab/keima-server/internal/domain"
	"github.com/keimalab/keima-server/internal/reward"
)

func defaultRates() reward.Rates {
	return reward.Rates{Win: 4, Exacta: 12, Trifecta: 28}
}

func ticket(team string, tt domain.TicketType, picks []int, unit int64) *domain.Ticket {
	return &domain.Ticket{
		ID:       uuid.New(),
		TeamName: team,
		Type:     tt,
		Picks:    picks,
		Unit:     unit,
		Status:   domain.TicketStatusPending,
	}
}

func TestFixedEngine_WinTicket(t *testing.T) {
	e := reward.NewFixedEngine(defaultRates(), 4)
	result := []int{1, 2, 3, 4}

	tests := []struct {
		name  string
		picks []int
		unit  int64
		want  int64
	}{
		{"first finisher picked", []int{1}, 2, 8},
		{"unit scales payout", []int{1}, 5, 20},
		{"second finisher picked", []int{2}, 2, 0},
		{"last finisher picked", []int{4}, 1, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payouts, err := e.Settle([]*domain.Ticket{ticket("alpha", domain.TicketTypeWin, tc.picks, tc.unit)}, result)
			if err != nil {
				t.Fatalf("Settle() error = %v", err)
			}
			if len(payouts) != 1 {
				t.Fatalf("len(payouts) = %d, want 1", len(payouts))
			}
			if payouts[0].Coins != tc.want {
				t.Errorf("Coins = %d, want %d", payouts[0].Coins, tc.want)
			}
			if payouts[0].Won != (tc.want > 0) {
				t.Errorf("Won = %v, want %v", payouts[0].Won, tc.want > 0)
			}
		})
	}
}

func TestFixedEngine_ExactaIsOrderSensitive(t *testing.T) {
	e := reward.NewFixedEngine(defaultRates(), 4)
	result := []int{3, 1, 2, 4}

	exact := ticket("alpha", domain.TicketTypeExacta, []int{3, 1}, 1)
	reversed := ticket("alpha", domain.TicketTypeExacta, []int{1, 3}, 1)

	payouts, err := e.Settle([]*domain.Ticket{exact, reversed}, result)
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if payouts[0].Coins != 12 || !payouts[0].Won {
		t.Errorf("exact order: Coins = %d Won = %v, want 12 true", payouts[0].Coins, payouts[0].Won)
	}
	if payouts[1].Coins != 0 || payouts[1].Won {
		t.Errorf("reversed order: Coins = %d Won = %v, want 0 false", payouts[1].Coins, payouts[1].Won)
	}
}

func TestFixedEngine_Trifecta(t *testing.T) {
	e := reward.NewFixedEngine(defaultRates(), 4)
	result := []int{1, 2, 3, 4}

	exact := ticket("alpha", domain.TicketTypeTrifecta, []int{1, 2, 3}, 1)
	wrongOrder := ticket("alpha", domain.TicketTypeTrifecta, []int{2, 1, 3}, 1)

	payouts, err := e.Settle([]*domain.Ticket{exact, wrongOrder}, result)
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if payouts[0].Coins != 28 {
		t.Errorf("exact trifecta payout = %d, want 28", payouts[0].Coins)
	}
	if payouts[1].Coins != 0 {
		t.Errorf("wrong-order trifecta payout = %d, want 0", payouts[1].Coins)
	}
}

func TestFixedEngine_UnknownTypeIsNoop(t *testing.T) {
	e := reward.NewFixedEngine(defaultRates(), 4)

	bad := ticket("alpha", domain.TicketType("superfecta"), []int{1, 2, 3, 4}, 3)
	good := ticket("alpha", domain.TicketTypeWin, []int{1}, 1)

	payouts, err := e.Settle([]*domain.Ticket{bad, good}, []int{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("unknown type should not fail the run: %v", err)
	}
	if payouts[0].Coins != 0 || payouts[0].Won {
		t.Errorf("unknown type: Coins = %d Won = %v, want 0 false", payouts[0].Coins, payouts[0].Won)
	}
	if payouts[1].Coins != 4 {
		t.Errorf("valid ticket in same run: Coins = %d, want 4", payouts[1].Coins)
	}
}

func TestFixedEngine_InvalidResult(t *testing.T) {
	e := reward.NewFixedEngine(defaultRates(), 4)
	tickets := []*domain.Ticket{ticket("alpha", domain.TicketTypeWin, []int{1}, 1)}

	for _, result := range [][]int{
		{1, 2, 3},          // too short
		{1, 2, 3, 4, 5},    // too long
		{1, 1, 2, 3},       // duplicate entrant
		{0, 1, 2, 3},       // out of range
	} {
		if _, err := e.Settle(tickets, result); !errors.Is(err, domain.ErrInvalidResultLength) {
			t.Errorf("Settle(%v) error = %v, want ErrInvalidResultLength", result, err)
		}
	}
}

func TestFixedEngine_MixedBatchTotal(t *testing.T) {
	// balance example from the purchase/settlement flow: win unit=2 at rate 4
	// pays 8; a losing exacta in the same batch adds nothing.
	e := reward.NewFixedEngine(defaultRates(), 4)
	result := []int{1, 2, 3, 4}

	batch := []*domain.Ticket{
		ticket("alpha", domain.TicketTypeWin, []int{1}, 2),
		ticket("alpha", domain.TicketTypeExacta, []int{2, 1}, 3),
	}
	payouts, err := e.Settle(batch, result)
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	var total int64
	for _, p := range payouts {
		total += p.Coins
	}
	if total != 8 {
		t.Errorf("team total = %d, want 8", total)
	}
}

package domain_test

import (
	"errors"
	"testing"

	"github.com/keimalab/keima-server/internal/domain"
)

func TestTicketType_PickCount(t *testing.T) {
	tests := []struct {
		tt   domain.TicketType
		want int
	}{
		{domain.TicketTypeWin, 1},
		{domain.TicketTypeExacta, 2},
		{domain.TicketTypeTrifecta, 3},
		{domain.TicketType("quinella"), 0},
		{domain.TicketType(""), 0},
	}
	for _, tc := range tests {
		if got := tc.tt.PickCount(); got != tc.want {
			t.Errorf("PickCount(%q) = %d, want %d", tc.tt, got, tc.want)
		}
	}
}

func TestTicket_Validate(t *testing.T) {
	const playerCount = 4

	tests := []struct {
		name    string
		ticket  domain.Ticket
		wantErr error
	}{
		{
			"valid win",
			domain.Ticket{Type: domain.TicketTypeWin, Picks: []int{3}, Unit: 1},
			nil,
		},
		{
			"valid trifecta",
			domain.Ticket{Type: domain.TicketTypeTrifecta, Picks: []int{4, 1, 2}, Unit: 10},
			nil,
		},
		{
			"unknown type",
			domain.Ticket{Type: "superfecta", Picks: []int{1}, Unit: 1},
			domain.ErrInvalidTicketType,
		},
		{
			"too many picks for win",
			domain.Ticket{Type: domain.TicketTypeWin, Picks: []int{1, 2}, Unit: 1},
			domain.ErrInvalidPickCount,
		},
		{
			"too few picks for trifecta",
			domain.Ticket{Type: domain.TicketTypeTrifecta, Picks: []int{1, 2}, Unit: 1},
			domain.ErrInvalidPickCount,
		},
		{
			"pick above entrant range",
			domain.Ticket{Type: domain.TicketTypeWin, Picks: []int{5}, Unit: 1},
			domain.ErrInvalidPick,
		},
		{
			"pick zero",
			domain.Ticket{Type: domain.TicketTypeWin, Picks: []int{0}, Unit: 1},
			domain.ErrInvalidPick,
		},
		{
			"duplicate pick",
			domain.Ticket{Type: domain.TicketTypeExacta, Picks: []int{2, 2}, Unit: 1},
			domain.ErrInvalidPick,
		},
		{
			"zero unit",
			domain.Ticket{Type: domain.TicketTypeWin, Picks: []int{1}, Unit: 0},
			domain.ErrInvalidUnit,
		},
		{
			"negative unit",
			domain.Ticket{Type: domain.TicketTypeWin, Picks: []int{1}, Unit: -3},
			domain.ErrInvalidUnit,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ticket.Validate(playerCount)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestTicket_MatchesResult(t *testing.T) {
	result := []int{2, 4, 1, 3}

	tests := []struct {
		name   string
		ticket domain.Ticket
		want   bool
	}{
		{"win hit", domain.Ticket{Type: domain.TicketTypeWin, Picks: []int{2}}, true},
		{"win miss", domain.Ticket{Type: domain.TicketTypeWin, Picks: []int{4}}, false},
		{"exacta hit", domain.Ticket{Type: domain.TicketTypeExacta, Picks: []int{2, 4}}, true},
		{"exacta swapped", domain.Ticket{Type: domain.TicketTypeExacta, Picks: []int{4, 2}}, false},
		{"trifecta hit", domain.Ticket{Type: domain.TicketTypeTrifecta, Picks: []int{2, 4, 1}}, true},
		{"trifecta last two swapped", domain.Ticket{Type: domain.TicketTypeTrifecta, Picks: []int{2, 1, 4}}, false},
		{"unknown type never matches", domain.Ticket{Type: "bogus", Picks: []int{2}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.ticket.MatchesResult(result); got != tc.want {
				t.Errorf("MatchesResult() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRaceState_Phase(t *testing.T) {
	tests := []struct {
		state domain.RaceState
		want  domain.RacePhase
	}{
		{domain.RaceState{RaceID: 1, TicketBuy: true}, domain.PhaseOpen},
		{domain.RaceState{RaceID: 1}, domain.PhaseClosed},
		{domain.RaceState{RaceID: 1, TicketPaid: true}, domain.PhasePaid},
	}
	for _, tc := range tests {
		if got := tc.state.Phase(); got != tc.want {
			t.Errorf("Phase(%+v) = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestValidateResult(t *testing.T) {
	tests := []struct {
		name  string
		order []int
		count int
		ok    bool
	}{
		{"exact permutation", []int{3, 1, 4, 2}, 4, true},
		{"short", []int{1, 2, 3}, 4, false},
		{"long", []int{1, 2, 3, 4, 5}, 4, false},
		{"duplicate", []int{1, 1, 3, 4}, 4, false},
		{"out of range", []int{1, 2, 3, 5}, 4, false},
		{"five players", []int{5, 4, 3, 2, 1}, 5, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := domain.ValidateResult(tc.order, tc.count)
			if tc.ok && err != nil {
				t.Errorf("ValidateResult() = %v, want nil", err)
			}
			if !tc.ok && !errors.Is(err, domain.ErrInvalidResultLength) {
				t.Errorf("ValidateResult() = %v, want ErrInvalidResultLength", err)
			}
		})
	}
}

func TestTicket_IsPending(t *testing.T) {
	ticket := domain.Ticket{Status: domain.TicketStatusPending}
	if !ticket.IsPending() {
		t.Error("IsPending() = false for a pending ticket")
	}
	ticket.Status = domain.TicketStatusWon
	if ticket.IsPending() {
		t.Error("IsPending() = true for a settled ticket")
	}
}

package service

import (
	"log/slog"
	"sync"

	"github.com/keimalab/keima-server/internal/domain"
)

// RaceService owns the single active race's lifecycle. One instance exists
// process-wide; every read and transition goes through its mutex, so a
// state observed under Guard cannot change before the guarded work commits.
//
// Lifecycle: Open → Close → (settlement) MarkPaid → Advance → …
type RaceService struct {
	mu     sync.Mutex
	state  domain.RaceState
	logger *slog.Logger
}

// NewRaceService creates the race state machine in its initial state:
// race 0, purchasing closed, nothing paid.
func NewRaceService(logger *slog.Logger) *RaceService {
	return &RaceService{
		state:  domain.RaceState{RaceID: 0},
		logger: logger,
	}
}

// Current returns a read-only snapshot of the race state.
func (s *RaceService) Current() domain.RaceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsPurchaseOpen reports whether tickets can currently be bought.
func (s *RaceService) IsPurchaseOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TicketBuy
}

// Open starts the betting window for raceID. Allowed from any state: opening
// clears the paid flag so a new cycle can begin.
func (s *RaceService) Open(raceID int64) domain.RaceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = domain.RaceState{RaceID: raceID, TicketBuy: true}
	s.logger.Info("race opened", "race_id", raceID)
	return s.state
}

// Close ends the betting window. Only legal while purchasing is open.
func (s *RaceService) Close() (domain.RaceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.TicketBuy {
		return s.state, domain.ErrInvalidStateTransition
	}
	s.state.TicketBuy = false
	s.logger.Info("race closed", "race_id", s.state.RaceID)
	return s.state, nil
}

// MarkPaid records that settlement has run for the current race. Only legal
// from the closed state: it fails while purchasing is open and when the race
// is already paid, keeping TicketBuy and TicketPaid mutually exclusive.
func (s *RaceService) MarkPaid() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.TicketBuy || s.state.TicketPaid {
		return domain.ErrInvalidStateTransition
	}
	s.state.TicketPaid = true
	s.logger.Info("race marked paid", "race_id", s.state.RaceID)
	return nil
}

// Advance resets the machine for the next race cycle. Only legal once the
// current race has been paid.
func (s *RaceService) Advance(nextRaceID int64) (domain.RaceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.TicketPaid {
		return s.state, domain.ErrInvalidStateTransition
	}
	s.state = domain.RaceState{RaceID: nextRaceID}
	s.logger.Info("race advanced", "race_id", nextRaceID)
	return s.state, nil
}

// Guard runs fn with a snapshot of the race state while holding the state
// lock, making a read-decide-act sequence atomic with respect to
// transitions. The purchase path runs its whole debit-and-store transaction
// under Guard so Close() cannot slip between the open check and the commit.
func (s *RaceService) Guard(fn func(domain.RaceState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

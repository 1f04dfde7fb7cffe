package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/keimalab/keima-server/internal/domain"
	"github.com/keimalab/keima-server/internal/repository"
	"github.com/keimalab/keima-server/internal/reward"
	"github.com/keimalab/keima-server/internal/ws"
)

// SettleBroadcaster is the minimal interface SettlementService needs from the
// WS hub. Implemented by ws.Hub.
type SettleBroadcaster interface {
	BroadcastRaceSettled(msg ws.RaceSettledMessage)
}

// SettlementService sequences a settlement run: verify the race lifecycle
// preconditions, load tickets and result, compute payouts via the configured
// reward engine, credit winners, and mark the race paid.
//
// Runs are serialized by an internal mutex; the race-state lock itself is
// held only for the precondition snapshot and the final MarkPaid, never for
// the payout loop.
type SettlementService struct {
	mu          sync.Mutex
	db          *sqlx.DB
	ledgerRepo  *repository.LedgerRepository
	ticketRepo  *repository.TicketRepository
	resultRepo  *repository.ResultRepository
	raceSvc     *RaceService
	engine      reward.Engine
	logger      *slog.Logger
	broadcaster SettleBroadcaster // injected after the hub is built
}

// NewSettlementService builds a SettlementService.
func NewSettlementService(
	db *sqlx.DB,
	ledgerRepo *repository.LedgerRepository,
	ticketRepo *repository.TicketRepository,
	resultRepo *repository.ResultRepository,
	raceSvc *RaceService,
	engine reward.Engine,
	logger *slog.Logger,
) *SettlementService {
	return &SettlementService{
		db:         db,
		ledgerRepo: ledgerRepo,
		ticketRepo: ticketRepo,
		resultRepo: resultRepo,
		raceSvc:    raceSvc,
		engine:     engine,
		logger:     logger,
	}
}

// SetBroadcaster injects the WS hub dependency post-construction.
func (s *SettlementService) SetBroadcaster(b SettleBroadcaster) { s.broadcaster = b }

// Settle pays out every ticket of raceID and returns the new balance per
// team that held tickets.
//
// Preconditions: raceID is the current race, purchasing is closed and the
// race has not been paid yet — otherwise Settle fails with ErrRaceMismatch,
// ErrPurchaseStillOpen or ErrAlreadySettled and no side effects occur. All
// credits and ticket status updates commit in one transaction; a second call
// for the same race fails with ErrAlreadySettled and leaves balances
// untouched.
func (s *SettlementService) Settle(ctx context.Context, raceID int64) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// ── 1. Lifecycle preconditions ────────────────────────────────────────────
	state := s.raceSvc.Current()
	switch {
	case state.RaceID != raceID:
		return nil, domain.ErrRaceMismatch
	case state.TicketBuy:
		return nil, domain.ErrPurchaseStillOpen
	case state.TicketPaid:
		return nil, domain.ErrAlreadySettled
	}

	// ── 2. Load result and tickets ────────────────────────────────────────────
	result, err := s.resultRepo.Get(ctx, raceID)
	if err != nil {
		return nil, err
	}
	tickets, err := s.ticketRepo.GetByRace(ctx, raceID)
	if err != nil {
		return nil, fmt.Errorf("settlement_service.Settle: load tickets: %w", err)
	}

	// ── 3. Compute payouts ────────────────────────────────────────────────────
	payouts, err := s.engine.Settle(tickets, result.Order)
	if err != nil {
		return nil, fmt.Errorf("settlement_service.Settle: engine: %w", err)
	}

	winnings := make(map[string]int64)
	teams := make(map[string]bool)
	for _, p := range payouts {
		teams[p.TeamName] = true
		winnings[p.TeamName] += p.Coins
	}

	// ── 4. Atomic settlement transaction ──────────────────────────────────────
	balances := make(map[string]int64, len(teams))

	tx, txErr := s.db.BeginTxx(ctx, nil)
	if txErr != nil {
		return nil, fmt.Errorf("settlement_service.Settle: begin tx: %w", txErr)
	}
	defer func() {
		if txErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, p := range payouts {
		status := domain.TicketStatusLost
		if p.Won {
			status = domain.TicketStatusWon
		}
		if txErr = s.ticketRepo.MarkSettled(ctx, tx, p.TicketID, status, p.Coins); txErr != nil {
			if txErr = markSettledConflict(txErr); errors.Is(txErr, domain.ErrAlreadySettled) {
				return nil, txErr
			}
			return nil, fmt.Errorf("settlement_service.Settle: mark ticket %s: %w", p.TicketID, txErr)
		}
	}

	for _, team := range sortedTeams(teams) {
		if winnings[team] > 0 {
			var newBalance int64
			if newBalance, txErr = s.ledgerRepo.Credit(ctx, tx, team, raceID, winnings[team]); txErr != nil {
				return nil, fmt.Errorf("settlement_service.Settle: credit %s: %w", team, txErr)
			}
			balances[team] = newBalance
		}
	}

	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("settlement_service.Settle: commit: %w", txErr)
	}

	// Balances of teams that won nothing are unchanged; read them post-commit.
	for team := range teams {
		if _, done := balances[team]; done {
			continue
		}
		coins, err := s.ledgerRepo.GetCoins(ctx, team, nil)
		if err != nil {
			return nil, fmt.Errorf("settlement_service.Settle: read balance %s: %w", team, err)
		}
		balances[team] = coins
	}

	// ── 5. Advance lifecycle ──────────────────────────────────────────────────
	if err := s.raceSvc.MarkPaid(); err != nil {
		// Payouts are committed; the race was reopened mid-settlement by an
		// admin. Keep the credits and surface the lifecycle skew in the log.
		s.logger.Warn("settlement committed but race not marked paid",
			"race_id", raceID, "err", err)
	}

	s.logger.Info("race settled",
		"race_id", raceID, "tickets", len(tickets), "teams", len(balances))

	// ── 6. Post-commit WS broadcast ──────────────────────────────────────────
	if s.broadcaster != nil {
		s.broadcaster.BroadcastRaceSettled(ws.RaceSettledMessage{
			Type:      ws.MsgTypeRaceSettled,
			RaceID:    raceID,
			Result:    result.Order,
			Balances:  balances,
			Timestamp: time.Now().UTC(),
		})
	}

	return balances, nil
}

// markSettledConflict translates a missed status='pending' guard into the
// error callers can act on: the tickets of this race were already paid out,
// so the run is a double settlement, not a missing ticket.
func markSettledConflict(err error) error {
	if errors.Is(err, domain.ErrTicketNotFound) {
		return domain.ErrAlreadySettled
	}
	return err
}

// sortedTeams gives settlement a deterministic credit order, which keeps the
// per-team advisory locks from deadlocking against each other.
func sortedTeams(teams map[string]bool) []string {
	names := make([]string, 0, len(teams))
	for t := range teams {
		names = append(names, t)
	}
	sort.Strings(names)
	return names
}

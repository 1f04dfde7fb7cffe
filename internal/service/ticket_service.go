package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/keimalab/keima-server/internal/config"
	"github.com/keimalab/keima-server/internal/domain"
	"github.com/keimalab/keima-server/internal/repository"
	"github.com/keimalab/keima-server/internal/ws"
)

// ──────────────────────────────────────────────────────────────────────────────
// Interfaces injected into services to avoid import cycles with the hub
// ──────────────────────────────────────────────────────────────────────────────

// PurchaseBroadcaster is the minimal interface TicketService needs from the
// WS hub. Implemented by ws.Hub.
type PurchaseBroadcaster interface {
	BroadcastTicketsPurchased(msg ws.TicketsPurchasedMessage)
}

// ──────────────────────────────────────────────────────────────────────────────
// TicketService
// ──────────────────────────────────────────────────────────────────────────────

// TicketService orchestrates ticket purchase. The debit and every ticket
// insert happen inside a single PostgreSQL transaction, which itself runs
// under the race-state lock: either the whole batch is bought against an open
// race, or nothing is.
type TicketService struct {
	db          *sqlx.DB
	ledgerRepo  *repository.LedgerRepository
	ticketRepo  *repository.TicketRepository
	raceSvc     *RaceService
	cfg         *config.Config
	logger      *slog.Logger
	broadcaster PurchaseBroadcaster // injected after the hub is built
}

// NewTicketService creates a TicketService.
func NewTicketService(
	db *sqlx.DB,
	ledgerRepo *repository.LedgerRepository,
	ticketRepo *repository.TicketRepository,
	raceSvc *RaceService,
	cfg *config.Config,
	logger *slog.Logger,
) *TicketService {
	return &TicketService{
		db:         db,
		ledgerRepo: ledgerRepo,
		ticketRepo: ticketRepo,
		raceSvc:    raceSvc,
		cfg:        cfg,
		logger:     logger,
	}
}

// SetBroadcaster injects the WS hub dependency post-construction.
func (s *TicketService) SetBroadcaster(b PurchaseBroadcaster) { s.broadcaster = b }

// Buy purchases a batch of tickets for a team against the current race.
//
// Validation failures and ErrInsufficientCoins reject the whole batch: no
// debit is applied and no ticket is stored. A team buying for the first time
// is seeded with the configured starting coins before the debit.
func (s *TicketService) Buy(ctx context.Context, team string, reqs []domain.TicketRequest) (*domain.PurchaseReceipt, error) {
	if len(reqs) == 0 {
		return nil, domain.ErrInvalidPickCount
	}

	// ── 1. Validate every ticket before touching any state ───────────────────
	now := time.Now().UTC()
	tickets := make([]*domain.Ticket, 0, len(reqs))
	var totalUnits int64
	for _, req := range reqs {
		t := &domain.Ticket{
			ID:       uuid.New(),
			TeamName: team,
			Type:     req.Type,
			Picks:    req.Picks,
			Unit:     req.Unit,
			Status:   domain.TicketStatusPending,
			PlacedAt: now,
		}
		if err := t.Validate(s.cfg.Game.PlayerCount); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
		totalUnits += t.Unit
	}

	// ── 2. Buy atomically under the race-state lock ──────────────────────────
	var receipt *domain.PurchaseReceipt
	err := s.raceSvc.Guard(func(state domain.RaceState) error {
		if !state.TicketBuy {
			return domain.ErrPurchaseClosed
		}

		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("ticket_service.Buy: begin tx: %w", err)
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()

		if _, err = s.ledgerRepo.EnsureTeam(ctx, tx, team, s.cfg.Game.StartingCoins); err != nil {
			return fmt.Errorf("ticket_service.Buy: ensure team: %w", err)
		}

		var remaining int64
		if remaining, err = s.ledgerRepo.Debit(ctx, tx, team, state.RaceID, totalUnits); err != nil {
			if errors.Is(err, domain.ErrInsufficientCoins) {
				return err
			}
			return fmt.Errorf("ticket_service.Buy: debit: %w", err)
		}

		ids := make([]uuid.UUID, 0, len(tickets))
		for _, t := range tickets {
			t.RaceID = state.RaceID
			if err = s.ticketRepo.Store(ctx, tx, t); err != nil {
				return fmt.Errorf("ticket_service.Buy: store ticket: %w", err)
			}
			ids = append(ids, t.ID)
		}

		if err = tx.Commit(); err != nil {
			return fmt.Errorf("ticket_service.Buy: commit: %w", err)
		}

		receipt = &domain.PurchaseReceipt{
			TeamName:       team,
			RaceID:         state.RaceID,
			TicketIDs:      ids,
			CoinsSpent:     totalUnits,
			CoinsRemaining: remaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tickets purchased",
		"team", team, "race_id", receipt.RaceID,
		"tickets", len(receipt.TicketIDs), "coins", receipt.CoinsSpent)

	// ── 3. Post-commit WS broadcast ──────────────────────────────────────────
	if s.broadcaster != nil {
		s.broadcaster.BroadcastTicketsPurchased(ws.TicketsPurchasedMessage{
			Type:      ws.MsgTypeTicketsPurchased,
			TeamName:  team,
			RaceID:    receipt.RaceID,
			Tickets:   len(receipt.TicketIDs),
			Coins:     receipt.CoinsSpent,
			Timestamp: time.Now().UTC(),
		})
	}

	return receipt, nil
}

// TeamTickets returns one team's tickets for a race.
func (s *TicketService) TeamTickets(ctx context.Context, team string, raceID int64) ([]*domain.Ticket, error) {
	tickets, err := s.ticketRepo.GetByTeamAndRace(ctx, team, raceID)
	if err != nil {
		return nil, fmt.Errorf("ticket_service.TeamTickets: %w", err)
	}
	return tickets, nil
}

package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Ticket validation errors — rejected synchronously at purchase time, the
// ticket is never persisted.
var (
	// ErrInvalidTicketType is returned when the ticket type is not win,
	// exacta or trifecta.
	ErrInvalidTicketType = errors.New("invalid ticket type: must be win, exacta or trifecta")

	// ErrInvalidPickCount is returned when the number of picks does not match
	// the ticket type (1/2/3).
	ErrInvalidPickCount = errors.New("pick count does not match ticket type")

	// ErrInvalidPick is returned when a pick is outside the entrant range or
	// repeated within one ticket.
	ErrInvalidPick = errors.New("pick is not a valid entrant number")

	// ErrInvalidUnit is returned when the stake is not a positive integer.
	ErrInvalidUnit = errors.New("unit must be a positive integer")
)

// Purchase errors
var (
	// ErrPurchaseClosed is returned when tickets are bought while the race is
	// not accepting purchases.
	ErrPurchaseClosed = errors.New("ticket purchasing is currently closed")

	// ErrInsufficientCoins is returned when a team's balance cannot cover the
	// requested stakes. No debit is applied and no ticket is stored.
	ErrInsufficientCoins = errors.New("not enough coins to purchase tickets")
)

// Race state errors
var (
	// ErrInvalidStateTransition is returned for an illegal race lifecycle
	// transition (e.g. marking a race paid while purchasing is still open).
	ErrInvalidStateTransition = errors.New("invalid race state transition")

	// ErrRaceMismatch is returned when an operation names a race other than
	// the current one.
	ErrRaceMismatch = errors.New("race id does not match the current race")
)

// Result / settlement errors
var (
	// ErrInvalidResultLength is returned when a finishing order does not list
	// every entrant exactly once.
	ErrInvalidResultLength = errors.New("result must list every entrant exactly once")

	// ErrResultNotFound is returned when no result has been recorded for the
	// requested race.
	ErrResultNotFound = errors.New("race result not found")

	// ErrResultExists is returned when a result has already been recorded for
	// the race. Results are immutable.
	ErrResultExists = errors.New("race result already recorded")

	// ErrPurchaseStillOpen is returned when settlement is attempted before the
	// betting window has been closed.
	ErrPurchaseStillOpen = errors.New("ticket purchasing is still open")

	// ErrAlreadySettled is returned when settlement is re-invoked for a race
	// that has already been paid out. Balances are left untouched.
	ErrAlreadySettled = errors.New("race has already been settled")

	// ErrTicketNotFound is returned when no ticket matches the given criteria.
	ErrTicketNotFound = errors.New("ticket not found")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// validationErrors collects the purchase-time input errors so IsValidation
// stays in sync automatically.
var validationErrors = []error{
	ErrInvalidTicketType,
	ErrInvalidPickCount,
	ErrInvalidPick,
	ErrInvalidUnit,
	ErrInvalidResultLength,
}

// IsValidation returns true when err (or any error in its chain) is a local,
// non-retryable input error. Use this to translate domain errors to HTTP 400.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for errors that represent a state conflict (wrong
// lifecycle phase, double settlement, duplicate result).
func IsConflict(err error) bool {
	conflictErrors := []error{
		ErrPurchaseClosed,
		ErrPurchaseStillOpen,
		ErrAlreadySettled,
		ErrInvalidStateTransition,
		ErrResultExists,
		ErrRaceMismatch,
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound returns true for "entity not found" errors.
func IsNotFound(err error) bool {
	notFoundErrors := []error{
		ErrResultNotFound,
		ErrTicketNotFound,
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

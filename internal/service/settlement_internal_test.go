package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/keimalab/keima-server/internal/domain"
)

// A settlement run whose status='pending' guard misses is a double
// settlement, not a missing ticket: the caller must see ErrAlreadySettled
// so the API maps it to a conflict instead of a 404.
func TestMarkSettledConflict(t *testing.T) {
	wrapped := fmt.Errorf("ticket_repo.MarkSettled: %w", domain.ErrTicketNotFound)
	if err := markSettledConflict(wrapped); !errors.Is(err, domain.ErrAlreadySettled) {
		t.Errorf("markSettledConflict(guard miss) = %v, want ErrAlreadySettled", err)
	}

	other := errors.New("connection reset")
	if err := markSettledConflict(other); !errors.Is(err, other) {
		t.Errorf("markSettledConflict(unrelated) = %v, want passthrough", err)
	}
}

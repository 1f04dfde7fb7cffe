package service_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/keimalab/keima-server/internal/domain"
	"github.com/keimalab/keima-server/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRaceService_InitialState(t *testing.T) {
	svc := service.NewRaceService(testLogger())
	state := svc.Current()

	if state.RaceID != 0 || state.TicketBuy || state.TicketPaid {
		t.Errorf("initial state = %+v, want race 0, closed, unpaid", state)
	}
	if state.Phase() != domain.PhaseClosed {
		t.Errorf("initial phase = %q, want closed", state.Phase())
	}
}

func TestRaceService_FullLifecycle(t *testing.T) {
	svc := service.NewRaceService(testLogger())

	state := svc.Open(7)
	if !state.TicketBuy || state.RaceID != 7 {
		t.Fatalf("after Open: %+v", state)
	}
	if !svc.IsPurchaseOpen() {
		t.Error("IsPurchaseOpen() = false after Open")
	}

	state, err := svc.Close()
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if state.TicketBuy {
		t.Error("TicketBuy still true after Close")
	}

	if err := svc.MarkPaid(); err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if svc.Current().Phase() != domain.PhasePaid {
		t.Errorf("phase = %q after MarkPaid, want paid", svc.Current().Phase())
	}

	state, err = svc.Advance(8)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if state.RaceID != 8 || state.TicketBuy || state.TicketPaid {
		t.Errorf("after Advance: %+v, want race 8, closed, unpaid", state)
	}
}

func TestRaceService_IllegalTransitions(t *testing.T) {
	t.Run("close while closed", func(t *testing.T) {
		svc := service.NewRaceService(testLogger())
		if _, err := svc.Close(); !errors.Is(err, domain.ErrInvalidStateTransition) {
			t.Errorf("Close() = %v, want ErrInvalidStateTransition", err)
		}
	})

	t.Run("mark paid while open", func(t *testing.T) {
		svc := service.NewRaceService(testLogger())
		svc.Open(1)
		if err := svc.MarkPaid(); !errors.Is(err, domain.ErrInvalidStateTransition) {
			t.Errorf("MarkPaid() = %v, want ErrInvalidStateTransition", err)
		}
		// Invariant must hold after the failed transition.
		state := svc.Current()
		if state.TicketBuy && state.TicketPaid {
			t.Error("TicketBuy and TicketPaid both true")
		}
	})

	t.Run("mark paid twice", func(t *testing.T) {
		svc := service.NewRaceService(testLogger())
		svc.Open(1)
		if _, err := svc.Close(); err != nil {
			t.Fatal(err)
		}
		if err := svc.MarkPaid(); err != nil {
			t.Fatal(err)
		}
		if err := svc.MarkPaid(); !errors.Is(err, domain.ErrInvalidStateTransition) {
			t.Errorf("second MarkPaid() = %v, want ErrInvalidStateTransition", err)
		}
	})

	t.Run("advance before paid", func(t *testing.T) {
		svc := service.NewRaceService(testLogger())
		svc.Open(1)
		if _, err := svc.Advance(2); !errors.Is(err, domain.ErrInvalidStateTransition) {
			t.Errorf("Advance() while open = %v, want ErrInvalidStateTransition", err)
		}
		if _, err := svc.Close(); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Advance(2); !errors.Is(err, domain.ErrInvalidStateTransition) {
			t.Errorf("Advance() while closed = %v, want ErrInvalidStateTransition", err)
		}
	})

	t.Run("reopen from any state", func(t *testing.T) {
		svc := service.NewRaceService(testLogger())
		svc.Open(1)
		state := svc.Open(2) // reopen without closing
		if state.RaceID != 2 || !state.TicketBuy || state.TicketPaid {
			t.Errorf("reopen: %+v", state)
		}
	})
}

func TestRaceService_GuardSeesConsistentState(t *testing.T) {
	svc := service.NewRaceService(testLogger())
	svc.Open(3)

	err := svc.Guard(func(state domain.RaceState) error {
		if !state.TicketBuy {
			return domain.ErrPurchaseClosed
		}
		return nil
	})
	if err != nil {
		t.Errorf("Guard() on open race = %v, want nil", err)
	}

	if _, err := svc.Close(); err != nil {
		t.Fatal(err)
	}
	err = svc.Guard(func(state domain.RaceState) error {
		if !state.TicketBuy {
			return domain.ErrPurchaseClosed
		}
		return nil
	})
	if !errors.Is(err, domain.ErrPurchaseClosed) {
		t.Errorf("Guard() on closed race = %v, want ErrPurchaseClosed", err)
	}
}

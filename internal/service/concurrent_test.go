package service_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/keimalab/keima-server/internal/domain"
	"github.com/keimalab/keima-server/internal/service"
)

// Purchases run inside Guard so a concurrent Close cannot slip between the
// open check and the write. Hammer both paths and verify every guarded call
// either saw the race open or got ErrPurchaseClosed, never a torn state.
func TestRaceService_GuardExcludesClose(t *testing.T) {
	svc := service.NewRaceService(testLogger())

	for round := int64(1); round <= 20; round++ {
		svc.Open(round)

		var wg sync.WaitGroup
		var accepted, rejected int
		var mu sync.Mutex

		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := svc.Guard(func(state domain.RaceState) error {
					if !state.TicketBuy {
						return domain.ErrPurchaseClosed
					}
					if state.TicketPaid {
						t.Error("purchase accepted on a settled race")
					}
					return nil
				})
				mu.Lock()
				if err == nil {
					accepted++
				} else if errors.Is(err, domain.ErrPurchaseClosed) {
					rejected++
				} else {
					t.Errorf("unexpected guard error: %v", err)
				}
				mu.Unlock()
			}()
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		}()

		wg.Wait()

		mu.Lock()
		if accepted+rejected != 10 {
			t.Fatalf("round %d: accepted %d + rejected %d != 10", round, accepted, rejected)
		}
		mu.Unlock()

		if err := svc.MarkPaid(); err != nil {
			t.Fatalf("MarkPaid() error = %v", err)
		}
		if _, err := svc.Advance(round + 1); err != nil {
			t.Fatalf("Advance() error = %v", err)
		}
	}
}

func TestRaceService_ConcurrentTransitionsKeepInvariant(t *testing.T) {
	svc := service.NewRaceService(testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			switch n % 4 {
			case 0:
				svc.Open(n)
			case 1:
				svc.Close()
			case 2:
				svc.MarkPaid()
			case 3:
				svc.Advance(n)
			}
			state := svc.Current()
			if state.TicketBuy && state.TicketPaid {
				t.Error("TicketBuy and TicketPaid both true")
			}
		}(int64(i))
	}
	wg.Wait()
}

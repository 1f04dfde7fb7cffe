package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/keimalab/keima-server/internal/domain"
	"github.com/keimalab/keima-server/internal/service"
)

// Precondition checks run before any repository access, so a service built
// without a DB is enough to exercise them.
func newSettlementService(raceSvc *service.RaceService) *service.SettlementService {
	return service.NewSettlementService(nil, nil, nil, nil, raceSvc, nil, testLogger())
}

func TestSettlementService_Preconditions(t *testing.T) {
	t.Run("race mismatch", func(t *testing.T) {
		raceSvc := service.NewRaceService(testLogger())
		raceSvc.Open(5)
		raceSvc.Close()

		svc := newSettlementService(raceSvc)
		if _, err := svc.Settle(context.Background(), 4); !errors.Is(err, domain.ErrRaceMismatch) {
			t.Errorf("Settle(4) on race 5 = %v, want ErrRaceMismatch", err)
		}
	})

	t.Run("purchase still open", func(t *testing.T) {
		raceSvc := service.NewRaceService(testLogger())
		raceSvc.Open(5)

		svc := newSettlementService(raceSvc)
		if _, err := svc.Settle(context.Background(), 5); !errors.Is(err, domain.ErrPurchaseStillOpen) {
			t.Errorf("Settle() while open = %v, want ErrPurchaseStillOpen", err)
		}
	})

	t.Run("already settled", func(t *testing.T) {
		raceSvc := service.NewRaceService(testLogger())
		raceSvc.Open(5)
		raceSvc.Close()
		if err := raceSvc.MarkPaid(); err != nil {
			t.Fatal(err)
		}

		svc := newSettlementService(raceSvc)
		if _, err := svc.Settle(context.Background(), 5); !errors.Is(err, domain.ErrAlreadySettled) {
			t.Errorf("Settle() on paid race = %v, want ErrAlreadySettled", err)
		}
	})
}

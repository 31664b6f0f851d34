package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/service"
	"github.com/satushop/kaspisync/pkg/errors"
)

type stubFleet struct {
	mu sync.Mutex

	sellers []*domain.Seller

	syncErr     map[uuid.UUID]error
	pendingFor  map[uuid.UUID][]*domain.Order
	syncedBy    []uuid.UUID
	processed   []string
	dumpedBy    []uuid.UUID
	pricerCalls int
}

func (s *stubFleet) ListActive(ctx context.Context) ([]*domain.Seller, error) {
	return s.sellers, nil
}

func (s *stubFleet) Sync(ctx context.Context, sellerID uuid.UUID) ([]*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncedBy = append(s.syncedBy, sellerID)
	if err := s.syncErr[sellerID]; err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *stubFleet) SyncNewOrders(ctx context.Context, sellerID uuid.UUID, since time.Duration) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingFor[sellerID], nil
}

func (s *stubFleet) ProcessOrder(ctx context.Context, order *domain.Order) (service.ProcessingOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = append(s.processed, order.KaspiOrderID)
	return service.PickupTaskCreated{}, nil
}

func (s *stubFleet) RunAutoDump(ctx context.Context, sellerID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dumpedBy = append(s.dumpedBy, sellerID)
	s.pricerCalls++
	return 0, nil
}

func newSeller() *domain.Seller {
	return &domain.Seller{ID: uuid.New(), IsActive: true}
}

func TestSyncCycleCoversEverySellerDespiteFailures(t *testing.T) {
	broken, healthy := newSeller(), newSeller()
	fleet := &stubFleet{
		sellers: []*domain.Seller{broken, healthy},
		syncErr: map[uuid.UUID]error{broken.ID: &errors.ErrTokenMissing{}},
		pendingFor: map[uuid.UUID][]*domain.Order{
			healthy.ID: {
				{KaspiOrderID: "KSP-1", Status: domain.OrderStatusPending},
				{KaspiOrderID: "KSP-2", Status: domain.OrderStatusShipped},
			},
		},
	}

	s := New(fleet, fleet, fleet, fleet, time.Hour, time.Hour, time.Hour, zap.NewNop())
	s.RunSyncCycle(context.Background())

	// the broken seller is attempted, the healthy one still runs
	require.Len(t, fleet.syncedBy, 2)
	assert.Equal(t, []uuid.UUID{broken.ID, healthy.ID}, fleet.syncedBy)

	// only pending orders go through processing
	assert.Equal(t, []string{"KSP-1"}, fleet.processed)
}

func TestPricerCycleCoversEverySeller(t *testing.T) {
	a, b := newSeller(), newSeller()
	fleet := &stubFleet{sellers: []*domain.Seller{a, b}}

	s := New(fleet, fleet, fleet, fleet, time.Hour, time.Hour, time.Hour, zap.NewNop())
	s.RunPricerCycle(context.Background())

	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, fleet.dumpedBy)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	fleet := &stubFleet{sellers: []*domain.Seller{newSeller()}}
	s := New(fleet, fleet, fleet, fleet, time.Hour, time.Hour, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// both loops run their immediate first cycle, then park on tickers
	assert.Eventually(t, func() bool {
		fleet.mu.Lock()
		defer fleet.mu.Unlock()
		return len(fleet.syncedBy) == 1 && fleet.pricerCalls == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}

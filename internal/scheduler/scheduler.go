package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/metrics"
	"github.com/satushop/kaspisync/internal/service"
)

// SellerLister enumerates the sellers a cycle should cover
type SellerLister interface {
	ListActive(ctx context.Context) ([]*domain.Seller, error)
}

// ProductSyncer pulls a seller's catalog from the marketplace
type ProductSyncer interface {
	Sync(ctx context.Context, sellerID uuid.UUID) ([]*domain.Product, error)
}

// OrderSyncer pulls new orders and routes them through processing
type OrderSyncer interface {
	SyncNewOrders(ctx context.Context, sellerID uuid.UUID, since time.Duration) ([]*domain.Order, error)
	ProcessOrder(ctx context.Context, order *domain.Order) (service.ProcessingOutcome, error)
}

// PriceOptimizer runs one auto-dump pass for a seller
type PriceOptimizer interface {
	RunAutoDump(ctx context.Context, sellerID uuid.UUID) (int, error)
}

// Scheduler drives the periodic sync and pricing cycles. A failing
// seller never blocks the rest of the fleet; errors are logged and the
// cycle moves on.
type Scheduler struct {
	sellers  SellerLister
	products ProductSyncer
	orders   OrderSyncer
	pricer   PriceOptimizer

	syncInterval   time.Duration
	pricerInterval time.Duration
	orderWindow    time.Duration

	logger *zap.Logger
}

// New creates a new scheduler
func New(sellers SellerLister, products ProductSyncer, orders OrderSyncer, pricer PriceOptimizer,
	syncInterval, pricerInterval, orderWindow time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sellers:        sellers,
		products:       products,
		orders:         orders,
		pricer:         pricer,
		syncInterval:   syncInterval,
		pricerInterval: pricerInterval,
		orderWindow:    orderWindow,
		logger:         logger,
	}
}

// Run blocks until ctx is cancelled, running an immediate cycle of each
// kind and then repeating on the configured intervals.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.loop(ctx, s.syncInterval, s.RunSyncCycle)
	}()
	go func() {
		defer wg.Done()
		s.loop(ctx, s.pricerInterval, s.RunPricerCycle)
	}()

	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, cycle func(context.Context)) {
	cycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cycle(ctx)
		}
	}
}

// RunSyncCycle refreshes every active seller's catalog, pulls new
// orders, and routes each pending order through processing
func (s *Scheduler) RunSyncCycle(ctx context.Context) {
	started := time.Now()
	sellers, err := s.sellers.ListActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list active sellers", zap.Error(err))
		metrics.SyncCycles.WithLabelValues("sync", "list_error").Inc()
		return
	}

	for _, seller := range sellers {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.products.Sync(ctx, seller.ID); err != nil {
			s.logger.Warn("Product sync failed",
				zap.String("seller", seller.ID.String()), zap.Error(err))
		}

		orders, err := s.orders.SyncNewOrders(ctx, seller.ID, s.orderWindow)
		if err != nil {
			s.logger.Warn("Order sync failed",
				zap.String("seller", seller.ID.String()), zap.Error(err))
			continue
		}
		for _, order := range orders {
			if order.Status != domain.OrderStatusPending {
				continue
			}
			if _, err := s.orders.ProcessOrder(ctx, order); err != nil {
				s.logger.Warn("Order processing failed",
					zap.String("seller", seller.ID.String()),
					zap.String("order", order.KaspiOrderID),
					zap.Error(err))
			}
		}
	}

	metrics.SyncDuration.WithLabelValues("sync").Observe(time.Since(started).Seconds())
	s.logger.Info("Sync cycle complete",
		zap.Int("sellers", len(sellers)),
		zap.Duration("took", time.Since(started)),
	)
}

// RunPricerCycle runs one auto-dump pass for every active seller
func (s *Scheduler) RunPricerCycle(ctx context.Context) {
	started := time.Now()
	sellers, err := s.sellers.ListActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list active sellers", zap.Error(err))
		metrics.SyncCycles.WithLabelValues("pricer", "list_error").Inc()
		return
	}

	for _, seller := range sellers {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.pricer.RunAutoDump(ctx, seller.ID); err != nil {
			s.logger.Warn("Auto-dump failed",
				zap.String("seller", seller.ID.String()), zap.Error(err))
		}
	}

	metrics.SyncDuration.WithLabelValues("pricer").Observe(time.Since(started).Seconds())
}

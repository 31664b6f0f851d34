package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/kaspi"
	"github.com/satushop/kaspisync/internal/metrics"
	"github.com/satushop/kaspisync/internal/repository"
)

// dumpFactor is the per-cycle price cut applied when not ranked first
const dumpFactor = 0.98

// PriceOptimizer polls search positions and undercuts until ranked
// first, never discounting below the configured floor. The floor guard
// is deliberate: without it a product could be discounted indefinitely.
type PriceOptimizer struct {
	client   kaspi.API
	repos    *repository.Repositories
	tokens   *TokenStore
	minPrice int64
	logger   *zap.Logger
}

// NewPriceOptimizer creates a new price optimizer
func NewPriceOptimizer(client kaspi.API, repos *repository.Repositories, tokens *TokenStore, minPrice int64, logger *zap.Logger) *PriceOptimizer {
	return &PriceOptimizer{
		client:   client,
		repos:    repos,
		tokens:   tokens,
		minPrice: minPrice,
		logger:   logger,
	}
}

// RunAutoDump runs one optimization pass over the seller's active
// catalog and returns the number of prices pushed
func (s *PriceOptimizer) RunAutoDump(ctx context.Context, sellerID uuid.UUID) (int, error) {
	seller, err := s.repos.Sellers.GetByID(ctx, sellerID)
	if err != nil {
		return 0, err
	}
	if err := requireToken(s.tokens, seller); err != nil {
		metrics.SyncCycles.WithLabelValues("pricer", "token_invalid").Inc()
		return 0, err
	}
	auth := authFor(seller)

	products, err := s.repos.Products.ListBySeller(ctx, sellerID)
	if err != nil {
		return 0, err
	}

	calls := 0
	changes := make([]kaspi.PriceChange, 0)
	for _, p := range products {
		if !p.IsActive || p.Status == domain.ProductStatusInactive {
			continue
		}

		position, err := s.client.ProductPosition(ctx, auth, p.KaspiProductID)
		if err != nil {
			metrics.SyncCycles.WithLabelValues("pricer", "fetch_error").Inc()
			return 0, err
		}
		calls++

		if position <= 1 {
			continue
		}

		newPrice := int64(float64(p.Price) * dumpFactor)
		if newPrice < s.minPrice {
			newPrice = s.minPrice
		}
		if newPrice >= p.Price {
			// already at the floor, nothing left to dump
			continue
		}
		changes = append(changes, kaspi.PriceChange{ProductID: p.KaspiProductID, Price: newPrice})
	}

	if len(changes) > 0 {
		if err := s.client.ChangePrices(ctx, auth, changes); err != nil {
			metrics.SyncCycles.WithLabelValues("pricer", "push_error").Inc()
			return 0, err
		}
		calls++

		for _, change := range changes {
			if err := s.repos.Products.UpdatePrice(ctx, sellerID, change.ProductID, change.Price); err != nil {
				s.logger.Warn("Failed to persist dumped price",
					zap.String("product", change.ProductID), zap.Error(err))
			}
		}
		metrics.PriceChanges.Add(float64(len(changes)))
	}

	if err := s.repos.Sellers.RecordUsage(ctx, sellerID, calls); err != nil {
		s.logger.Warn("Failed to record API usage", zap.String("seller", sellerID.String()), zap.Error(err))
	}

	metrics.SyncCycles.WithLabelValues("pricer", "ok").Inc()
	s.logger.Info("Auto-dump pass complete",
		zap.String("seller", sellerID.String()),
		zap.Int("changes", len(changes)),
	)
	return len(changes), nil
}

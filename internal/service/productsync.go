package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/kaspi"
	"github.com/satushop/kaspisync/internal/metrics"
	"github.com/satushop/kaspisync/internal/repository"
)

// SyncStrategy selects how a fetched catalog lands in the store
type SyncStrategy string

const (
	// StrategyReplace deletes the prior snapshot before inserting the
	// new one. Canonical: deterministic, no stale leftovers.
	StrategyReplace SyncStrategy = "replace"
	// StrategyMerge upserts per item and leaves unlisted items alone
	StrategyMerge SyncStrategy = "merge"
)

// ProductSyncer pulls the remote catalog into the local cache
type ProductSyncer struct {
	client   kaspi.API
	repos    *repository.Repositories
	tokens   *TokenStore
	pageSize int
	strategy SyncStrategy
	logger   *zap.Logger
	now      func() time.Time
}

// NewProductSyncer creates a new product syncer
func NewProductSyncer(client kaspi.API, repos *repository.Repositories, tokens *TokenStore, pageSize int, strategy SyncStrategy, logger *zap.Logger) *ProductSyncer {
	return &ProductSyncer{
		client:   client,
		repos:    repos,
		tokens:   tokens,
		pageSize: pageSize,
		strategy: strategy,
		logger:   logger,
		now:      time.Now,
	}
}

// Sync fetches the seller's full catalog and replaces the cached copy
func (s *ProductSyncer) Sync(ctx context.Context, sellerID uuid.UUID) ([]*domain.Product, error) {
	started := s.now()

	seller, err := s.repos.Sellers.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if err := requireToken(s.tokens, seller); err != nil {
		metrics.SyncCycles.WithLabelValues("products", "token_invalid").Inc()
		return nil, err
	}

	remote, pages, err := s.client.AllProducts(ctx, authFor(seller), s.pageSize)
	if err != nil {
		metrics.SyncCycles.WithLabelValues("products", "fetch_error").Inc()
		return nil, err
	}

	products := make([]*domain.Product, 0, len(remote))
	for _, r := range remote {
		products = append(products, mapRemoteProduct(seller.ID, r))
	}

	switch s.strategy {
	case StrategyMerge:
		err = s.repos.Products.MergeAll(ctx, sellerID, products)
	default:
		err = s.repos.Products.ReplaceAll(ctx, sellerID, products)
	}
	if err != nil {
		metrics.SyncCycles.WithLabelValues("products", "store_error").Inc()
		return nil, err
	}

	if err := s.repos.Sellers.RecordUsage(ctx, sellerID, pages); err != nil {
		s.logger.Warn("Failed to record API usage", zap.String("seller", sellerID.String()), zap.Error(err))
	}
	if err := s.repos.Sellers.StampSync(ctx, sellerID, s.now()); err != nil {
		s.logger.Warn("Failed to stamp sync time", zap.String("seller", sellerID.String()), zap.Error(err))
	}

	metrics.SyncCycles.WithLabelValues("products", "ok").Inc()
	metrics.SyncDuration.WithLabelValues("products").Observe(s.now().Sub(started).Seconds())

	s.logger.Info("Product sync complete",
		zap.String("seller", sellerID.String()),
		zap.Int("products", len(products)),
		zap.Int("pages", pages),
	)
	return products, nil
}

// mapRemoteProduct converts the marketplace schema to the local one
// and derives the availability status
func mapRemoteProduct(sellerID uuid.UUID, r kaspi.RemoteProduct) *domain.Product {
	stock := make(map[string]int, len(r.Stocks))
	for _, s := range r.Stocks {
		stock[s.WarehouseID] = s.Quantity
	}

	p := &domain.Product{
		KaspiProductID: r.ID,
		SellerID:       sellerID,
		Name:           r.Name,
		Price:          r.Price,
		Category:       r.Category,
		ImageURL:       r.ImageURL,
		IsActive:       r.Active,
		WarehouseStock: stock,
	}
	p.DeriveStatus()
	return p
}

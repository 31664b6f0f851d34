package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/store"
)

// SellerRepository accesses sellers/{id}
type SellerRepository struct {
	store  store.Store
	logger *zap.Logger
}

func (r *SellerRepository) Create(ctx context.Context, seller *domain.Seller) error {
	now := time.Now()
	if seller.ID == uuid.Nil {
		seller.ID = uuid.New()
	}
	if seller.CreatedAt.IsZero() {
		seller.CreatedAt = now
	}
	seller.UpdatedAt = now
	if seller.HourlyQuota == 0 {
		seller.HourlyQuota = seller.Tier.HourlyQuota()
	}

	doc, err := encode(seller)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, sellerPath(seller.ID.String()), doc)
}

func (r *SellerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Seller, error) {
	doc, err := r.store.Get(ctx, sellerPath(id.String()))
	if err != nil {
		return nil, err
	}
	var seller domain.Seller
	if err := decode(doc, &seller); err != nil {
		return nil, err
	}
	return &seller, nil
}

func (r *SellerRepository) Update(ctx context.Context, seller *domain.Seller) error {
	seller.UpdatedAt = time.Now()
	doc, err := encode(seller)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, sellerPath(seller.ID.String()), doc)
}

// ListActive returns all sellers with the active flag set
func (r *SellerRepository) ListActive(ctx context.Context) ([]*domain.Seller, error) {
	keyed, err := r.store.List(ctx, sellersPrefix())
	if err != nil {
		return nil, err
	}

	sellers := make([]*domain.Seller, 0, len(keyed))
	for _, k := range keyed {
		// skip nested products/orders documents
		if strings.Contains(k.Path[len(sellersPrefix()):], "/") {
			continue
		}
		var seller domain.Seller
		if err := decode(k.Doc, &seller); err != nil {
			r.logger.Warn("Skipping undecodable seller document", zap.String("path", k.Path), zap.Error(err))
			continue
		}
		if seller.IsActive {
			sellers = append(sellers, &seller)
		}
	}
	return sellers, nil
}

// SaveToken persists the bearer token on the seller record
func (r *SellerRepository) SaveToken(ctx context.Context, id uuid.UUID, token string) error {
	seller, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	seller.KaspiToken = token
	return r.Update(ctx, seller)
}

// RecordUsage adds API calls to the seller's quota counters
func (r *SellerRepository) RecordUsage(ctx context.Context, id uuid.UUID, calls int) error {
	seller, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	seller.CallsThisHour += calls
	seller.CallsThisMonth += calls
	return r.Update(ctx, seller)
}

// StampSync records the completion time of a successful sync cycle
func (r *SellerRepository) StampSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	seller, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	seller.LastSyncAt = &at
	return r.Update(ctx, seller)
}

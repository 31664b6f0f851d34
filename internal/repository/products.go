package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/store"
)

// ProductRepository accesses sellers/{id}/products/{id}. Documents are
// keyed by the marketplace product id so repeated syncs stay stable.
type ProductRepository struct {
	store  store.Store
	logger *zap.Logger
}

// ReplaceAll swaps the seller's entire catalog in one atomic batch:
// every previously stored product is deleted, then the new set is
// inserted. This is the canonical full-replace sync strategy.
func (r *ProductRepository) ReplaceAll(ctx context.Context, sellerID uuid.UUID, products []*domain.Product) error {
	existing, err := r.store.List(ctx, productsPrefix(sellerID.String()))
	if err != nil {
		return err
	}

	batch := make(store.Batch, 0, len(existing)+len(products))
	for _, k := range existing {
		batch = append(batch, store.DeleteOp(k.Path))
	}

	ops, err := r.upsertOps(sellerID, products)
	if err != nil {
		return err
	}
	batch = append(batch, ops...)

	return r.store.Apply(ctx, batch)
}

// MergeAll upserts the new set without touching entries absent from it.
// Kept as the non-canonical incremental alternative behind config.
func (r *ProductRepository) MergeAll(ctx context.Context, sellerID uuid.UUID, products []*domain.Product) error {
	ops, err := r.upsertOps(sellerID, products)
	if err != nil {
		return err
	}
	return r.store.Apply(ctx, ops)
}

func (r *ProductRepository) upsertOps(sellerID uuid.UUID, products []*domain.Product) (store.Batch, error) {
	now := time.Now()
	batch := make(store.Batch, 0, len(products))
	for _, p := range products {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.SellerID = sellerID
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now

		doc, err := encode(p)
		if err != nil {
			return nil, err
		}
		batch = append(batch, store.SetOp(productPath(sellerID.String(), p.KaspiProductID), doc))
	}
	return batch, nil
}

// GetByKaspiID fetches one product by its marketplace id
func (r *ProductRepository) GetByKaspiID(ctx context.Context, sellerID uuid.UUID, kaspiProductID string) (*domain.Product, error) {
	doc, err := r.store.Get(ctx, productPath(sellerID.String(), kaspiProductID))
	if err != nil {
		return nil, err
	}
	var product domain.Product
	if err := decode(doc, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListBySeller returns the seller's cached catalog ordered by product id
func (r *ProductRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Product, error) {
	keyed, err := r.store.List(ctx, productsPrefix(sellerID.String()))
	if err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(keyed))
	for _, k := range keyed {
		var product domain.Product
		if err := decode(k.Doc, &product); err != nil {
			r.logger.Warn("Skipping undecodable product document", zap.String("path", k.Path), zap.Error(err))
			continue
		}
		products = append(products, &product)
	}
	return products, nil
}

// UpdateStock replaces the warehouse map and rederives the status
func (r *ProductRepository) UpdateStock(ctx context.Context, sellerID uuid.UUID, kaspiProductID string, stock map[string]int) error {
	product, err := r.GetByKaspiID(ctx, sellerID, kaspiProductID)
	if err != nil {
		return err
	}
	product.WarehouseStock = stock
	product.DeriveStatus()
	product.UpdatedAt = time.Now()

	doc, err := encode(product)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, productPath(sellerID.String(), kaspiProductID), doc)
}

// UpdatePrice persists a new price for one product
func (r *ProductRepository) UpdatePrice(ctx context.Context, sellerID uuid.UUID, kaspiProductID string, price int64) error {
	product, err := r.GetByKaspiID(ctx, sellerID, kaspiProductID)
	if err != nil {
		return err
	}
	product.Price = price
	product.UpdatedAt = time.Now()

	doc, err := encode(product)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, productPath(sellerID.String(), kaspiProductID), doc)
}

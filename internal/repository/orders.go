package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/store"
	"github.com/satushop/kaspisync/pkg/errors"
)

// OrderRepository accesses sellers/{id}/orders/{id} and mirrors
// marketplace-ingested orders into kaspiOrders/{id}
type OrderRepository struct {
	store  store.Store
	logger *zap.Logger
}

// docKey prefers the marketplace order id so re-ingestion upserts
// instead of duplicating
func docKey(order *domain.Order) string {
	if order.KaspiOrderID != "" {
		return order.KaspiOrderID
	}
	return order.ID.String()
}

// Upsert writes the order under the seller and, for ingested orders,
// mirrors the document into the kaspiOrders collection atomically
func (r *OrderRepository) Upsert(ctx context.Context, order *domain.Order) error {
	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	doc, err := encode(order)
	if err != nil {
		return err
	}

	batch := store.Batch{store.SetOp(orderPath(order.SellerID.String(), docKey(order)), doc)}
	if order.KaspiOrderID != "" {
		batch = append(batch, store.SetOp(kaspiOrderPath(order.KaspiOrderID), doc))
	}
	return r.store.Apply(ctx, batch)
}

// Get fetches one order by its document key
func (r *OrderRepository) Get(ctx context.Context, sellerID uuid.UUID, key string) (*domain.Order, error) {
	doc, err := r.store.Get(ctx, orderPath(sellerID.String(), key))
	if err != nil {
		return nil, err
	}
	var order domain.Order
	if err := decode(doc, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByID scans the seller's orders for a local uuid
func (r *OrderRepository) GetByID(ctx context.Context, sellerID, orderID uuid.UUID) (*domain.Order, error) {
	orders, err := r.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		if order.ID == orderID {
			return order, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "order", ID: orderID.String()}
}

// ListBySeller returns the seller's cached orders ordered by key
func (r *OrderRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Order, error) {
	keyed, err := r.store.List(ctx, ordersPrefix(sellerID.String()))
	if err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(keyed))
	for _, k := range keyed {
		var order domain.Order
		if err := decode(k.Doc, &order); err != nil {
			r.logger.Warn("Skipping undecodable order document", zap.String("path", k.Path), zap.Error(err))
			continue
		}
		orders = append(orders, &order)
	}
	return orders, nil
}

// UpdateStatus validates and applies a status transition
func (r *OrderRepository) UpdateStatus(ctx context.Context, order *domain.Order, newStatus domain.OrderStatus) error {
	if !order.Status.CanTransitionTo(newStatus) {
		return &errors.ErrInvalidStateTransition{
			From: string(order.Status),
			To:   string(newStatus),
		}
	}
	order.Status = newStatus
	return r.Upsert(ctx, order)
}

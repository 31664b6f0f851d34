package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/store"
)

// DeliveryRepository accesses deliveries/{id}
type DeliveryRepository struct {
	store  store.Store
	logger *zap.Logger
}

func (r *DeliveryRepository) Create(ctx context.Context, delivery *domain.DeliveryConfirmation) error {
	now := time.Now()
	if delivery.ID == uuid.Nil {
		delivery.ID = uuid.New()
	}
	if delivery.CreatedAt.IsZero() {
		delivery.CreatedAt = now
	}
	delivery.UpdatedAt = now
	if delivery.MaxAttempts == 0 {
		delivery.MaxAttempts = 3
	}
	if delivery.Status == "" {
		delivery.Status = domain.DeliveryStatusPending
	}

	doc, err := encode(delivery)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, deliveryPath(delivery.ID.String()), doc)
}

func (r *DeliveryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DeliveryConfirmation, error) {
	doc, err := r.store.Get(ctx, deliveryPath(id.String()))
	if err != nil {
		return nil, err
	}
	var delivery domain.DeliveryConfirmation
	if err := decode(doc, &delivery); err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *DeliveryRepository) Update(ctx context.Context, delivery *domain.DeliveryConfirmation) error {
	delivery.UpdatedAt = time.Now()
	doc, err := encode(delivery)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, deliveryPath(delivery.ID.String()), doc)
}

// ListByCourier returns the courier's non-terminal deliveries
func (r *DeliveryRepository) ListByCourier(ctx context.Context, courierID string) ([]*domain.DeliveryConfirmation, error) {
	keyed, err := r.store.List(ctx, deliveriesPrefix())
	if err != nil {
		return nil, err
	}

	deliveries := make([]*domain.DeliveryConfirmation, 0)
	for _, k := range keyed {
		var delivery domain.DeliveryConfirmation
		if err := decode(k.Doc, &delivery); err != nil {
			r.logger.Warn("Skipping undecodable delivery document", zap.String("path", k.Path), zap.Error(err))
			continue
		}
		if delivery.CourierID == courierID && !delivery.Status.IsTerminal() {
			deliveries = append(deliveries, &delivery)
		}
	}
	return deliveries, nil
}

// WatchByOrder subscribes to changes of deliveries; the courier app uses
// this for its reactive screens
func (r *DeliveryRepository) Watch(fn store.SnapshotFunc) store.CancelFunc {
	return r.store.Watch(deliveriesPrefix(), fn)
}

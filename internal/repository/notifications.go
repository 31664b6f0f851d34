package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/store"
)

// NotificationRepository accesses notifications/{id}
type NotificationRepository struct {
	store  store.Store
	logger *zap.Logger
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	doc, err := encode(n)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, notificationPath(n.ID.String()), doc)
}

// PickupTaskRepository accesses pickupTasks/{id}
type PickupTaskRepository struct {
	store  store.Store
	logger *zap.Logger
}

func (r *PickupTaskRepository) Create(ctx context.Context, task *domain.PickupTask) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	doc, err := encode(task)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, pickupTaskPath(task.ID.String()), doc)
}

// ListBySeller returns the seller's open pickup tasks
func (r *PickupTaskRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.PickupTask, error) {
	keyed, err := r.store.List(ctx, pickupTasksPrefix())
	if err != nil {
		return nil, err
	}

	tasks := make([]*domain.PickupTask, 0)
	for _, k := range keyed {
		var task domain.PickupTask
		if err := decode(k.Doc, &task); err != nil {
			r.logger.Warn("Skipping undecodable pickup task document", zap.String("path", k.Path), zap.Error(err))
			continue
		}
		if task.SellerID == sellerID {
			tasks = append(tasks, &task)
		}
	}
	return tasks, nil
}

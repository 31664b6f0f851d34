package repository

import (
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/store"
)

// Repositories bundles every typed collection accessor
type Repositories struct {
	Sellers       *SellerRepository
	Products      *ProductRepository
	Orders        *OrderRepository
	Deliveries    *DeliveryRepository
	History       *HistoryRepository
	Notifications *NotificationRepository
	PickupTasks   *PickupTaskRepository
}

// New creates the repository set over a document store
func New(s store.Store, logger *zap.Logger) *Repositories {
	return &Repositories{
		Sellers:       &SellerRepository{store: s, logger: logger},
		Products:      &ProductRepository{store: s, logger: logger},
		Orders:        &OrderRepository{store: s, logger: logger},
		Deliveries:    &DeliveryRepository{store: s, logger: logger},
		History:       &HistoryRepository{store: s, logger: logger},
		Notifications: &NotificationRepository{store: s, logger: logger},
		PickupTasks:   &PickupTaskRepository{store: s, logger: logger},
	}
}

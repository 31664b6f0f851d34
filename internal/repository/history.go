package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/store"
)

// HistoryRepository accesses the append-only deliveryHistory collection.
// Entries are write-once; there is no update or delete.
type HistoryRepository struct {
	store  store.Store
	logger *zap.Logger
}

func (r *HistoryRepository) Append(ctx context.Context, entry *domain.DeliveryHistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	doc, err := encode(entry)
	if err != nil {
		return err
	}
	path := historyPath(entry.DeliveryID.String(), entry.CreatedAt.UnixNano(), entry.ID.String())
	return r.store.Set(ctx, path, doc)
}

// ListByDelivery returns the audit trail in chronological order
func (r *HistoryRepository) ListByDelivery(ctx context.Context, deliveryID uuid.UUID) ([]*domain.DeliveryHistoryEntry, error) {
	keyed, err := r.store.List(ctx, historyPrefix(deliveryID.String()))
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.DeliveryHistoryEntry, 0, len(keyed))
	for _, k := range keyed {
		var entry domain.DeliveryHistoryEntry
		if err := decode(k.Doc, &entry); err != nil {
			r.logger.Warn("Skipping undecodable history document", zap.String("path", k.Path), zap.Error(err))
			continue
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

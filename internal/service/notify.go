package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/repository"
)

// Notifier writes best-effort seller notifications. Failures are
// logged, never surfaced: a lost notification must not fail the
// business action that produced it.
type Notifier struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewNotifier creates a new notifier
func NewNotifier(repos *repository.Repositories, logger *zap.Logger) *Notifier {
	return &Notifier{repos: repos, logger: logger}
}

func (n *Notifier) NotifySeller(ctx context.Context, sellerID uuid.UUID, kind, title, body string) {
	err := n.repos.Notifications.Create(ctx, &domain.Notification{
		SellerID: sellerID,
		Kind:     kind,
		Title:    title,
		Body:     body,
	})
	if err != nil {
		n.logger.Warn("Failed to write seller notification",
			zap.String("seller", sellerID.String()),
			zap.String("kind", kind),
			zap.Error(err),
		)
	}
}

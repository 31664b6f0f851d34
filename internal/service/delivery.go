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
	"github.com/satushop/kaspisync/pkg/errors"
)

const (
	// DefaultCodeCooldown is the minimum gap between SMS code requests
	DefaultCodeCooldown = 120 * time.Second
	// DefaultCodeTTL is how long a requested code stays usable
	DefaultCodeTTL = 10 * time.Minute
)

// DeliveryService drives the SMS confirmation state machine:
// pending -> inTransit -> arrived -> awaitingCode -> confirmed,
// with failed and cancelled reachable from any non-terminal state.
type DeliveryService struct {
	client   kaspi.API
	repos    *repository.Repositories
	notifier *Notifier
	logger   *zap.Logger
	cooldown time.Duration
	codeTTL  time.Duration
	now      func() time.Time
}

// NewDeliveryService creates a new delivery service
func NewDeliveryService(client kaspi.API, repos *repository.Repositories, notifier *Notifier, logger *zap.Logger) *DeliveryService {
	return &DeliveryService{
		client:   client,
		repos:    repos,
		notifier: notifier,
		logger:   logger,
		cooldown: DefaultCodeCooldown,
		codeTTL:  DefaultCodeTTL,
		now:      time.Now,
	}
}

// StartDelivery moves pending -> inTransit
func (s *DeliveryService) StartDelivery(ctx context.Context, deliveryID uuid.UUID, courierID string) error {
	delivery, err := s.transition(ctx, deliveryID, domain.DeliveryStatusInTransit)
	if err != nil {
		return err
	}
	return s.appendHistory(ctx, delivery, domain.DeliveryActionStarted, courierID, "", nil, nil)
}

// ArriveAtCustomer moves inTransit -> arrived and captures the
// courier's geolocation
func (s *DeliveryService) ArriveAtCustomer(ctx context.Context, deliveryID uuid.UUID, courierID string, lat, lng float64) error {
	delivery, err := s.load(ctx, deliveryID)
	if err != nil {
		return err
	}
	if !delivery.Status.CanTransitionTo(domain.DeliveryStatusArrived) {
		return &errors.ErrInvalidStateTransition{
			From: string(delivery.Status),
			To:   string(domain.DeliveryStatusArrived),
		}
	}

	delivery.Status = domain.DeliveryStatusArrived
	delivery.Latitude = &lat
	delivery.Longitude = &lng
	if err := s.repos.Deliveries.Update(ctx, delivery); err != nil {
		return err
	}
	return s.appendHistory(ctx, delivery, domain.DeliveryActionArrived, courierID, "", &lat, &lng)
}

// RequestCode asks the marketplace to SMS a confirmation code to the
// customer. Requests inside the cooldown window are rejected locally
// without touching the network to save quota.
func (s *DeliveryService) RequestCode(ctx context.Context, deliveryID uuid.UUID, courierID string) error {
	delivery, err := s.load(ctx, deliveryID)
	if err != nil {
		return err
	}
	if !delivery.Status.CanTransitionTo(domain.DeliveryStatusAwaitingCode) {
		return &errors.ErrInvalidStateTransition{
			From: string(delivery.Status),
			To:   string(domain.DeliveryStatusAwaitingCode),
		}
	}

	now := s.now()
	if delivery.CodeRequestedAt != nil {
		elapsed := now.Sub(*delivery.CodeRequestedAt)
		if elapsed < s.cooldown {
			return &errors.ErrCooldownActive{Remaining: s.cooldown - elapsed}
		}
	}

	seller, err := s.repos.Sellers.GetByID(ctx, delivery.SellerID)
	if err != nil {
		return err
	}
	handle, err := s.client.RequestDeliveryCode(ctx, authFor(seller), delivery.KaspiOrderID, delivery.CustomerPhone)
	if err != nil {
		return err
	}

	requestedAt := now
	expiresAt := now.Add(s.codeTTL)
	delivery.Status = domain.DeliveryStatusAwaitingCode
	delivery.CodeRequested = true
	delivery.CodeRequestedAt = &requestedAt
	delivery.CodeHandle = handle
	delivery.ExpiresAt = &expiresAt
	// a fresh code carries a fresh attempt budget
	delivery.AttemptCount = 0
	if err := s.repos.Deliveries.Update(ctx, delivery); err != nil {
		return err
	}
	return s.appendHistory(ctx, delivery, domain.DeliveryActionCodeRequested, courierID, "", nil, nil)
}

// ConfirmWithCode verifies the courier-entered code. Every verification
// spends one attempt; exhausted attempts and expired codes are rejected
// locally so the UI can prompt for a new code instead of retrying.
func (s *DeliveryService) ConfirmWithCode(ctx context.Context, deliveryID uuid.UUID, courierID, code string) error {
	delivery, err := s.load(ctx, deliveryID)
	if err != nil {
		return err
	}
	if delivery.Status != domain.DeliveryStatusAwaitingCode {
		return &errors.ErrInvalidStateTransition{
			From: string(delivery.Status),
			To:   string(domain.DeliveryStatusConfirmed),
		}
	}

	if delivery.AttemptCount >= delivery.MaxAttempts {
		metrics.DeliveryConfirmations.WithLabelValues("attempts_exhausted").Inc()
		return &errors.ErrAttemptsExhausted{MaxAttempts: delivery.MaxAttempts}
	}
	now := s.now()
	if delivery.ExpiresAt == nil || !now.Before(*delivery.ExpiresAt) {
		metrics.DeliveryConfirmations.WithLabelValues("expired").Inc()
		var expiredAt time.Time
		if delivery.ExpiresAt != nil {
			expiredAt = *delivery.ExpiresAt
		}
		return &errors.ErrCodeExpired{ExpiredAt: expiredAt}
	}

	// every verification attempt counts, malformed input included
	delivery.AttemptCount++
	if err := s.repos.Deliveries.Update(ctx, delivery); err != nil {
		return err
	}
	if err := s.appendHistory(ctx, delivery, domain.DeliveryActionCodeEntered, courierID, "", nil, nil); err != nil {
		s.logger.Warn("Failed to append delivery history", zap.Error(err))
	}

	normalized := domain.NormalizeSMSCode(code)
	if !domain.IsValidSMSCode(code) {
		metrics.DeliveryConfirmations.WithLabelValues("malformed").Inc()
		return &errors.ErrCodeInvalid{AttemptsRemaining: delivery.MaxAttempts - delivery.AttemptCount}
	}

	seller, err := s.repos.Sellers.GetByID(ctx, delivery.SellerID)
	if err != nil {
		return err
	}
	confirmed, err := s.client.ConfirmDelivery(ctx, authFor(seller), delivery.KaspiOrderID, normalized)
	if err != nil {
		return err
	}
	if !confirmed {
		metrics.DeliveryConfirmations.WithLabelValues("invalid").Inc()
		return &errors.ErrCodeInvalid{AttemptsRemaining: delivery.MaxAttempts - delivery.AttemptCount}
	}

	delivery.Status = domain.DeliveryStatusConfirmed
	delivery.ConfirmedAt = &now
	delivery.ConfirmedBy = courierID
	if err := s.repos.Deliveries.Update(ctx, delivery); err != nil {
		return err
	}
	if err := s.completeOrder(ctx, delivery); err != nil {
		return err
	}
	if err := s.appendHistory(ctx, delivery, domain.DeliveryActionDelivered, courierID, "", nil, nil); err != nil {
		s.logger.Warn("Failed to append delivery history", zap.Error(err))
	}

	s.notifier.NotifySeller(ctx, delivery.SellerID, "delivery",
		"Order delivered",
		"Order "+delivery.KaspiOrderID+" was confirmed by the customer")

	metrics.DeliveryConfirmations.WithLabelValues("confirmed").Inc()
	s.logger.Info("Delivery confirmed",
		zap.String("delivery", delivery.ID.String()),
		zap.String("order", delivery.KaspiOrderID),
	)
	return nil
}

// MarkFailed moves any non-terminal delivery to failed and requeues the
// parent order for redelivery
func (s *DeliveryService) MarkFailed(ctx context.Context, deliveryID uuid.UUID, actorID, reason string) error {
	delivery, err := s.load(ctx, deliveryID)
	if err != nil {
		return err
	}
	if !delivery.Status.CanTransitionTo(domain.DeliveryStatusFailed) {
		return &errors.ErrInvalidStateTransition{
			From: string(delivery.Status),
			To:   string(domain.DeliveryStatusFailed),
		}
	}

	delivery.Status = domain.DeliveryStatusFailed
	delivery.FailReason = reason
	if err := s.repos.Deliveries.Update(ctx, delivery); err != nil {
		return err
	}

	order, err := s.repos.Orders.Get(ctx, delivery.SellerID, delivery.KaspiOrderID)
	if err == nil && order.Status == domain.OrderStatusShipped {
		if err := s.repos.Orders.UpdateStatus(ctx, order, domain.OrderStatusPending); err != nil {
			s.logger.Warn("Failed to requeue order after delivery failure",
				zap.String("order", delivery.KaspiOrderID), zap.Error(err))
		}
	}

	s.notifier.NotifySeller(ctx, delivery.SellerID, "delivery",
		"Delivery failed",
		"Order "+delivery.KaspiOrderID+": "+reason)

	metrics.DeliveryConfirmations.WithLabelValues("failed").Inc()
	return s.appendHistory(ctx, delivery, domain.DeliveryActionFailed, actorID, reason, nil, nil)
}

// Cancel moves any non-terminal delivery to cancelled
func (s *DeliveryService) Cancel(ctx context.Context, deliveryID uuid.UUID) error {
	delivery, err := s.load(ctx, deliveryID)
	if err != nil {
		return err
	}
	if !delivery.Status.CanTransitionTo(domain.DeliveryStatusCancelled) {
		return &errors.ErrInvalidStateTransition{
			From: string(delivery.Status),
			To:   string(domain.DeliveryStatusCancelled),
		}
	}
	delivery.Status = domain.DeliveryStatusCancelled
	return s.repos.Deliveries.Update(ctx, delivery)
}

// Get returns the delivery by id
func (s *DeliveryService) Get(ctx context.Context, deliveryID uuid.UUID) (*domain.DeliveryConfirmation, error) {
	return s.load(ctx, deliveryID)
}

// History returns the delivery's audit trail in chronological order
func (s *DeliveryService) History(ctx context.Context, deliveryID uuid.UUID) ([]*domain.DeliveryHistoryEntry, error) {
	return s.repos.History.ListByDelivery(ctx, deliveryID)
}

func (s *DeliveryService) load(ctx context.Context, deliveryID uuid.UUID) (*domain.DeliveryConfirmation, error) {
	return s.repos.Deliveries.GetByID(ctx, deliveryID)
}

func (s *DeliveryService) transition(ctx context.Context, deliveryID uuid.UUID, to domain.DeliveryStatus) (*domain.DeliveryConfirmation, error) {
	delivery, err := s.load(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if !delivery.Status.CanTransitionTo(to) {
		return nil, &errors.ErrInvalidStateTransition{
			From: string(delivery.Status),
			To:   string(to),
		}
	}
	delivery.Status = to
	if err := s.repos.Deliveries.Update(ctx, delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

func (s *DeliveryService) completeOrder(ctx context.Context, delivery *domain.DeliveryConfirmation) error {
	order, err := s.repos.Orders.Get(ctx, delivery.SellerID, delivery.KaspiOrderID)
	if err != nil {
		return err
	}
	return s.repos.Orders.UpdateStatus(ctx, order, domain.OrderStatusCompleted)
}

func (s *DeliveryService) appendHistory(ctx context.Context, delivery *domain.DeliveryConfirmation, action domain.DeliveryAction, actorID, detail string, lat, lng *float64) error {
	return s.repos.History.Append(ctx, &domain.DeliveryHistoryEntry{
		DeliveryID: delivery.ID,
		Action:     action,
		ActorID:    actorID,
		ActorRole:  "courier",
		Detail:     detail,
		Latitude:   lat,
		Longitude:  lng,
		CreatedAt:  s.now(),
	})
}

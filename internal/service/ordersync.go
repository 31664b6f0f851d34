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

// CancelReasonOutOfStock is the marketplace reason code for an entry
// cancelled over missing stock
const CancelReasonOutOfStock = "OUT_OF_STOCK"

// remoteStatusNew is the remote status of orders awaiting merchant action
const remoteStatusNew = "NEW"

// StockSnapshot maps SKU to available quantity at decision time
type StockSnapshot map[string]int

// DecisionKind is the processing branch chosen for an order
type DecisionKind int

const (
	DecisionCancelForStock DecisionKind = iota
	DecisionShipWithCourier
	DecisionCreatePickupTask
)

// Decision is the outcome of the pure processing function
type Decision struct {
	Kind      DecisionKind
	ShortSKUs []string
}

// Decide inspects stock for every line item and picks the processing
// branch. Pure: no I/O, fully determined by its inputs.
func Decide(order *domain.Order, stock StockSnapshot) Decision {
	var short []string
	for _, entry := range order.Entries {
		if stock[entry.SKU] < entry.Quantity {
			short = append(short, entry.SKU)
		}
	}
	if len(short) > 0 {
		return Decision{Kind: DecisionCancelForStock, ShortSKUs: short}
	}
	if order.DeliveryType == domain.DeliveryTypePickup {
		return Decision{Kind: DecisionCreatePickupTask}
	}
	return Decision{Kind: DecisionShipWithCourier}
}

// ProcessingOutcome is what ProcessOrder did with an order
type ProcessingOutcome interface {
	outcome()
}

// CancelledForStock reports the entries cancelled with OUT_OF_STOCK
type CancelledForStock struct {
	SKUs []string
}

// ShippedWithCourier reports the delivery confirmation that was created
type ShippedWithCourier struct {
	Delivery *domain.DeliveryConfirmation
}

// PickupTaskCreated reports the seller-facing pickup task
type PickupTaskCreated struct {
	Task *domain.PickupTask
}

func (CancelledForStock) outcome()  {}
func (ShippedWithCourier) outcome() {}
func (PickupTaskCreated) outcome()  {}

// OrderSyncer ingests new marketplace orders and processes them
type OrderSyncer struct {
	client   kaspi.API
	repos    *repository.Repositories
	tokens   *TokenStore
	assigner CourierAssigner
	notifier *Notifier
	pageSize int
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrderSyncer creates a new order syncer
func NewOrderSyncer(client kaspi.API, repos *repository.Repositories, tokens *TokenStore, assigner CourierAssigner, notifier *Notifier, pageSize int, logger *zap.Logger) *OrderSyncer {
	return &OrderSyncer{
		client:   client,
		repos:    repos,
		tokens:   tokens,
		assigner: assigner,
		notifier: notifier,
		pageSize: pageSize,
		logger:   logger,
		now:      time.Now,
	}
}

// SyncNewOrders pulls orders created within the window and upserts them
// locally in pending status
func (s *OrderSyncer) SyncNewOrders(ctx context.Context, sellerID uuid.UUID, since time.Duration) ([]*domain.Order, error) {
	seller, err := s.repos.Sellers.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if err := requireToken(s.tokens, seller); err != nil {
		metrics.SyncCycles.WithLabelValues("orders", "token_invalid").Inc()
		return nil, err
	}
	auth := authFor(seller)

	remote, pages, err := s.client.AllOrders(ctx, auth, remoteStatusNew, s.pageSize)
	if err != nil {
		metrics.SyncCycles.WithLabelValues("orders", "fetch_error").Inc()
		return nil, err
	}

	cutoff := s.now().Add(-since)
	calls := pages

	orders := make([]*domain.Order, 0, len(remote))
	for _, r := range remote {
		created := time.UnixMilli(r.CreationDate)
		if created.Before(cutoff) {
			continue
		}

		entries, err := s.client.OrderEntries(ctx, auth, r.ID)
		if err != nil {
			metrics.SyncCycles.WithLabelValues("orders", "fetch_error").Inc()
			return nil, err
		}
		calls++

		order := mapRemoteOrder(seller.ID, r, entries)
		if err := s.repos.Orders.Upsert(ctx, order); err != nil {
			metrics.SyncCycles.WithLabelValues("orders", "store_error").Inc()
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := s.repos.Sellers.RecordUsage(ctx, sellerID, calls); err != nil {
		s.logger.Warn("Failed to record API usage", zap.String("seller", sellerID.String()), zap.Error(err))
	}

	metrics.SyncCycles.WithLabelValues("orders", "ok").Inc()
	s.logger.Info("Order sync complete",
		zap.String("seller", sellerID.String()),
		zap.Int("orders", len(orders)),
	)
	return orders, nil
}

// StockSnapshotFor reads the cached catalog quantities for every line
// item of the order. Unknown SKUs count as zero stock.
func (s *OrderSyncer) StockSnapshotFor(ctx context.Context, order *domain.Order) (StockSnapshot, error) {
	snapshot := make(StockSnapshot, len(order.Entries))
	for _, entry := range order.Entries {
		product, err := s.repos.Products.GetByKaspiID(ctx, order.SellerID, entry.SKU)
		if err != nil {
			snapshot[entry.SKU] = 0
			continue
		}
		snapshot[entry.SKU] = product.TotalStock()
	}
	return snapshot, nil
}

// ProcessOrder applies the stock decision: cancel short entries, or
// accept and ship with a courier, or accept and queue a pickup task
func (s *OrderSyncer) ProcessOrder(ctx context.Context, order *domain.Order) (ProcessingOutcome, error) {
	seller, err := s.repos.Sellers.GetByID(ctx, order.SellerID)
	if err != nil {
		return nil, err
	}
	if err := requireToken(s.tokens, seller); err != nil {
		return nil, err
	}
	auth := authFor(seller)

	snapshot, err := s.StockSnapshotFor(ctx, order)
	if err != nil {
		return nil, err
	}

	decision := Decide(order, snapshot)
	switch decision.Kind {
	case DecisionCancelForStock:
		return s.cancelShortEntries(ctx, auth, order, decision.ShortSKUs)
	case DecisionCreatePickupTask:
		return s.createPickupTask(ctx, auth, order)
	default:
		return s.shipWithCourier(ctx, auth, order)
	}
}

func (s *OrderSyncer) cancelShortEntries(ctx context.Context, auth kaspi.Auth, order *domain.Order, skus []string) (ProcessingOutcome, error) {
	short := make(map[string]bool, len(skus))
	for _, sku := range skus {
		short[sku] = true
	}

	for i := range order.Entries {
		if !short[order.Entries[i].SKU] {
			continue
		}
		if err := s.client.CancelOrderEntry(ctx, auth, order.KaspiOrderID, order.Entries[i].SKU, CancelReasonOutOfStock); err != nil {
			return nil, err
		}
		order.Entries[i].CancelReason = CancelReasonOutOfStock
	}

	if err := s.repos.Orders.Upsert(ctx, order); err != nil {
		return nil, err
	}

	s.notifier.NotifySeller(ctx, order.SellerID, "stock",
		"Order entries cancelled",
		"Order "+order.KaspiOrderID+" had entries cancelled for missing stock")

	s.logger.Info("Cancelled short order entries",
		zap.String("order", order.KaspiOrderID),
		zap.Strings("skus", skus),
	)
	return CancelledForStock{SKUs: skus}, nil
}

func (s *OrderSyncer) shipWithCourier(ctx context.Context, auth kaspi.Auth, order *domain.Order) (ProcessingOutcome, error) {
	if err := s.client.AcceptOrder(ctx, auth, order.KaspiOrderID); err != nil {
		return nil, err
	}
	if err := s.client.ShipOrder(ctx, auth, order.KaspiOrderID); err != nil {
		return nil, err
	}
	if err := s.repos.Orders.UpdateStatus(ctx, order, domain.OrderStatusShipped); err != nil {
		return nil, err
	}

	courier, err := s.assigner.Assign(ctx, order)
	if err != nil {
		return nil, err
	}

	delivery := &domain.DeliveryConfirmation{
		OrderID:       order.ID,
		KaspiOrderID:  order.KaspiOrderID,
		SellerID:      order.SellerID,
		CourierID:     courier,
		CustomerPhone: domain.NormalizePhone(order.CustomerPhone),
		Address:       order.Address,
		Status:        domain.DeliveryStatusPending,
	}
	if err := s.repos.Deliveries.Create(ctx, delivery); err != nil {
		return nil, err
	}

	for _, action := range []domain.DeliveryAction{domain.DeliveryActionCreated, domain.DeliveryActionAssigned} {
		if err := s.repos.History.Append(ctx, &domain.DeliveryHistoryEntry{
			DeliveryID: delivery.ID,
			Action:     action,
			ActorID:    courier,
			ActorRole:  "system",
		}); err != nil {
			s.logger.Warn("Failed to append delivery history", zap.Error(err))
		}
	}

	s.logger.Info("Order shipped with courier",
		zap.String("order", order.KaspiOrderID),
		zap.String("courier", courier),
	)
	return ShippedWithCourier{Delivery: delivery}, nil
}

func (s *OrderSyncer) createPickupTask(ctx context.Context, auth kaspi.Auth, order *domain.Order) (ProcessingOutcome, error) {
	if err := s.client.AcceptOrder(ctx, auth, order.KaspiOrderID); err != nil {
		return nil, err
	}

	task := &domain.PickupTask{
		SellerID:    order.SellerID,
		OrderID:     order.ID,
		WarehouseID: order.WarehouseID,
	}
	if err := s.repos.PickupTasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("Pickup task created", zap.String("order", order.KaspiOrderID))
	return PickupTaskCreated{Task: task}, nil
}

// mapRemoteOrder converts the marketplace order schema to the local one
func mapRemoteOrder(sellerID uuid.UUID, r kaspi.RemoteOrder, entries []kaspi.RemoteOrderEntry) *domain.Order {
	items := make([]domain.OrderEntry, 0, len(entries))
	for _, e := range entries {
		items = append(items, domain.OrderEntry{
			SKU:       e.SKU,
			Name:      e.Name,
			Quantity:  e.Quantity,
			UnitPrice: e.BasePrice,
		})
	}

	deliveryType := domain.DeliveryTypeCourier
	if r.DeliveryMode == kaspi.DeliveryModePickup {
		deliveryType = domain.DeliveryTypePickup
	}

	return &domain.Order{
		KaspiOrderID:  r.ID,
		SellerID:      sellerID,
		WarehouseID:   r.WarehouseID,
		Entries:       items,
		Status:        domain.OrderStatusPending,
		Priority:      domain.PriorityNormal,
		DeliveryType:  deliveryType,
		CustomerName:  r.CustomerName,
		CustomerPhone: domain.NormalizePhone(r.CustomerPhone),
		Address:       r.Address,
		TotalPrice:    r.TotalPrice,
		CreatedAt:     time.UnixMilli(r.CreationDate),
	}
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/kaspi"
	"github.com/satushop/kaspisync/internal/repository"
)

func newOrderSyncer(t *testing.T, repos *repository.Repositories, api *fakeAPI) *OrderSyncer {
	t.Helper()
	tokens := NewTokenStore(repos, api, zap.NewNop())
	notifier := NewNotifier(repos, zap.NewNop())
	assigner := NewRoundRobinAssigner([]string{"courier-1", "courier-2"})
	return NewOrderSyncer(api, repos, tokens, assigner, notifier, 50, zap.NewNop())
}

func seedCatalog(t *testing.T, repos *repository.Repositories, seller *domain.Seller, stock map[string]int) {
	t.Helper()
	products := make([]*domain.Product, 0, len(stock))
	for sku, qty := range stock {
		p := &domain.Product{
			KaspiProductID: sku,
			Name:           sku,
			IsActive:       true,
			WarehouseStock: map[string]int{"PP1": qty},
		}
		p.DeriveStatus()
		products = append(products, p)
	}
	require.NoError(t, repos.Products.ReplaceAll(context.Background(), seller.ID, products))
}

func TestDecide(t *testing.T) {
	order := &domain.Order{
		DeliveryType: domain.DeliveryTypeCourier,
		Entries: []domain.OrderEntry{
			{SKU: "a", Quantity: 2},
			{SKU: "b", Quantity: 1},
		},
	}

	d := Decide(order, StockSnapshot{"a": 5, "b": 1})
	assert.Equal(t, DecisionShipWithCourier, d.Kind)

	d = Decide(order, StockSnapshot{"a": 1, "b": 1})
	assert.Equal(t, DecisionCancelForStock, d.Kind)
	assert.Equal(t, []string{"a"}, d.ShortSKUs)

	// unknown SKU counts as zero stock
	d = Decide(order, StockSnapshot{"a": 5})
	assert.Equal(t, DecisionCancelForStock, d.Kind)
	assert.Equal(t, []string{"b"}, d.ShortSKUs)

	order.DeliveryType = domain.DeliveryTypePickup
	d = Decide(order, StockSnapshot{"a": 5, "b": 1})
	assert.Equal(t, DecisionCreatePickupTask, d.Kind)
}

func TestProcessOrderShipsWithCourierWhenStockSuffices(t *testing.T) {
	repos := newTestRepos(t)
	api := newFakeAPI()
	syncer := newOrderSyncer(t, repos, api)
	seller := createSeller(t, repos, "tok-1")
	seedCatalog(t, repos, seller, map[string]int{"sku-a": 5, "sku-b": 3})

	order := &domain.Order{
		KaspiOrderID: "KSP-1",
		SellerID:     seller.ID,
		Status:       domain.OrderStatusPending,
		DeliveryType: domain.DeliveryTypeCourier,
		CustomerPhone: "+8 (777) 123-45-67",
		Entries: []domain.OrderEntry{
			{SKU: "sku-a", Quantity: 2},
			{SKU: "sku-b", Quantity: 1},
		},
	}
	require.NoError(t, repos.Orders.Upsert(context.Background(), order))

	outcome, err := syncer.ProcessOrder(context.Background(), order)
	require.NoError(t, err)

	shipped, ok := outcome.(ShippedWithCourier)
	require.True(t, ok)
	assert.Equal(t, domain.DeliveryStatusPending, shipped.Delivery.Status)
	assert.Equal(t, "courier-1", shipped.Delivery.CourierID)
	assert.Equal(t, "87771234567", shipped.Delivery.CustomerPhone)
	assert.Equal(t, 3, shipped.Delivery.MaxAttempts)

	assert.Equal(t, []string{"KSP-1"}, api.accepted)
	assert.Equal(t, []string{"KSP-1"}, api.shipped)
	assert.Empty(t, api.cancelled)

	got, err := repos.Orders.Get(context.Background(), seller.ID, "KSP-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, got.Status)

	history, err := repos.History.ListByDelivery(context.Background(), shipped.Delivery.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.DeliveryActionCreated, history[0].Action)
	assert.Equal(t, domain.DeliveryActionAssigned, history[1].Action)
}

func TestProcessOrderCancelsShortEntryAndStops(t *testing.T) {
	repos := newTestRepos(t)
	api := newFakeAPI()
	syncer := newOrderSyncer(t, repos, api)
	seller := createSeller(t, repos, "tok-1")
	seedCatalog(t, repos, seller, map[string]int{"sku-a": 5, "sku-b": 0})

	order := &domain.Order{
		KaspiOrderID: "KSP-2",
		SellerID:     seller.ID,
		Status:       domain.OrderStatusPending,
		DeliveryType: domain.DeliveryTypeCourier,
		Entries: []domain.OrderEntry{
			{SKU: "sku-a", Quantity: 2},
			{SKU: "sku-b", Quantity: 1},
		},
	}
	require.NoError(t, repos.Orders.Upsert(context.Background(), order))

	outcome, err := syncer.ProcessOrder(context.Background(), order)
	require.NoError(t, err)

	cancelled, ok := outcome.(CancelledForStock)
	require.True(t, ok)
	assert.Equal(t, []string{"sku-b"}, cancelled.SKUs)

	// only the short entry is cancelled, the order is not shipped
	assert.Equal(t, []string{"KSP-2:sku-b:OUT_OF_STOCK"}, api.cancelled)
	assert.Empty(t, api.accepted)
	assert.Empty(t, api.shipped)

	got, err := repos.Orders.Get(context.Background(), seller.ID, "KSP-2")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
	assert.Equal(t, CancelReasonOutOfStock, got.Entries[1].CancelReason)
	assert.Empty(t, got.Entries[0].CancelReason)
}

func TestProcessOrderCreatesPickupTaskForSelfPickup(t *testing.T) {
	repos := newTestRepos(t)
	api := newFakeAPI()
	syncer := newOrderSyncer(t, repos, api)
	seller := createSeller(t, repos, "tok-1")
	seedCatalog(t, repos, seller, map[string]int{"sku-a": 5})

	order := &domain.Order{
		KaspiOrderID: "KSP-3",
		SellerID:     seller.ID,
		WarehouseID:  "PP1",
		Status:       domain.OrderStatusPending,
		DeliveryType: domain.DeliveryTypePickup,
		Entries:      []domain.OrderEntry{{SKU: "sku-a", Quantity: 1}},
	}
	require.NoError(t, repos.Orders.Upsert(context.Background(), order))

	outcome, err := syncer.ProcessOrder(context.Background(), order)
	require.NoError(t, err)

	created, ok := outcome.(PickupTaskCreated)
	require.True(t, ok)
	assert.Equal(t, "PP1", created.Task.WarehouseID)
	assert.Equal(t, []string{"KSP-3"}, api.accepted)
	assert.Empty(t, api.shipped)

	tasks, err := repos.PickupTasks.ListBySeller(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestSyncNewOrdersFiltersByWindow(t *testing.T) {
	repos := newTestRepos(t)
	api := newFakeAPI()
	now := time.Now()
	api.orders = []kaspi.RemoteOrder{
		{ID: "KSP-recent", DeliveryMode: kaspi.DeliveryModeCarrier,
			CreationDate: now.Add(-1 * time.Hour).UnixMilli()},
		{ID: "KSP-ancient", DeliveryMode: kaspi.DeliveryModeCarrier,
			CreationDate: now.Add(-72 * time.Hour).UnixMilli()},
	}
	api.entries["KSP-recent"] = []kaspi.RemoteOrderEntry{{SKU: "sku-a", Quantity: 1, BasePrice: 500}}

	syncer := newOrderSyncer(t, repos, api)
	seller := createSeller(t, repos, "tok-1")

	orders, err := syncer.SyncNewOrders(context.Background(), seller.ID, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "KSP-recent", orders[0].KaspiOrderID)
	assert.Equal(t, domain.OrderStatusPending, orders[0].Status)
	require.Len(t, orders[0].Entries, 1)
	assert.Equal(t, "sku-a", orders[0].Entries[0].SKU)
}

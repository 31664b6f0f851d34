package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/store"
)

func newRepos(t *testing.T) (*Repositories, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	return New(s, zap.NewNop()), s
}

func TestSellerRoundTrip(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()

	seller := &domain.Seller{Name: "Satu Shop", Tier: domain.TierStandard, IsActive: true}
	require.NoError(t, repos.Sellers.Create(ctx, seller))
	require.NotEqual(t, uuid.Nil, seller.ID)
	assert.Equal(t, 100, seller.HourlyQuota)

	got, err := repos.Sellers.GetByID(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "Satu Shop", got.Name)
	assert.Equal(t, domain.TierStandard, got.Tier)

	require.NoError(t, repos.Sellers.SaveToken(ctx, seller.ID, "tok-1"))
	got, err = repos.Sellers.GetByID(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.KaspiToken)
}

func TestSellerListActiveSkipsNestedDocuments(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()

	seller := &domain.Seller{Name: "Active", IsActive: true}
	require.NoError(t, repos.Sellers.Create(ctx, seller))
	inactive := &domain.Seller{Name: "Inactive", IsActive: false}
	require.NoError(t, repos.Sellers.Create(ctx, inactive))

	require.NoError(t, repos.Products.ReplaceAll(ctx, seller.ID, []*domain.Product{
		{KaspiProductID: "p-1", Name: "Phone", IsActive: true},
	}))

	sellers, err := repos.Sellers.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, sellers, 1)
	assert.Equal(t, "Active", sellers[0].Name)
}

func TestProductReplaceAllDropsStaleEntries(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()
	sellerID := uuid.New()

	require.NoError(t, repos.Products.ReplaceAll(ctx, sellerID, []*domain.Product{
		{KaspiProductID: "p-old", Name: "Old"},
		{KaspiProductID: "p-keep", Name: "Keep v1"},
	}))

	require.NoError(t, repos.Products.ReplaceAll(ctx, sellerID, []*domain.Product{
		{KaspiProductID: "p-keep", Name: "Keep v2"},
		{KaspiProductID: "p-new", Name: "New"},
	}))

	products, err := repos.Products.ListBySeller(ctx, sellerID)
	require.NoError(t, err)
	require.Len(t, products, 2)

	_, err = repos.Products.GetByKaspiID(ctx, sellerID, "p-old")
	assert.Error(t, err)

	kept, err := repos.Products.GetByKaspiID(ctx, sellerID, "p-keep")
	require.NoError(t, err)
	assert.Equal(t, "Keep v2", kept.Name)
}

func TestProductMergeAllKeepsUnlistedEntries(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()
	sellerID := uuid.New()

	require.NoError(t, repos.Products.ReplaceAll(ctx, sellerID, []*domain.Product{
		{KaspiProductID: "p-old", Name: "Old"},
	}))
	require.NoError(t, repos.Products.MergeAll(ctx, sellerID, []*domain.Product{
		{KaspiProductID: "p-new", Name: "New"},
	}))

	products, err := repos.Products.ListBySeller(ctx, sellerID)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestOrderUpsertMirrorsKaspiOrders(t *testing.T) {
	repos, s := newRepos(t)
	ctx := context.Background()

	order := &domain.Order{
		KaspiOrderID: "KSP-1001",
		SellerID:     uuid.New(),
		Status:       domain.OrderStatusPending,
	}
	require.NoError(t, repos.Orders.Upsert(ctx, order))

	_, err := s.Get(ctx, "kaspiOrders/KSP-1001")
	require.NoError(t, err)

	got, err := repos.Orders.Get(ctx, order.SellerID, "KSP-1001")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestOrderUpdateStatusRejectsIllegalTransition(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()

	order := &domain.Order{
		KaspiOrderID: "KSP-1",
		SellerID:     uuid.New(),
		Status:       domain.OrderStatusPending,
	}
	require.NoError(t, repos.Orders.Upsert(ctx, order))

	err := repos.Orders.UpdateStatus(ctx, order, domain.OrderStatusCompleted)
	assert.Error(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	require.NoError(t, repos.Orders.UpdateStatus(ctx, order, domain.OrderStatusShipped))
	assert.Equal(t, domain.OrderStatusShipped, order.Status)
}

func TestHistoryListIsChronological(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()
	deliveryID := uuid.New()

	base := time.Now()
	actions := []domain.DeliveryAction{
		domain.DeliveryActionCreated,
		domain.DeliveryActionStarted,
		domain.DeliveryActionArrived,
	}
	for i, action := range actions {
		require.NoError(t, repos.History.Append(ctx, &domain.DeliveryHistoryEntry{
			DeliveryID: deliveryID,
			Action:     action,
			ActorRole:  "courier",
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := repos.History.ListByDelivery(ctx, deliveryID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, action := range actions {
		assert.Equal(t, action, entries[i].Action)
	}
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/repository"
)

func seedProduct(t *testing.T, repos *repository.Repositories, seller *domain.Seller, kaspiID string, price int64) {
	t.Helper()
	require.NoError(t, repos.Products.MergeAll(context.Background(), seller.ID, []*domain.Product{{
		KaspiProductID: kaspiID,
		SellerID:       seller.ID,
		Name:           "Product " + kaspiID,
		Price:          price,
		Status:         domain.ProductStatusInStock,
		IsActive:       true,
		WarehouseStock: map[string]int{"wh-1": 5},
	}}))
}

func TestAutoDumpUndercutsWhenNotFirst(t *testing.T) {
	repos := newTestRepos(t)
	api := newFakeAPI()
	seller := createSeller(t, repos, "tok-1")
	seedProduct(t, repos, seller, "p-1", 10000)
	seedProduct(t, repos, seller, "p-2", 5000)
	api.positions["p-1"] = 3
	api.positions["p-2"] = 1

	tokens := NewTokenStore(repos, api, zap.NewNop())
	pricer := NewPriceOptimizer(api, repos, tokens, 1000, zap.NewNop())

	changed, err := pricer.RunAutoDump(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	// 2% cut, floored to whole units
	require.Len(t, api.pushedPrices, 1)
	assert.Equal(t, "p-1", api.pushedPrices[0].ProductID)
	assert.Equal(t, int64(9800), api.pushedPrices[0].Price)

	p1, err := repos.Products.GetByKaspiID(context.Background(), seller.ID, "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(9800), p1.Price)

	// ranked first, left alone
	p2, err := repos.Products.GetByKaspiID(context.Background(), seller.ID, "p-2")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), p2.Price)
}

func TestAutoDumpNeverGoesBelowFloor(t *testing.T) {
	repos := newTestRepos(t)
	api := newFakeAPI()
	seller := createSeller(t, repos, "tok-1")
	seedProduct(t, repos, seller, "p-1", 1020)
	api.positions["p-1"] = 5

	tokens := NewTokenStore(repos, api, zap.NewNop())
	pricer := NewPriceOptimizer(api, repos, tokens, 1000, zap.NewNop())

	// first pass clamps 1020*0.98=999.6 up to the floor
	changed, err := pricer.RunAutoDump(context.Background(), seller.ID)
	require.NoError(t, err)
	require.Equal(t, 1, changed)
	assert.Equal(t, int64(1000), api.pushedPrices[0].Price)

	// subsequent passes have nothing left to cut, however long the
	// product stays outranked
	for i := 0; i < 5; i++ {
		changed, err = pricer.RunAutoDump(context.Background(), seller.ID)
		require.NoError(t, err)
		assert.Zero(t, changed)
	}
	assert.Len(t, api.pushedPrices, 1)

	p, err := repos.Products.GetByKaspiID(context.Background(), seller.ID, "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), p.Price)
}

func TestAutoDumpSkipsInactiveProducts(t *testing.T) {
	repos := newTestRepos(t)
	api := newFakeAPI()
	seller := createSeller(t, repos, "tok-1")
	require.NoError(t, repos.Products.MergeAll(context.Background(), seller.ID, []*domain.Product{{
		KaspiProductID: "p-1",
		SellerID:       seller.ID,
		Price:          10000,
		Status:         domain.ProductStatusInactive,
		IsActive:       false,
	}}))
	api.positions["p-1"] = 4

	tokens := NewTokenStore(repos, api, zap.NewNop())
	pricer := NewPriceOptimizer(api, repos, tokens, 1000, zap.NewNop())

	changed, err := pricer.RunAutoDump(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.Zero(t, changed)
	assert.Empty(t, api.pushedPrices)
}

func TestAutoDumpRequiresToken(t *testing.T) {
	repos := newTestRepos(t)
	api := newFakeAPI()
	seller := createSeller(t, repos, "")

	tokens := NewTokenStore(repos, api, zap.NewNop())
	pricer := NewPriceOptimizer(api, repos, tokens, 1000, zap.NewNop())

	_, err := pricer.RunAutoDump(context.Background(), seller.ID)
	assert.Error(t, err)
}

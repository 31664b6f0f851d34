package service

import (
	"context"
	"sync"

	"github.com/satushop/kaspisync/internal/kaspi"
)

// fakeAPI is an in-memory marketplace double that records every call
type fakeAPI struct {
	mu sync.Mutex

	products  []kaspi.RemoteProduct
	orders    []kaspi.RemoteOrder
	entries   map[string][]kaspi.RemoteOrderEntry
	positions map[string]int

	confirmResult bool
	confirmErr    error

	smsRequests  int
	confirmCalls int
	accepted     []string
	shipped      []string
	cancelled    []string
	pushedPrices []kaspi.PriceChange
}

var _ kaspi.API = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		entries:   make(map[string][]kaspi.RemoteOrderEntry),
		positions: make(map[string]int),
	}
}

func (f *fakeAPI) Products(ctx context.Context, auth kaspi.Auth, page, size int) (*kaspi.ProductPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &kaspi.ProductPage{Items: f.products, TotalPages: 1}, nil
}

func (f *fakeAPI) AllProducts(ctx context.Context, auth kaspi.Auth, size int) ([]kaspi.RemoteProduct, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products, 1, nil
}

func (f *fakeAPI) Orders(ctx context.Context, auth kaspi.Auth, status string, page, size int) (*kaspi.OrderPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &kaspi.OrderPage{Items: f.orders, TotalPages: 1}, nil
}

func (f *fakeAPI) AllOrders(ctx context.Context, auth kaspi.Auth, status string, size int) ([]kaspi.RemoteOrder, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders, 1, nil
}

func (f *fakeAPI) OrderEntries(ctx context.Context, auth kaspi.Auth, orderID string) ([]kaspi.RemoteOrderEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[orderID], nil
}

func (f *fakeAPI) AcceptOrder(ctx context.Context, auth kaspi.Auth, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted = append(f.accepted, orderID)
	return nil
}

func (f *fakeAPI) ShipOrder(ctx context.Context, auth kaspi.Auth, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shipped = append(f.shipped, orderID)
	return nil
}

func (f *fakeAPI) CancelOrderEntry(ctx context.Context, auth kaspi.Auth, orderID, sku, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, orderID+":"+sku+":"+reason)
	return nil
}

func (f *fakeAPI) ProductPosition(ctx context.Context, auth kaspi.Auth, productID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pos, ok := f.positions[productID]; ok {
		return pos, nil
	}
	return 1, nil
}

func (f *fakeAPI) ChangePrices(ctx context.Context, auth kaspi.Auth, changes []kaspi.PriceChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushedPrices = append(f.pushedPrices, changes...)
	return nil
}

func (f *fakeAPI) RequestDeliveryCode(ctx context.Context, auth kaspi.Auth, orderID, phone string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.smsRequests++
	return "handle-1", nil
}

func (f *fakeAPI) ConfirmDelivery(ctx context.Context, auth kaspi.Auth, orderID, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmCalls++
	return f.confirmResult, f.confirmErr
}

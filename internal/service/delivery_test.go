package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/repository"
	"github.com/satushop/kaspisync/pkg/errors"
)

type deliveryFixture struct {
	repos    *repository.Repositories
	api      *fakeAPI
	svc      *DeliveryService
	seller   *domain.Seller
	delivery *domain.DeliveryConfirmation
	clock    *time.Time
}

// newDeliveryFixture builds a courier-assigned delivery in arrived
// state with a controllable clock
func newDeliveryFixture(t *testing.T) *deliveryFixture {
	t.Helper()
	ctx := context.Background()

	repos := newTestRepos(t)
	api := newFakeAPI()
	seller := createSeller(t, repos, "tok-1")

	order := &domain.Order{
		KaspiOrderID:  "KSP-1",
		SellerID:      seller.ID,
		Status:        domain.OrderStatusPending,
		CustomerPhone: "87771234567",
		Entries:       []domain.OrderEntry{{SKU: "sku-a", Quantity: 1}},
	}
	require.NoError(t, repos.Orders.Upsert(ctx, order))
	require.NoError(t, repos.Orders.UpdateStatus(ctx, order, domain.OrderStatusShipped))

	delivery := &domain.DeliveryConfirmation{
		OrderID:       order.ID,
		KaspiOrderID:  order.KaspiOrderID,
		SellerID:      seller.ID,
		CourierID:     "courier-1",
		CustomerPhone: order.CustomerPhone,
		Status:        domain.DeliveryStatusPending,
	}
	require.NoError(t, repos.Deliveries.Create(ctx, delivery))

	// ticks a millisecond per read so history keys stay ordered
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewDeliveryService(api, repos, NewNotifier(repos, zap.NewNop()), zap.NewNop())
	svc.now = func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}

	f := &deliveryFixture{repos: repos, api: api, svc: svc, seller: seller, delivery: delivery, clock: &now}

	require.NoError(t, svc.StartDelivery(ctx, delivery.ID, "courier-1"))
	require.NoError(t, svc.ArriveAtCustomer(ctx, delivery.ID, "courier-1", 43.238, 76.889))
	return f
}

func (f *deliveryFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func TestHappyPathConfirmsAndCompletesOrder(t *testing.T) {
	f := newDeliveryFixture(t)
	ctx := context.Background()
	f.api.confirmResult = true

	require.NoError(t, f.svc.RequestCode(ctx, f.delivery.ID, "courier-1"))
	require.NoError(t, f.svc.ConfirmWithCode(ctx, f.delivery.ID, "courier-1", "123-456"))

	delivery, err := f.svc.Get(ctx, f.delivery.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusConfirmed, delivery.Status)
	assert.Equal(t, "courier-1", delivery.ConfirmedBy)
	assert.NotNil(t, delivery.ConfirmedAt)

	order, err := f.repos.Orders.Get(ctx, f.seller.ID, "KSP-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)

	history, err := f.svc.History(ctx, f.delivery.ID)
	require.NoError(t, err)
	actions := make([]domain.DeliveryAction, 0, len(history))
	for _, h := range history {
		actions = append(actions, h.Action)
	}
	assert.Equal(t, []domain.DeliveryAction{
		domain.DeliveryActionStarted,
		domain.DeliveryActionArrived,
		domain.DeliveryActionCodeRequested,
		domain.DeliveryActionCodeEntered,
		domain.DeliveryActionDelivered,
	}, actions)
}

func TestCodeRequestCooldownRejectsLocally(t *testing.T) {
	f := newDeliveryFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestCode(ctx, f.delivery.ID, "courier-1"))
	assert.Equal(t, 1, f.api.smsRequests)

	// second request 60s later is rejected without a network call
	f.advance(60 * time.Second)
	err := f.svc.RequestCode(ctx, f.delivery.ID, "courier-1")
	var cooldown *errors.ErrCooldownActive
	require.ErrorAs(t, err, &cooldown)
	assert.Equal(t, 1, f.api.smsRequests)

	// past the 120s cooldown the request goes through
	f.advance(61 * time.Second)
	require.NoError(t, f.svc.RequestCode(ctx, f.delivery.ID, "courier-1"))
	assert.Equal(t, 2, f.api.smsRequests)
}

func TestAttemptExhaustionRejectsWithoutNetwork(t *testing.T) {
	f := newDeliveryFixture(t)
	ctx := context.Background()
	f.api.confirmResult = false

	require.NoError(t, f.svc.RequestCode(ctx, f.delivery.ID, "courier-1"))

	for i := 0; i < 3; i++ {
		err := f.svc.ConfirmWithCode(ctx, f.delivery.ID, "courier-1", "000000")
		var invalid *errors.ErrCodeInvalid
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, 2-i, invalid.AttemptsRemaining)
	}
	assert.Equal(t, 3, f.api.confirmCalls)

	// 4th attempt rejected locally, even with the correct code
	f.api.confirmResult = true
	err := f.svc.ConfirmWithCode(ctx, f.delivery.ID, "courier-1", "123456")
	var exhausted *errors.ErrAttemptsExhausted
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, f.api.confirmCalls)

	// a fresh code resets the attempt budget
	f.advance(3 * time.Minute)
	require.NoError(t, f.svc.RequestCode(ctx, f.delivery.ID, "courier-1"))
	require.NoError(t, f.svc.ConfirmWithCode(ctx, f.delivery.ID, "courier-1", "123456"))
}

func TestExpiredCodeAlwaysFails(t *testing.T) {
	f := newDeliveryFixture(t)
	ctx := context.Background()
	f.api.confirmResult = true

	require.NoError(t, f.svc.RequestCode(ctx, f.delivery.ID, "courier-1"))

	f.advance(10 * time.Minute)
	err := f.svc.ConfirmWithCode(ctx, f.delivery.ID, "courier-1", "123456")
	var expired *errors.ErrCodeExpired
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, 0, f.api.confirmCalls)
}

func TestMalformedCodeSpendsAnAttemptWithoutNetwork(t *testing.T) {
	f := newDeliveryFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestCode(ctx, f.delivery.ID, "courier-1"))

	err := f.svc.ConfirmWithCode(ctx, f.delivery.ID, "courier-1", "12345")
	var invalid *errors.ErrCodeInvalid
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 2, invalid.AttemptsRemaining)
	assert.Equal(t, 0, f.api.confirmCalls)
}

func TestMarkFailedRequeuesOrderForRedelivery(t *testing.T) {
	f := newDeliveryFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.MarkFailed(ctx, f.delivery.ID, "courier-1", "customer unreachable"))

	delivery, err := f.svc.Get(ctx, f.delivery.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusFailed, delivery.Status)
	assert.Equal(t, "customer unreachable", delivery.FailReason)

	order, err := f.repos.Orders.Get(ctx, f.seller.ID, "KSP-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	// terminal: no further transitions accepted
	err = f.svc.StartDelivery(ctx, f.delivery.ID, "courier-1")
	var transition *errors.ErrInvalidStateTransition
	require.ErrorAs(t, err, &transition)
}

func TestConfirmRequiresAwaitingCodeState(t *testing.T) {
	f := newDeliveryFixture(t)
	ctx := context.Background()

	// arrived, code never requested
	err := f.svc.ConfirmWithCode(ctx, f.delivery.ID, "courier-1", "123456")
	var transition *errors.ErrInvalidStateTransition
	require.ErrorAs(t, err, &transition)
}

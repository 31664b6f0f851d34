package service

import (
	"context"
	"sync"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/pkg/errors"
)

// CourierAssigner picks a courier for a newly shipped order. The
// selection policy is deliberately pluggable.
type CourierAssigner interface {
	Assign(ctx context.Context, order *domain.Order) (string, error)
}

// RoundRobinAssigner cycles through a fixed courier roster
type RoundRobinAssigner struct {
	mu       sync.Mutex
	couriers []string
	next     int
}

// NewRoundRobinAssigner creates an assigner over the given roster
func NewRoundRobinAssigner(couriers []string) *RoundRobinAssigner {
	return &RoundRobinAssigner{couriers: couriers}
}

func (a *RoundRobinAssigner) Assign(ctx context.Context, order *domain.Order) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.couriers) == 0 {
		return "", &errors.ErrNotFound{Resource: "courier", ID: "roster is empty"}
	}
	courier := a.couriers[a.next%len(a.couriers)]
	a.next++
	return courier, nil
}

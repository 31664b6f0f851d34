package domain

// SubscriptionTier determines the seller's API quota
type SubscriptionTier string

const (
	TierFree     SubscriptionTier = "free"
	TierStandard SubscriptionTier = "standard"
	TierPremium  SubscriptionTier = "premium"
)

// IsValid checks if the tier is valid
func (t SubscriptionTier) IsValid() bool {
	switch t {
	case TierFree, TierStandard, TierPremium:
		return true
	default:
		return false
	}
}

// HourlyQuota returns the marketplace request budget for the tier
func (t SubscriptionTier) HourlyQuota() int {
	switch t {
	case TierPremium:
		return 1000
	case TierStandard:
		return 100
	default:
		return 10
	}
}

// ProductStatus represents the derived availability of a product
type ProductStatus string

const (
	ProductStatusInStock    ProductStatus = "inStock"
	ProductStatusOutOfStock ProductStatus = "outOfStock"
	ProductStatusInactive   ProductStatus = "inactive"
)

// OrderStatus represents the status of an order. Progression is linear;
// no backward transitions except the failed-delivery requeue to pending.
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusReceived  OrderStatus = "received"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft,
		OrderStatusPending,
		OrderStatusShipped,
		OrderStatusReceived,
		OrderStatusCompleted,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is valid
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	switch s {
	case OrderStatusDraft:
		return newStatus == OrderStatusPending || newStatus == OrderStatusCancelled
	case OrderStatusPending:
		return newStatus == OrderStatusShipped || newStatus == OrderStatusCancelled
	case OrderStatusShipped:
		// pending is reachable again when a delivery fails and the order
		// is requeued for redelivery
		return newStatus == OrderStatusReceived ||
			newStatus == OrderStatusCompleted ||
			newStatus == OrderStatusPending ||
			newStatus == OrderStatusCancelled
	case OrderStatusReceived:
		return newStatus == OrderStatusCompleted
	case OrderStatusCompleted, OrderStatusCancelled:
		return false // Terminal states
	default:
		return false
	}
}

// OrderPriority is an independent axis; it does not affect transitions
type OrderPriority string

const (
	PriorityLow    OrderPriority = "low"
	PriorityNormal OrderPriority = "normal"
	PriorityHigh   OrderPriority = "high"
	PriorityUrgent OrderPriority = "urgent"
)

// DeliveryType distinguishes carrier-fulfilled orders from self-pickup
type DeliveryType string

const (
	DeliveryTypeCourier DeliveryType = "courier"
	DeliveryTypePickup  DeliveryType = "pickup"
)

// DeliveryStatus represents the SMS confirmation state machine
type DeliveryStatus string

const (
	DeliveryStatusPending      DeliveryStatus = "pending"
	DeliveryStatusInTransit    DeliveryStatus = "inTransit"
	DeliveryStatusArrived      DeliveryStatus = "arrived"
	DeliveryStatusAwaitingCode DeliveryStatus = "awaitingCode"
	DeliveryStatusConfirmed    DeliveryStatus = "confirmed"
	DeliveryStatusFailed       DeliveryStatus = "failed"
	DeliveryStatusCancelled    DeliveryStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed
func (s DeliveryStatus) IsTerminal() bool {
	switch s {
	case DeliveryStatusConfirmed, DeliveryStatusFailed, DeliveryStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a delivery status transition is valid.
// failed and cancelled are reachable from any non-terminal state.
func (s DeliveryStatus) CanTransitionTo(newStatus DeliveryStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if newStatus == DeliveryStatusFailed || newStatus == DeliveryStatusCancelled {
		return true
	}
	switch s {
	case DeliveryStatusPending:
		return newStatus == DeliveryStatusInTransit
	case DeliveryStatusInTransit:
		return newStatus == DeliveryStatusArrived
	case DeliveryStatusArrived:
		return newStatus == DeliveryStatusAwaitingCode
	case DeliveryStatusAwaitingCode:
		return newStatus == DeliveryStatusAwaitingCode || newStatus == DeliveryStatusConfirmed
	default:
		return false
	}
}

// DeliveryAction is an audit log action type
type DeliveryAction string

const (
	DeliveryActionCreated       DeliveryAction = "created"
	DeliveryActionAssigned      DeliveryAction = "assigned"
	DeliveryActionStarted       DeliveryAction = "started"
	DeliveryActionArrived       DeliveryAction = "arrived"
	DeliveryActionCodeRequested DeliveryAction = "codeRequested"
	DeliveryActionCodeEntered   DeliveryAction = "codeEntered"
	DeliveryActionDelivered     DeliveryAction = "delivered"
	DeliveryActionFailed        DeliveryAction = "failed"
	DeliveryActionRescheduled   DeliveryAction = "rescheduled"
)

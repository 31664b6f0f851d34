package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Seller represents a tenant holding the marketplace bearer token
type Seller struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Tier           SubscriptionTier `json:"tier"`
	KaspiToken     string           `json:"kaspiToken"`
	HourlyQuota    int              `json:"hourlyQuota"`
	MonthlyQuota   int              `json:"monthlyQuota"`
	CallsThisHour  int              `json:"callsThisHour"`
	CallsThisMonth int              `json:"callsThisMonth"`
	LastSyncAt     *time.Time       `json:"lastSyncAt,omitempty"`
	IsActive       bool             `json:"isActive"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// Product represents a catalog entry cached from the marketplace
type Product struct {
	ID             uuid.UUID      `json:"id"`
	KaspiProductID string         `json:"kaspiProductId"`
	SellerID       uuid.UUID      `json:"sellerId"`
	Name           string         `json:"name"`
	Price          int64          `json:"price"`
	Category       string         `json:"category"`
	ImageURL       string         `json:"imageUrl"`
	Status         ProductStatus  `json:"status"`
	IsActive       bool           `json:"isActive"`
	WarehouseStock map[string]int `json:"warehouseStock"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// TotalStock sums on-hand quantity across all warehouses
func (p *Product) TotalStock() int {
	total := 0
	for _, qty := range p.WarehouseStock {
		total += qty
	}
	return total
}

// DeriveStatus recomputes the product status from the active flag and stock.
// Must be called whenever stock or the active flag changes.
func (p *Product) DeriveStatus() {
	p.Status = DeriveProductStatus(p.IsActive, p.TotalStock())
}

// DeriveProductStatus computes status from the active flag and total stock
func DeriveProductStatus(isActive bool, totalStock int) ProductStatus {
	if !isActive {
		return ProductStatusInactive
	}
	if totalStock > 0 {
		return ProductStatusInStock
	}
	return ProductStatusOutOfStock
}

// OrderEntry represents one ordered line item
type OrderEntry struct {
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	UnitPrice    int64  `json:"unitPrice"`
	CancelReason string `json:"cancelReason,omitempty"`
}

// Order represents a marketplace order owned by a seller
type Order struct {
	ID            uuid.UUID     `json:"id"`
	KaspiOrderID  string        `json:"kaspiOrderId"`
	SellerID      uuid.UUID     `json:"sellerId"`
	WarehouseID   string        `json:"warehouseId"`
	Entries       []OrderEntry  `json:"entries"`
	Status        OrderStatus   `json:"status"`
	Priority      OrderPriority `json:"priority"`
	DeliveryType  DeliveryType  `json:"deliveryType"`
	CustomerName  string        `json:"customerName"`
	CustomerPhone string        `json:"customerPhone"`
	Address       string        `json:"address"`
	TotalPrice    int64         `json:"totalPrice"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// QRPayload builds the string embedded in the hand-off QR code
func (o *Order) QRPayload() string {
	return fmt.Sprintf("%s|%s|%s", o.KaspiOrderID, o.SellerID.String(), o.WarehouseID)
}

// DeliveryConfirmation tracks the SMS confirmation lifecycle of a delivery
type DeliveryConfirmation struct {
	ID              uuid.UUID      `json:"id"`
	OrderID         uuid.UUID      `json:"orderId"`
	KaspiOrderID    string         `json:"kaspiOrderId"`
	SellerID        uuid.UUID      `json:"sellerId"`
	CourierID       string         `json:"courierId"`
	CustomerPhone   string         `json:"customerPhone"`
	Address         string         `json:"address"`
	Status          DeliveryStatus `json:"status"`
	CodeRequested   bool           `json:"codeRequested"`
	CodeRequestedAt *time.Time     `json:"codeRequestedAt,omitempty"`
	// CodeHandle is the opaque server-side handle for the outstanding code.
	// The real 6-digit code never reaches this process.
	CodeHandle      string         `json:"codeHandle,omitempty"`
	ExpiresAt       *time.Time     `json:"expiresAt,omitempty"`
	AttemptCount    int            `json:"attemptCount"`
	MaxAttempts     int            `json:"maxAttempts"`
	ConfirmedAt     *time.Time     `json:"confirmedAt,omitempty"`
	ConfirmedBy     string         `json:"confirmedBy,omitempty"`
	FailReason      string         `json:"failReason,omitempty"`
	Latitude        *float64       `json:"latitude,omitempty"`
	Longitude       *float64       `json:"longitude,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// DeliveryHistoryEntry is a write-once audit record for a delivery
type DeliveryHistoryEntry struct {
	ID         uuid.UUID      `json:"id"`
	DeliveryID uuid.UUID      `json:"deliveryId"`
	Action     DeliveryAction `json:"action"`
	ActorID    string         `json:"actorId"`
	ActorRole  string         `json:"actorRole"`
	Detail     string         `json:"detail,omitempty"`
	Latitude   *float64       `json:"latitude,omitempty"`
	Longitude  *float64       `json:"longitude,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// PickupTask is a seller-facing record for self-pickup orders
type PickupTask struct {
	ID          uuid.UUID `json:"id"`
	SellerID    uuid.UUID `json:"sellerId"`
	OrderID     uuid.UUID `json:"orderId"`
	WarehouseID string    `json:"warehouseId"`
	Done        bool      `json:"done"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Notification is a best-effort message surfaced to the seller
type Notification struct {
	ID        uuid.UUID `json:"id"`
	SellerID  uuid.UUID `json:"sellerId"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

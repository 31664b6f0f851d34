package kaspi

// Auth carries the per-seller credential and quota for outbound calls
type Auth struct {
	SellerID    string
	Token       string
	HourlyQuota int
}

// RemoteStock is a warehouse quantity as reported by the marketplace
type RemoteStock struct {
	WarehouseID string `json:"warehouseId"`
	Quantity    int    `json:"quantity"`
}

// RemoteProduct is a catalog entry as reported by the marketplace
type RemoteProduct struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Price    int64         `json:"price"`
	Category string        `json:"category"`
	ImageURL string        `json:"imageUrl"`
	Active   bool          `json:"active"`
	Stocks   []RemoteStock `json:"stocks"`
}

// ProductPage is one page of the product list endpoint
type ProductPage struct {
	Items      []RemoteProduct `json:"items"`
	TotalPages int             `json:"totalPages"`
}

// RemoteOrder is an order header as reported by the marketplace
type RemoteOrder struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	Status        string `json:"status"`
	DeliveryMode  string `json:"deliveryMode"`
	WarehouseID   string `json:"warehouseId"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	Address       string `json:"address"`
	TotalPrice    int64  `json:"totalPrice"`
	// CreationDate is milliseconds since epoch
	CreationDate int64 `json:"creationDate"`
}

// Carrier-fulfilled vs self-pickup delivery modes
const (
	DeliveryModeCarrier = "DELIVERY"
	DeliveryModePickup  = "PICKUP"
)

// OrderPage is one page of the order list endpoint
type OrderPage struct {
	Items      []RemoteOrder `json:"items"`
	TotalPages int           `json:"totalPages"`
}

// RemoteOrderEntry is one line item of a remote order
type RemoteOrderEntry struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	BasePrice int64  `json:"basePrice"`
}

// PriceChange is one element of the PATCH /prices/change body
type PriceChange struct {
	ProductID string `json:"productId"`
	Price     int64  `json:"price"`
}

type positionResponse struct {
	Position int `json:"position"`
}

type smsRequestResponse struct {
	Handle string `json:"handle"`
}

type confirmResponse struct {
	Confirmed bool `json:"confirmed"`
}

type cancelEntryRequest struct {
	SKU    string `json:"sku"`
	Reason string `json:"reason"`
}

type smsRequest struct {
	OrderID string `json:"orderId"`
	Phone   string `json:"phone"`
}

type confirmRequest struct {
	OrderID string `json:"orderId"`
	Code    string `json:"code"`
}

package kaspi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/config"
	"github.com/satushop/kaspisync/internal/metrics"
	"github.com/satushop/kaspisync/pkg/errors"
)

// API is the marketplace surface the sync services depend on
type API interface {
	Products(ctx context.Context, auth Auth, page, size int) (*ProductPage, error)
	AllProducts(ctx context.Context, auth Auth, size int) ([]RemoteProduct, int, error)
	Orders(ctx context.Context, auth Auth, status string, page, size int) (*OrderPage, error)
	AllOrders(ctx context.Context, auth Auth, status string, size int) ([]RemoteOrder, int, error)
	OrderEntries(ctx context.Context, auth Auth, orderID string) ([]RemoteOrderEntry, error)
	AcceptOrder(ctx context.Context, auth Auth, orderID string) error
	ShipOrder(ctx context.Context, auth Auth, orderID string) error
	CancelOrderEntry(ctx context.Context, auth Auth, orderID, sku, reason string) error
	ProductPosition(ctx context.Context, auth Auth, productID string) (int, error)
	ChangePrices(ctx context.Context, auth Auth, changes []PriceChange) error
	RequestDeliveryCode(ctx context.Context, auth Auth, orderID, phone string) (string, error)
	ConfirmDelivery(ctx context.Context, auth Auth, orderID, code string) (bool, error)
}

// Client is the HTTP client for the Kaspi merchant API
type Client struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiters   *LimiterRegistry
	logger     *zap.Logger
}

var _ API = (*Client)(nil)

// NewClient creates a new Kaspi API client
func NewClient(cfg config.KaspiConfig, limiters *LimiterRegistry, logger *zap.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "kaspi",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Kaspi circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL:  baseURL,
		pageSize: cfg.PageSize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker:  breaker,
		limiters: limiters,
		logger:   logger,
	}
}

// Products fetches one page of the seller's catalog
func (c *Client) Products(ctx context.Context, auth Auth, page, size int) (*ProductPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	var pageResp ProductPage
	if err := c.do(ctx, auth, http.MethodGet, "/products", query, nil, &pageResp); err != nil {
		return nil, err
	}
	return &pageResp, nil
}

// AllProducts fetches the full catalog across all pages. Returns the
// items in server order and the number of page requests made.
func (c *Client) AllProducts(ctx context.Context, auth Auth, size int) ([]RemoteProduct, int, error) {
	return fetchAll(ctx, size, func(page int) ([]RemoteProduct, int, error) {
		resp, err := c.Products(ctx, auth, page, size)
		if err != nil {
			return nil, 0, err
		}
		return resp.Items, resp.TotalPages, nil
	})
}

// Orders fetches one page of orders in the given remote status
func (c *Client) Orders(ctx context.Context, auth Auth, status string, page, size int) (*OrderPage, error) {
	query := url.Values{}
	query.Set("status", status)
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	var pageResp OrderPage
	if err := c.do(ctx, auth, http.MethodGet, "/orders", query, nil, &pageResp); err != nil {
		return nil, err
	}
	return &pageResp, nil
}

// AllOrders fetches all orders in the given status across all pages
func (c *Client) AllOrders(ctx context.Context, auth Auth, status string, size int) ([]RemoteOrder, int, error) {
	return fetchAll(ctx, size, func(page int) ([]RemoteOrder, int, error) {
		resp, err := c.Orders(ctx, auth, status, page, size)
		if err != nil {
			return nil, 0, err
		}
		return resp.Items, resp.TotalPages, nil
	})
}

// OrderEntries fetches the line items of an order
func (c *Client) OrderEntries(ctx context.Context, auth Auth, orderID string) ([]RemoteOrderEntry, error) {
	var entries []RemoteOrderEntry
	path := fmt.Sprintf("/orders/%s/entries", orderID)
	if err := c.do(ctx, auth, http.MethodGet, path, nil, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AcceptOrder marks the order accepted by the merchant
func (c *Client) AcceptOrder(ctx context.Context, auth Auth, orderID string) error {
	path := fmt.Sprintf("/orders/%s/accept", orderID)
	return c.do(ctx, auth, http.MethodPost, path, nil, nil, nil)
}

// ShipOrder marks the order handed to the carrier
func (c *Client) ShipOrder(ctx context.Context, auth Auth, orderID string) error {
	path := fmt.Sprintf("/orders/%s/ship", orderID)
	return c.do(ctx, auth, http.MethodPost, path, nil, nil, nil)
}

// CancelOrderEntry cancels a single line item with a reason code
func (c *Client) CancelOrderEntry(ctx context.Context, auth Auth, orderID, sku, reason string) error {
	path := fmt.Sprintf("/orders/%s/cancel", orderID)
	body := cancelEntryRequest{SKU: sku, Reason: reason}
	return c.do(ctx, auth, http.MethodPost, path, nil, body, nil)
}

// ProductPosition returns the product's current search rank (1-based)
func (c *Client) ProductPosition(ctx context.Context, auth Auth, productID string) (int, error) {
	var resp positionResponse
	path := fmt.Sprintf("/prices/product-position/%s", productID)
	if err := c.do(ctx, auth, http.MethodGet, path, nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Position, nil
}

// ChangePrices pushes new prices for a batch of products
func (c *Client) ChangePrices(ctx context.Context, auth Auth, changes []PriceChange) error {
	return c.do(ctx, auth, http.MethodPatch, "/prices/change", nil, changes, nil)
}

// RequestDeliveryCode asks the marketplace to SMS a confirmation code to
// the customer. Returns the opaque server-side handle for the code.
func (c *Client) RequestDeliveryCode(ctx context.Context, auth Auth, orderID, phone string) (string, error) {
	var resp smsRequestResponse
	body := smsRequest{OrderID: orderID, Phone: phone}
	if err := c.do(ctx, auth, http.MethodPost, "/delivery/sms/request", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.Handle, nil
}

// ConfirmDelivery verifies the code the courier entered. A well-formed
// but wrong code yields (false, nil).
func (c *Client) ConfirmDelivery(ctx context.Context, auth Auth, orderID, code string) (bool, error) {
	var resp confirmResponse
	body := confirmRequest{OrderID: orderID, Code: code}
	if err := c.do(ctx, auth, http.MethodPost, "/delivery/confirm", nil, body, &resp); err != nil {
		return false, err
	}
	return resp.Confirmed, nil
}

func (c *Client) do(ctx context.Context, auth Auth, method, path string, query url.Values, body, out interface{}) error {
	if err := c.limiters.Wait(ctx, auth.SellerID, auth.HourlyQuota); err != nil {
		return &errors.ErrNetwork{Err: err}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-TOKEN", auth.Token)
	req.Header.Set("Authorization", "Bearer "+auth.Token)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		metrics.KaspiRequests.WithLabelValues(path, "network_error").Inc()
		return &errors.ErrNetwork{Err: err}
	}
	resp := result.(*http.Response)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.KaspiRequests.WithLabelValues(path, "network_error").Inc()
		return &errors.ErrNetwork{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		metrics.KaspiRequests.WithLabelValues(path, "unauthorized").Inc()
		return &errors.ErrTokenInvalid{SellerID: auth.SellerID}
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.KaspiRequests.WithLabelValues(path, "rate_limited").Inc()
		return &errors.ErrRateLimited{RetryAfter: retryAfter(resp)}
	case resp.StatusCode != http.StatusOK:
		c.logger.Warn("Kaspi API error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		metrics.KaspiRequests.WithLabelValues(path, "server_error").Inc()
		return &errors.ErrServer{StatusCode: resp.StatusCode}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			metrics.KaspiRequests.WithLabelValues(path, "decode_error").Inc()
			return &errors.ErrDecode{Err: err}
		}
	}

	metrics.KaspiRequests.WithLabelValues(path, "ok").Inc()
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

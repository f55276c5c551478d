package utmify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

const (
	defaultBaseURL            = "https://api.utmify.com.br"
	ordersPath                = "/api-credentials/orders"
	errorBodyReadLimit  int64 = 1024
)

var errTokenRequired = errors.New("utmify api token is required")

// Client posts normalized orders to the attribution service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the attribution client given an API token.
func NewClient(apiToken string, opts ...Option) (*Client, error) {
	trimmedToken := strings.TrimSpace(apiToken)
	if trimmedToken == "" {
		return nil, errTokenRequired
	}

	client := &Client{
		apiToken:   trimmedToken,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// Customer carries plaintext buyer contact data; this endpoint's contract
// does not require hashing.
type Customer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Document string `json:"document"`
	IP       string `json:"ip"`
}

// Product is one attributed line item, priced in the billing currency.
type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PlanID       string `json:"planId"`
	PlanName     string `json:"planName"`
	PriceInCents int64  `json:"priceInCents"`
	Quantity     int64  `json:"quantity"`
}

// Commission splits the converted order total.
type Commission struct {
	TotalPriceInCents     int64 `json:"totalPriceInCents"`
	GatewayFeeInCents     int64 `json:"gatewayFeeInCents"`
	UserCommissionInCents int64 `json:"userCommissionInCents"`
}

// Order is the attribution payload for one sale.
type Order struct {
	OrderID            string            `json:"orderId"`
	Platform           string            `json:"platform"`
	PaymentMethod      string            `json:"paymentMethod"`
	Status             string            `json:"status"`
	CreatedAt          string            `json:"createdAt"`
	ApprovedDate       string            `json:"approvedDate"`
	Customer           Customer          `json:"customer"`
	Products           []Product         `json:"products"`
	TrackingParameters map[string]string `json:"trackingParameters"`
	Commission         Commission        `json:"commission"`
}

// SendOrder posts one order to the attribution service.
func (c *Client) SendOrder(ctx context.Context, order Order) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "attribution client not configured")
	}

	if order.TrackingParameters == nil {
		order.TrackingParameters = map[string]string{}
	}

	body, err := json.Marshal(order)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal attribution order")
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + ordersPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build attribution request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-token", c.apiToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute attribution request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "attribution request failed")
	}

	return nil
}

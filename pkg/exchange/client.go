package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

const (
	defaultBaseURL           = "https://economia.awesomeapi.com.br"
	errorBodyReadLimit int64 = 1024
)

// Client fetches currency quotes from the AwesomeAPI economy endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
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

// WithBaseURL overrides the configured quote base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout overrides the default HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds a quote client.
func NewClient(opts ...Option) *Client {
	client := &Client{
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

	return client
}

type quote struct {
	Bid string `json:"bid"`
}

// LastQuote returns the latest bid rate for converting one unit of from into
// to (e.g. "EUR", "BRL"). Callers own the fallback when this errors.
func (c *Client) LastQuote(ctx context.Context, from, to string) (float64, error) {
	if c == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "exchange client not configured")
	}

	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "currency pair is required")
	}

	endpoint := fmt.Sprintf("%s/json/last/%s-%s", strings.TrimRight(c.baseURL, "/"), from, to)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build quote request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute quote request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "quote request failed")
	}

	var quotes map[string]quote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode quote response")
	}

	entry, ok := quotes[from+to]
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("quote %s-%s missing from response", from, to))
	}

	rate, err := strconv.ParseFloat(entry.Bid, 64)
	if err != nil || rate <= 0 {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("invalid bid %q", entry.Bid))
	}

	return rate, nil
}

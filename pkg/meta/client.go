package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

const (
	defaultGraphURL            = "https://graph.facebook.com/v19.0"
	actionSourceWebsite        = "website"
	errorBodyReadLimit   int64 = 1024
)

var (
	errPixelIDRequired = errors.New("meta pixel id is required")
	errTokenRequired   = errors.New("meta access token is required")
)

// Client posts server events to the Meta Conversions API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	pixelID     string
	accessToken string
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

// WithBaseURL overrides the Graph API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the conversions client for the given pixel/token pair.
func NewClient(pixelID, accessToken string, opts ...Option) (*Client, error) {
	trimmedPixel := strings.TrimSpace(pixelID)
	if trimmedPixel == "" {
		return nil, errPixelIDRequired
	}
	trimmedToken := strings.TrimSpace(accessToken)
	if trimmedToken == "" {
		return nil, errTokenRequired
	}

	client := &Client{
		pixelID:     trimmedPixel,
		accessToken: trimmedToken,
		baseURL:     defaultGraphURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
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
		client.baseURL = defaultGraphURL
	}

	return client, nil
}

// CustomData carries the order value reported alongside an event.
type CustomData struct {
	Currency    string   `json:"currency"`
	Value       float64  `json:"value"`
	ContentIDs  []string `json:"content_ids,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
}

// Event is one server-side conversions event. UserData must already be hashed
// where the field carries PII; this client transmits it verbatim.
type Event struct {
	Name       string
	ID         string
	Time       int64
	SourceURL  string
	UserData   map[string]string
	CustomData CustomData
}

type eventEntry struct {
	EventName      string            `json:"event_name"`
	EventID        string            `json:"event_id,omitempty"`
	EventTime      int64             `json:"event_time"`
	ActionSource   string            `json:"action_source"`
	EventSourceURL string            `json:"event_source_url"`
	UserData       map[string]string `json:"user_data"`
	CustomData     CustomData        `json:"custom_data"`
}

type eventPayload struct {
	Data []eventEntry `json:"data"`
}

// SendEvent posts a single event to the pixel's events edge.
func (c *Client) SendEvent(ctx context.Context, event Event) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "conversions client not configured")
	}

	eventTime := event.Time
	if eventTime == 0 {
		eventTime = time.Now().Unix()
	}
	userData := event.UserData
	if userData == nil {
		userData = map[string]string{}
	}

	payload := eventPayload{
		Data: []eventEntry{{
			EventName:      event.Name,
			EventID:        event.ID,
			EventTime:      eventTime,
			ActionSource:   actionSourceWebsite,
			EventSourceURL: event.SourceURL,
			UserData:       userData,
			CustomData:     event.CustomData,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal conversions event")
	}

	endpoint := fmt.Sprintf("%s/%s/events?access_token=%s",
		strings.TrimRight(c.baseURL, "/"), url.PathEscape(c.pixelID), url.QueryEscape(c.accessToken))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build conversions request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute conversions request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "conversions request failed")
	}

	return nil
}

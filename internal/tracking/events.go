package tracking

import (
	"time"

	"github.com/dmeister/storefront-backend/pkg/enums"
)

// Contact is the buyer identity attached to an event. Fields may be empty;
// the conversions sink receives them hashed, the attribution sink plaintext
// with placeholder defaults.
type Contact struct {
	Name     string
	Email    string
	Phone    string
	Document string
}

// RequestMeta carries the request-scoped fields sinks want alongside the
// business payload.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	SourceURL string
}

// LineItem is one purchased unit priced in the order's original currency.
type LineItem struct {
	ProductID       string
	Name            string
	UnitAmountMinor int64
	Quantity        int64
}

// PurchaseInput describes one confirmed sale for fanout.
type PurchaseInput struct {
	ReferenceID     string
	Platform        enums.Platform
	PaymentMethod   enums.PaymentMethod
	Currency        string
	TotalMinor      int64
	GatewayFeeMinor int64
	LineItems       []LineItem
	Contact         Contact
	Meta            RequestMeta
	TrackingParams  map[string]string
	CreatedAt       time.Time
	ApprovedAt      time.Time
}

// InitiateCheckoutInput describes a checkout session opening. Only the
// conversions sink consumes it.
type InitiateCheckoutInput struct {
	EventID    string
	Currency   string
	ValueMinor int64
	ContentIDs []string
	Contact    Contact
	Meta       RequestMeta
}

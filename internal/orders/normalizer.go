package orders

import (
	"context"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/dmeister/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

// trackingKeys are the metadata entries carried from session creation back
// onto the normalized order.
var trackingKeys = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_content", "utm_term", "src", "sck",
}

// LineItem is one purchased position, priced in minor units of the order
// currency. UnitAmountMinor times Quantity always equals AmountTotalMinor.
type LineItem struct {
	ProductID        string  `json:"productId,omitempty"`
	Name             string  `json:"name"`
	ImageURL         *string `json:"imageUrl,omitempty"`
	UnitAmountMinor  int64   `json:"unitAmountMinor"`
	Quantity         int64   `json:"quantity"`
	AmountTotalMinor int64   `json:"amountTotalMinor"`
}

// Contact is the buyer identity captured by the payment provider.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Snapshot is the provider-independent view of one payment reference.
type Snapshot struct {
	ReferenceID    string            `json:"referenceId"`
	Status         enums.OrderStatus `json:"status"`
	ProviderStatus string            `json:"providerStatus"`
	Currency       string            `json:"currency"`
	TotalMinor     int64             `json:"totalMinor"`
	LineItems      []LineItem        `json:"lineItems"`
	Contact        Contact           `json:"contact"`
	TrackingParams map[string]string `json:"trackingParams,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

type gateway interface {
	GetSession(ctx context.Context, id string, expand []string) (*stripe.CheckoutSession, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

// Normalizer resolves a payment reference against the gateway and maps the
// provider object into a Snapshot. A cs_ reference is a checkout session;
// everything else is retrieved as a payment intent so the gateway decides
// whether the id exists.
type Normalizer struct {
	gw gateway
}

func NewNormalizer(gw gateway) *Normalizer {
	return &Normalizer{gw: gw}
}

func (n *Normalizer) Resolve(ctx context.Context, referenceID string) (*Snapshot, error) {
	if n == nil || n.gw == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order normalizer not configured")
	}

	if strings.HasPrefix(referenceID, "cs_") {
		return n.fromSession(ctx, referenceID)
	}
	return n.fromPaymentIntent(ctx, referenceID)
}

func (n *Normalizer) fromSession(ctx context.Context, id string) (*Snapshot, error) {
	session, err := n.gw.GetSession(ctx, id, []string{"line_items.data.price.product"})
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		ReferenceID:    session.ID,
		Status:         enums.ParseOrderStatus(string(session.PaymentStatus)),
		ProviderStatus: string(session.PaymentStatus),
		Currency:       strings.ToLower(string(session.Currency)),
		TotalMinor:     session.AmountTotal,
		LineItems:      sessionLineItems(session),
		TrackingParams: filterTrackingParams(session.Metadata),
		CreatedAt:      time.Unix(session.Created, 0).UTC(),
	}

	if details := session.CustomerDetails; details != nil {
		snapshot.Contact = Contact{
			Name:  details.Name,
			Email: details.Email,
			Phone: details.Phone,
		}
	}

	return snapshot, nil
}

func (n *Normalizer) fromPaymentIntent(ctx context.Context, id string) (*Snapshot, error) {
	intent, err := n.gw.GetPaymentIntent(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		ReferenceID:    intent.ID,
		Status:         enums.ParseOrderStatus(string(intent.Status)),
		ProviderStatus: string(intent.Status),
		Currency:       strings.ToLower(string(intent.Currency)),
		TotalMinor:     intent.Amount,
		LineItems:      []LineItem{},
		TrackingParams: filterTrackingParams(intent.Metadata),
		CreatedAt:      time.Unix(intent.Created, 0).UTC(),
	}

	if shipping := intent.Shipping; shipping != nil {
		snapshot.Contact.Name = shipping.Name
		snapshot.Contact.Phone = shipping.Phone
	}
	if intent.ReceiptEmail != "" {
		snapshot.Contact.Email = intent.ReceiptEmail
	}

	return snapshot, nil
}

func sessionLineItems(session *stripe.CheckoutSession) []LineItem {
	items := []LineItem{}
	if session.LineItems == nil {
		return items
	}

	for _, raw := range session.LineItems.Data {
		if raw == nil {
			continue
		}

		item := LineItem{
			Name:             raw.Description,
			Quantity:         raw.Quantity,
			AmountTotalMinor: raw.AmountTotal,
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}

		if price := raw.Price; price != nil {
			if price.UnitAmount > 0 {
				item.UnitAmountMinor = price.UnitAmount
			}
			if product := price.Product; product != nil {
				item.ProductID = product.ID
				if item.Name == "" {
					item.Name = product.Name
				}
				if len(product.Images) > 0 && product.Images[0] != "" {
					img := product.Images[0]
					item.ImageURL = &img
				}
			}
		}

		// Derive the unit price from the line total when the price object
		// was not expanded, keeping unit*quantity == total.
		if item.UnitAmountMinor == 0 && item.Quantity > 0 {
			item.UnitAmountMinor = raw.AmountTotal / item.Quantity
		}
		if item.Name == "" {
			item.Name = "Product"
		}

		items = append(items, item)
	}

	return items
}

func filterTrackingParams(metadata map[string]string) map[string]string {
	if len(metadata) == 0 {
		return nil
	}

	// Keys are forwarded as captured, empty values included; the checkout
	// side writes the full key set on every session.
	params := make(map[string]string)
	for _, key := range trackingKeys {
		if value, ok := metadata[key]; ok {
			params[key] = value
		}
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

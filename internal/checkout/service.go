package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/dmeister/storefront-backend/internal/catalog"
	"github.com/dmeister/storefront-backend/internal/tracking"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
	"github.com/dmeister/storefront-backend/pkg/logger"
)

const (
	maxItems            = 20
	maxQuantity         = 10
	maxMetadataValueLen = 500
	checkoutLocale      = "de"
	shippingCountry     = "DE"
	shippingLabel       = "Kostenloser Versand"
	returnPath          = "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
)

// trackingKeys are the attribution parameters accepted from the storefront
// and copied into session metadata. Every key is always present so the
// metadata shape stays stable across sessions.
var trackingKeys = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_content", "utm_term", "src", "sck",
}

type sessionCreator interface {
	CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type catalogReader interface {
	Get(ctx context.Context, sku string) (*catalog.Item, error)
}

type checkoutEmitter interface {
	EmitInitiateCheckout(ctx context.Context, input tracking.InitiateCheckoutInput)
}

// ItemInput is one requested position. Quantity zero means one.
type ItemInput struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int64  `json:"quantity" validate:"omitempty,min=1,max=10"`
}

// ContactInput is the optional buyer data the storefront already knows. The
// email is passed through to the provider; all fields feed the checkout
// event's hashed user data.
type ContactInput struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

// Input is one storefront request to open a checkout session. The submitted
// data never carries a price; unit amounts are always re-read from the ledger.
type Input struct {
	Items   []ItemInput          `json:"items" validate:"required,min=1,max=20,dive"`
	UTMData map[string]string    `json:"utm_data"`
	Contact ContactInput         `json:"contact_data"`
	Meta    tracking.RequestMeta `json:"-"`
}

// Session is what the storefront needs to mount the embedded checkout.
type Session struct {
	SessionID    string `json:"sessionId"`
	ClientSecret string `json:"clientSecret"`
	EventID      string `json:"eventId"`
}

// Service opens payment sessions priced from the catalog ledger.
type Service struct {
	catalog       catalogReader
	gateway       sessionCreator
	emitter       checkoutEmitter
	currency      string
	returnURLBase string
	logg          *logger.Logger
}

func NewService(
	catalogSvc catalogReader,
	gateway sessionCreator,
	emitter checkoutEmitter,
	currency string,
	returnURLBase string,
	logg *logger.Logger,
) *Service {
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "checkout"})
	}
	if currency == "" {
		currency = "eur"
	}
	return &Service{
		catalog:       catalogSvc,
		gateway:       gateway,
		emitter:       emitter,
		currency:      strings.ToLower(currency),
		returnURLBase: strings.TrimRight(returnURLBase, "/"),
		logg:          logg,
	}
}

// CreateSession validates the request, re-derives every price from the
// ledger and opens an embedded checkout session. The generated event ID is
// returned to the storefront so the browser pixel and the server-side event
// dedup.
func (s *Service) CreateSession(ctx context.Context, input Input) (*Session, error) {
	if s == nil || s.catalog == nil || s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout service not configured")
	}

	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	if len(input.Items) > maxItems {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("at most %d items per session", maxItems))
	}

	currency := s.currency
	var (
		lineItems  []*stripe.CheckoutSessionLineItemParams
		contentIDs []string
		totalMinor int64
	)

	for _, requested := range input.Items {
		if strings.TrimSpace(requested.SKU) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
		}
		quantity := requested.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if quantity < 1 || quantity > maxQuantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity must be between 1 and %d", maxQuantity))
		}

		item, err := s.catalog.Get(ctx, requested.SKU)
		if err != nil {
			return nil, err
		}
		if item.Stock <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %q is out of stock", requested.SKU))
		}
		if item.UnitAmountMinor <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeInternal,
				fmt.Sprintf("product %q has no price", requested.SKU))
		}
		if item.Currency != "" {
			currency = strings.ToLower(item.Currency)
		}

		lineItems = append(lineItems, s.lineItemParams(item, quantity, currency))
		totalMinor += item.UnitAmountMinor * quantity

		contentID := item.ProductID
		if contentID == "" {
			contentID = item.SKU
		}
		contentIDs = append(contentIDs, contentID)
	}

	eventID := uuid.NewString()
	metadata := sessionMetadata(eventID, input.UTMData)

	params := &stripe.CheckoutSessionParams{
		Mode:      stripe.String(string(stripe.CheckoutSessionModePayment)),
		UIMode:    stripe.String(string(stripe.CheckoutSessionUIModeEmbedded)),
		Locale:    stripe.String(checkoutLocale),
		ReturnURL: stripe.String(s.returnURLBase + returnPath),
		LineItems: lineItems,
		BillingAddressCollection: stripe.String(
			string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: []*string{stripe.String(shippingCountry)},
		},
		ShippingOptions: []*stripe.CheckoutSessionShippingOptionParams{freeShippingOption(currency)},
		Metadata:        metadata,
	}
	if email := strings.TrimSpace(input.Contact.Email); email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	session, err := s.gateway.CreateSession(ctx, params)
	if err != nil {
		return nil, err
	}

	if s.emitter != nil {
		s.emitter.EmitInitiateCheckout(ctx, tracking.InitiateCheckoutInput{
			EventID:    eventID,
			Currency:   currency,
			ValueMinor: totalMinor,
			ContentIDs: contentIDs,
			Contact: tracking.Contact{
				Name:  input.Contact.Name,
				Email: input.Contact.Email,
				Phone: input.Contact.Phone,
			},
			Meta: input.Meta,
		})
	}

	return &Session{
		SessionID:    session.ID,
		ClientSecret: session.ClientSecret,
		EventID:      eventID,
	}, nil
}

func (s *Service) lineItemParams(item *catalog.Item, quantity int64, currency string) *stripe.CheckoutSessionLineItemParams {
	name := item.Title
	if name == "" {
		name = item.SKU
	}

	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name:     stripe.String(name),
		Metadata: map[string]string{"sku": item.SKU},
	}
	if item.ImageURL != nil {
		productData.Images = []*string{item.ImageURL}
	}

	return &stripe.CheckoutSessionLineItemParams{
		Quantity: stripe.Int64(quantity),
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:    stripe.String(currency),
			UnitAmount:  stripe.Int64(item.UnitAmountMinor),
			ProductData: productData,
		},
	}
}

func freeShippingOption(currency string) *stripe.CheckoutSessionShippingOptionParams {
	return &stripe.CheckoutSessionShippingOptionParams{
		ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
			DisplayName: stripe.String(shippingLabel),
			Type:        stripe.String("fixed_amount"),
			FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
				Amount:   stripe.Int64(0),
				Currency: stripe.String(currency),
			},
			DeliveryEstimate: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
				Minimum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
					Unit:  stripe.String("business_day"),
					Value: stripe.Int64(3),
				},
				Maximum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
					Unit:  stripe.String("business_day"),
					Value: stripe.Int64(5),
				},
			},
		},
	}
}

// sessionMetadata builds the session metadata block: the dedup event ID plus
// the full tracking key set, values clipped to the provider's length limit.
func sessionMetadata(eventID string, utmData map[string]string) map[string]string {
	metadata := map[string]string{"event_id": eventID}
	for _, key := range trackingKeys {
		value := strings.TrimSpace(utmData[key])
		if len(value) > maxMetadataValueLen {
			value = value[:maxMetadataValueLen]
		}
		metadata[key] = value
	}
	return metadata
}

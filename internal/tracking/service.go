package tracking

import (
	"context"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/dmeister/storefront-backend/pkg/enums"
	"github.com/dmeister/storefront-backend/pkg/logger"
	"github.com/dmeister/storefront-backend/pkg/meta"
	"github.com/dmeister/storefront-backend/pkg/metrics"
	"github.com/dmeister/storefront-backend/pkg/utmify"
)

const (
	sinkConversions = "meta"
	sinkAttribution = "utmify"

	attributionStatusPaid = "paid"
	attributionTimeLayout = "2006-01-02 15:04:05"

	defaultBuyerName   = "Comprador"
	defaultBuyerEmail  = "nao_informado@email.com"
	defaultBuyerPhone  = "11999999999"
	defaultProductName = "Produto"
	defaultPlanID      = "1"
	defaultPlanName    = "Unico"
	contentTypeProduct = "product"
)

// ConversionsClient delivers events to the pixel-based conversions sink.
type ConversionsClient interface {
	SendEvent(ctx context.Context, event meta.Event) error
}

// AttributionClient delivers confirmed sales to the attribution sink.
type AttributionClient interface {
	SendOrder(ctx context.Context, order utmify.Order) error
}

// Service fans business events out to the configured sinks. A nil sink means
// the credential was not configured and that leg is skipped. Sink failures
// are logged and counted, never surfaced to the caller: a lost tracking
// event must not fail a checkout or an order lookup.
type Service struct {
	conversions     ConversionsClient
	attribution     AttributionClient
	rates           rateSource
	fallbackRate    float64
	billingCurrency string
	metrics         *metrics.FanoutMetrics
	logg            *logger.Logger
	now             func() time.Time
}

func NewService(
	conversions ConversionsClient,
	attribution AttributionClient,
	rates rateSource,
	fallbackRate float64,
	billingCurrency string,
	fanoutMetrics *metrics.FanoutMetrics,
	logg *logger.Logger,
) *Service {
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "tracking"})
	}
	if fallbackRate <= 0 {
		fallbackRate = 6.0
	}
	if billingCurrency == "" {
		billingCurrency = "BRL"
	}

	return &Service{
		conversions:     conversions,
		attribution:     attribution,
		rates:           rates,
		fallbackRate:    fallbackRate,
		billingCurrency: billingCurrency,
		metrics:         fanoutMetrics,
		logg:            logg,
		now:             time.Now,
	}
}

// EmitInitiateCheckout reports a new checkout session to the conversions
// sink. The attribution sink only receives confirmed sales.
func (s *Service) EmitInitiateCheckout(ctx context.Context, input InitiateCheckoutInput) {
	if s == nil {
		return
	}
	event := enums.EventInitiateCheckout.String()

	if s.conversions == nil {
		s.metrics.IncSkipped(sinkConversions, event)
		return
	}

	err := s.conversions.SendEvent(ctx, meta.Event{
		Name:      event,
		ID:        input.EventID,
		Time:      s.now().Unix(),
		SourceURL: input.Meta.SourceURL,
		UserData:  buildUserData(input.Contact, input.Meta),
		CustomData: meta.CustomData{
			Currency:    strings.ToUpper(input.Currency),
			Value:       float64(input.ValueMinor) / 100,
			ContentIDs:  input.ContentIDs,
			ContentType: contentTypeProduct,
		},
	})
	if err != nil {
		s.metrics.IncFailed(sinkConversions, event)
		s.logg.Error(s.logg.WithReference(ctx, input.EventID), "conversions event delivery failed", err)
		return
	}

	s.metrics.IncDelivered(sinkConversions, event)
}

// EmitPurchase reports a confirmed sale to both sinks. The reference ID
// doubles as the conversions event_id so retried deliveries deduplicate
// upstream.
func (s *Service) EmitPurchase(ctx context.Context, input PurchaseInput) {
	if s == nil {
		return
	}

	var errs error
	if err := s.sendPurchaseConversion(ctx, input); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := s.sendPurchaseAttribution(ctx, input); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		s.logg.Error(s.logg.WithReference(ctx, input.ReferenceID), "purchase fanout incomplete", errs)
	}
}

func (s *Service) sendPurchaseConversion(ctx context.Context, input PurchaseInput) error {
	event := enums.EventPurchase.String()
	if s.conversions == nil {
		s.metrics.IncSkipped(sinkConversions, event)
		return nil
	}

	contentIDs := make([]string, 0, len(input.LineItems))
	for _, item := range input.LineItems {
		if item.ProductID != "" {
			contentIDs = append(contentIDs, item.ProductID)
		}
	}

	err := s.conversions.SendEvent(ctx, meta.Event{
		Name:      event,
		ID:        input.ReferenceID,
		Time:      s.now().Unix(),
		SourceURL: input.Meta.SourceURL,
		UserData:  buildUserData(input.Contact, input.Meta),
		CustomData: meta.CustomData{
			Currency:    strings.ToUpper(input.Currency),
			Value:       float64(input.TotalMinor) / 100,
			ContentIDs:  contentIDs,
			ContentType: contentTypeProduct,
		},
	})
	if err != nil {
		s.metrics.IncFailed(sinkConversions, event)
		return err
	}

	s.metrics.IncDelivered(sinkConversions, event)
	return nil
}

func (s *Service) sendPurchaseAttribution(ctx context.Context, input PurchaseInput) error {
	event := enums.EventPurchase.String()
	if s.attribution == nil {
		s.metrics.IncSkipped(sinkAttribution, event)
		return nil
	}

	rate := s.billingRate(ctx, input.Currency)

	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	approvedAt := input.ApprovedAt
	if approvedAt.IsZero() {
		approvedAt = createdAt
	}

	err := s.attribution.SendOrder(ctx, utmify.Order{
		OrderID:       input.ReferenceID,
		Platform:      input.Platform.String(),
		PaymentMethod: input.PaymentMethod.String(),
		Status:        attributionStatusPaid,
		CreatedAt:     createdAt.UTC().Format(attributionTimeLayout),
		ApprovedDate:  approvedAt.UTC().Format(attributionTimeLayout),
		Customer: utmify.Customer{
			Name:     fallbackValue(input.Contact.Name, defaultBuyerName),
			Email:    fallbackValue(input.Contact.Email, defaultBuyerEmail),
			Phone:    fallbackValue(input.Contact.Phone, defaultBuyerPhone),
			Document: input.Contact.Document,
			IP:       input.Meta.ClientIP,
		},
		Products:           attributionProducts(input, rate),
		TrackingParameters: input.TrackingParams,
		Commission:         attributionCommission(input, rate),
	})
	if err != nil {
		s.metrics.IncFailed(sinkAttribution, event)
		return err
	}

	s.metrics.IncDelivered(sinkAttribution, event)
	return nil
}

func attributionProducts(input PurchaseInput, rate float64) []utmify.Product {
	if len(input.LineItems) == 0 {
		return []utmify.Product{{
			ID:           input.ReferenceID,
			Name:         defaultProductName,
			PlanID:       defaultPlanID,
			PlanName:     defaultPlanName,
			PriceInCents: convertMinor(input.TotalMinor, rate),
			Quantity:     1,
		}}
	}

	products := make([]utmify.Product, 0, len(input.LineItems))
	for _, item := range input.LineItems {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		products = append(products, utmify.Product{
			ID:           fallbackValue(item.ProductID, input.ReferenceID),
			Name:         fallbackValue(item.Name, defaultProductName),
			PlanID:       defaultPlanID,
			PlanName:     defaultPlanName,
			PriceInCents: convertMinor(item.UnitAmountMinor, rate),
			Quantity:     quantity,
		})
	}
	return products
}

func attributionCommission(input PurchaseInput, rate float64) utmify.Commission {
	total := convertMinor(input.TotalMinor, rate)
	fee := convertMinor(input.GatewayFeeMinor, rate)
	if fee > total {
		fee = total
	}
	return utmify.Commission{
		TotalPriceInCents:     total,
		GatewayFeeInCents:     fee,
		UserCommissionInCents: total - fee,
	}
}

func fallbackValue(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

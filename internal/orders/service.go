package orders

import (
	"context"

	"github.com/dmeister/storefront-backend/internal/tracking"
	"github.com/dmeister/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
	"github.com/dmeister/storefront-backend/pkg/logger"
)

type resolver interface {
	Resolve(ctx context.Context, referenceID string) (*Snapshot, error)
}

type emitter interface {
	EmitPurchase(ctx context.Context, input tracking.PurchaseInput)
}

// Service looks payment references up and reports confirmed sales to the
// fanout. Only succeeded orders are reported; processing and failed lookups
// return the snapshot without side effects.
type Service struct {
	resolver resolver
	emitter  emitter
	logg     *logger.Logger
}

func NewService(resolver resolver, emitter emitter, logg *logger.Logger) *Service {
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "orders"})
	}
	return &Service{resolver: resolver, emitter: emitter, logg: logg}
}

// Lookup resolves a reference into a normalized snapshot. A succeeded
// snapshot triggers a Purchase event keyed by the reference ID, so repeated
// lookups deduplicate at the sink.
func (s *Service) Lookup(ctx context.Context, referenceID string, meta tracking.RequestMeta) (*Snapshot, error) {
	if s == nil || s.resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service not configured")
	}
	if referenceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}

	snapshot, err := s.resolver.Resolve(ctx, referenceID)
	if err != nil {
		return nil, err
	}

	if snapshot.Status == enums.OrderStatusSucceeded && s.emitter != nil {
		s.emitter.EmitPurchase(ctx, s.purchaseInput(snapshot, meta))
	}

	return snapshot, nil
}

func (s *Service) purchaseInput(snapshot *Snapshot, meta tracking.RequestMeta) tracking.PurchaseInput {
	lineItems := make([]tracking.LineItem, 0, len(snapshot.LineItems))
	for _, item := range snapshot.LineItems {
		lineItems = append(lineItems, tracking.LineItem{
			ProductID:       item.ProductID,
			Name:            item.Name,
			UnitAmountMinor: item.UnitAmountMinor,
			Quantity:        item.Quantity,
		})
	}

	return tracking.PurchaseInput{
		ReferenceID:   snapshot.ReferenceID,
		Platform:      enums.PlatformStripe,
		PaymentMethod: enums.PaymentMethodCreditCard,
		Currency:      snapshot.Currency,
		TotalMinor:    snapshot.TotalMinor,
		LineItems:     lineItems,
		Contact: tracking.Contact{
			Name:  snapshot.Contact.Name,
			Email: snapshot.Contact.Email,
			Phone: snapshot.Contact.Phone,
		},
		Meta:           meta,
		TrackingParams: snapshot.TrackingParams,
		CreatedAt:      snapshot.CreatedAt,
	}
}

package hotmartwebhook

import (
	"context"
	"fmt"

	"github.com/dmeister/storefront-backend/internal/tracking"
	"github.com/dmeister/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
	"github.com/dmeister/storefront-backend/pkg/logger"
)

// Outcome tells the controller how a delivery was handled. Every outcome
// acknowledges with 200 so the provider stops retrying.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeDuplicate Outcome = "duplicate"
)

type purchaseEmitter interface {
	EmitPurchase(ctx context.Context, input tracking.PurchaseInput)
}

type replayGuard interface {
	CheckAndMark(ctx context.Context, transactionID string) (bool, error)
}

// Service turns provider webhook deliveries into purchase events.
type Service struct {
	emitter purchaseEmitter
	guard   replayGuard
	logg    *logger.Logger
}

func NewService(emitter purchaseEmitter, guard replayGuard, logg *logger.Logger) *Service {
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "hotmart-webhook"})
	}
	return &Service{emitter: emitter, guard: guard, logg: logg}
}

// Handle parses one delivery and emits a purchase for approved or completed
// sales. Non-purchase events are acknowledged without side effects. The
// guard fails open: a broken replay store must not drop real sales.
func (s *Service) Handle(ctx context.Context, body []byte, meta tracking.RequestMeta) (Outcome, error) {
	if s == nil || s.emitter == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "webhook service not configured")
	}

	event, err := ParseEvent(body)
	if err != nil {
		return "", err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"event":       event.Name,
		"transaction": event.TransactionID,
	})

	if !event.IsPurchase() {
		s.logg.Info(ctx, "ignoring non-purchase webhook event")
		return OutcomeIgnored, nil
	}

	if s.guard != nil && event.TransactionID != "" {
		duplicate, err := s.guard.CheckAndMark(ctx, event.TransactionID)
		if err != nil {
			s.logg.Error(ctx, "replay guard unavailable, processing anyway", err)
		} else if duplicate {
			s.logg.Info(ctx, "dropping replayed webhook delivery")
			return OutcomeDuplicate, nil
		}
	}

	s.emitter.EmitPurchase(ctx, s.purchaseInput(event, meta))
	return OutcomeAccepted, nil
}

func (s *Service) purchaseInput(event *Event, meta tracking.RequestMeta) tracking.PurchaseInput {
	if meta.SourceURL == "" && event.ProductID != "" {
		meta.SourceURL = fmt.Sprintf("https://hotmart.com/checkout/%s", event.ProductID)
	}

	referenceID := event.TransactionID
	if referenceID == "" {
		referenceID = fmt.Sprintf("hotmart-%s", event.ProductID)
	}

	return tracking.PurchaseInput{
		ReferenceID:   referenceID,
		Platform:      enums.PlatformHotmart,
		PaymentMethod: event.PaymentMethod,
		Currency:      event.Currency,
		TotalMinor:    event.ValueMinor,
		LineItems: []tracking.LineItem{{
			ProductID:       event.ProductID,
			Name:            event.ProductName,
			UnitAmountMinor: event.ValueMinor,
			Quantity:        1,
		}},
		Contact: tracking.Contact{
			Name:     event.BuyerName,
			Email:    event.BuyerEmail,
			Phone:    event.BuyerPhone,
			Document: event.BuyerDocument,
		},
		Meta:       meta,
		CreatedAt:  event.OrderDate,
		ApprovedAt: event.ApprovedDate,
	}
}

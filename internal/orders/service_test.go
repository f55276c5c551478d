package orders

import (
	"context"
	"testing"
	"time"

	"github.com/dmeister/storefront-backend/internal/tracking"
	"github.com/dmeister/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

type stubResolver struct {
	snapshot *Snapshot
	err      error
}

func (s *stubResolver) Resolve(context.Context, string) (*Snapshot, error) {
	return s.snapshot, s.err
}

type stubEmitter struct {
	purchases []tracking.PurchaseInput
}

func (s *stubEmitter) EmitPurchase(_ context.Context, input tracking.PurchaseInput) {
	s.purchases = append(s.purchases, input)
}

func succeededSnapshot() *Snapshot {
	return &Snapshot{
		ReferenceID: "cs_test_abc",
		Status:      enums.OrderStatusSucceeded,
		Currency:    "eur",
		TotalMinor:  5500,
		LineItems: []LineItem{
			{ProductID: "prod_1", Name: "Poster", UnitAmountMinor: 2500, Quantity: 1},
			{ProductID: "prod_2", Name: "Sticker", UnitAmountMinor: 1500, Quantity: 2},
		},
		Contact:   Contact{Name: "Ada Lovelace", Email: "ada@example.com"},
		CreatedAt: time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC),
	}
}

func TestLookupEmitsPurchaseWhenSucceeded(t *testing.T) {
	emitter := &stubEmitter{}
	svc := NewService(&stubResolver{snapshot: succeededSnapshot()}, emitter, nil)

	meta := tracking.RequestMeta{ClientIP: "203.0.113.9", SourceURL: "https://shop.test/checkout/success"}
	snapshot, err := svc.Lookup(context.Background(), "cs_test_abc", meta)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if snapshot.Status != enums.OrderStatusSucceeded {
		t.Fatalf("status = %q", snapshot.Status)
	}

	if len(emitter.purchases) != 1 {
		t.Fatalf("purchases emitted = %d, want 1", len(emitter.purchases))
	}
	purchase := emitter.purchases[0]
	if purchase.ReferenceID != "cs_test_abc" {
		t.Fatalf("reference = %q", purchase.ReferenceID)
	}
	if purchase.Platform != enums.PlatformStripe || purchase.PaymentMethod != enums.PaymentMethodCreditCard {
		t.Fatalf("platform/method = %q/%q", purchase.Platform, purchase.PaymentMethod)
	}
	if purchase.Meta.ClientIP != "203.0.113.9" {
		t.Fatalf("meta = %+v", purchase.Meta)
	}
	if len(purchase.LineItems) != 2 || purchase.LineItems[1].Quantity != 2 {
		t.Fatalf("line items = %+v", purchase.LineItems)
	}
}

func TestLookupDoesNotEmitWhileProcessing(t *testing.T) {
	snapshot := succeededSnapshot()
	snapshot.Status = enums.OrderStatusProcessing
	emitter := &stubEmitter{}
	svc := NewService(&stubResolver{snapshot: snapshot}, emitter, nil)

	if _, err := svc.Lookup(context.Background(), "cs_test_abc", tracking.RequestMeta{}); err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if len(emitter.purchases) != 0 {
		t.Fatal("processing orders must not emit purchases")
	}
}

func TestLookupRequiresReference(t *testing.T) {
	svc := NewService(&stubResolver{}, nil, nil)
	_, err := svc.Lookup(context.Background(), "", tracking.RequestMeta{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLookupPropagatesResolverError(t *testing.T) {
	svc := NewService(&stubResolver{err: pkgerrors.New(pkgerrors.CodeNotFound, "no such session")}, nil, nil)
	_, err := svc.Lookup(context.Background(), "cs_missing", tracking.RequestMeta{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

package hotmartwebhook

import (
	"context"
	"errors"
	"testing"

	"github.com/dmeister/storefront-backend/internal/tracking"
	"github.com/dmeister/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

type stubEmitter struct {
	purchases []tracking.PurchaseInput
}

func (s *stubEmitter) EmitPurchase(_ context.Context, input tracking.PurchaseInput) {
	s.purchases = append(s.purchases, input)
}

type stubGuard struct {
	duplicate bool
	err       error
	calls     int
}

func (s *stubGuard) CheckAndMark(context.Context, string) (bool, error) {
	s.calls++
	return s.duplicate, s.err
}

func TestHandleApprovedPurchase(t *testing.T) {
	emitter := &stubEmitter{}
	svc := NewService(emitter, nil, nil)

	outcome, err := svc.Handle(context.Background(), []byte(approvedJSON), tracking.RequestMeta{ClientIP: "203.0.113.7"})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if outcome != OutcomeAccepted {
		t.Fatalf("outcome = %q", outcome)
	}

	if len(emitter.purchases) != 1 {
		t.Fatalf("purchases = %d, want 1", len(emitter.purchases))
	}
	purchase := emitter.purchases[0]
	if purchase.Platform != enums.PlatformHotmart {
		t.Fatalf("platform = %q", purchase.Platform)
	}
	if purchase.ReferenceID != "HP17364251" {
		t.Fatalf("reference = %q", purchase.ReferenceID)
	}
	if purchase.TotalMinor != 14990 || purchase.Currency != "BRL" {
		t.Fatalf("total/currency = %d/%q", purchase.TotalMinor, purchase.Currency)
	}
	if purchase.Meta.SourceURL != "https://hotmart.com/checkout/4210511" {
		t.Fatalf("source url = %q", purchase.Meta.SourceURL)
	}
	if purchase.Meta.ClientIP != "203.0.113.7" {
		t.Fatalf("client ip = %q", purchase.Meta.ClientIP)
	}
	if len(purchase.LineItems) != 1 || purchase.LineItems[0].Name != "Curso Completo" {
		t.Fatalf("line items = %+v", purchase.LineItems)
	}
}

func TestHandleIgnoresOtherEvents(t *testing.T) {
	emitter := &stubEmitter{}
	svc := NewService(emitter, nil, nil)

	outcome, err := svc.Handle(context.Background(), []byte(`{"event":"PURCHASE_REFUNDED"}`), tracking.RequestMeta{})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if outcome != OutcomeIgnored {
		t.Fatalf("outcome = %q", outcome)
	}
	if len(emitter.purchases) != 0 {
		t.Fatal("ignored events must not emit purchases")
	}
}

func TestHandleIgnoresDeliveryWithoutEventName(t *testing.T) {
	emitter := &stubEmitter{}
	svc := NewService(emitter, nil, nil)

	body := "transaction=HP1&email=x%40example.com&price=10"
	outcome, err := svc.Handle(context.Background(), []byte(body), tracking.RequestMeta{})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if outcome != OutcomeIgnored {
		t.Fatalf("outcome = %q, want ignored", outcome)
	}
	if len(emitter.purchases) != 0 {
		t.Fatal("nameless deliveries must not emit purchases")
	}
}

func TestHandleDropsReplayedDelivery(t *testing.T) {
	emitter := &stubEmitter{}
	guard := &stubGuard{duplicate: true}
	svc := NewService(emitter, guard, nil)

	outcome, err := svc.Handle(context.Background(), []byte(approvedJSON), tracking.RequestMeta{})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if outcome != OutcomeDuplicate {
		t.Fatalf("outcome = %q", outcome)
	}
	if guard.calls != 1 || len(emitter.purchases) != 0 {
		t.Fatal("replayed delivery must be dropped before emitting")
	}
}

func TestHandleFailsOpenWhenGuardErrors(t *testing.T) {
	emitter := &stubEmitter{}
	guard := &stubGuard{err: errors.New("redis down")}
	svc := NewService(emitter, guard, nil)

	outcome, err := svc.Handle(context.Background(), []byte(approvedJSON), tracking.RequestMeta{})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if outcome != OutcomeAccepted || len(emitter.purchases) != 1 {
		t.Fatal("guard failure must not drop the sale")
	}
}

func TestHandleRejectsUnparsableBody(t *testing.T) {
	svc := NewService(&stubEmitter{}, nil, nil)
	_, err := svc.Handle(context.Background(), []byte(""), tracking.RequestMeta{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

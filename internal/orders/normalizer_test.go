package orders

import (
	"context"
	"testing"

	"github.com/stripe/stripe-go/v84"

	"github.com/dmeister/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

type stubGateway struct {
	getSessionFn       func(ctx context.Context, id string, expand []string) (*stripe.CheckoutSession, error)
	getPaymentIntentFn func(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

func (s *stubGateway) GetSession(ctx context.Context, id string, expand []string) (*stripe.CheckoutSession, error) {
	return s.getSessionFn(ctx, id, expand)
}

func (s *stubGateway) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	return s.getPaymentIntentFn(ctx, id)
}

func sessionFixture() *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:            "cs_test_abc",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Currency:      stripe.CurrencyEUR,
		AmountTotal:   5500,
		Created:       1770000000,
		Metadata: map[string]string{
			"utm_source": "newsletter",
			"event_id":   "evt-internal",
		},
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Name:  "Ada Lovelace",
			Email: "ada@example.com",
			Phone: "+4917055501",
		},
		LineItems: &stripe.LineItemList{
			Data: []*stripe.LineItem{
				{
					Description: "Poster",
					Quantity:    1,
					AmountTotal: 2500,
					Price: &stripe.Price{
						UnitAmount: 2500,
						Product:    &stripe.Product{ID: "prod_1", Images: []string{"https://cdn.test/poster.png"}},
					},
				},
				{
					Description: "Sticker",
					Quantity:    2,
					AmountTotal: 3000,
					Price: &stripe.Price{
						UnitAmount: 1500,
						Product:    &stripe.Product{ID: "prod_2"},
					},
				},
			},
		},
	}
}

func TestResolveSessionReference(t *testing.T) {
	var gotExpand []string
	gw := &stubGateway{
		getSessionFn: func(_ context.Context, id string, expand []string) (*stripe.CheckoutSession, error) {
			if id != "cs_test_abc" {
				t.Fatalf("session id = %q", id)
			}
			gotExpand = expand
			return sessionFixture(), nil
		},
	}

	snapshot, err := NewNormalizer(gw).Resolve(context.Background(), "cs_test_abc")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(gotExpand) != 1 || gotExpand[0] != "line_items.data.price.product" {
		t.Fatalf("expand = %v", gotExpand)
	}
	if snapshot.Status != enums.OrderStatusSucceeded {
		t.Fatalf("status = %q", snapshot.Status)
	}
	if snapshot.Currency != "eur" || snapshot.TotalMinor != 5500 {
		t.Fatalf("currency/total = %q/%d", snapshot.Currency, snapshot.TotalMinor)
	}

	var sum int64
	for _, item := range snapshot.LineItems {
		sum += item.UnitAmountMinor * item.Quantity
	}
	if sum != snapshot.TotalMinor {
		t.Fatalf("sum(unit*qty) = %d, want %d", sum, snapshot.TotalMinor)
	}

	first := snapshot.LineItems[0]
	if first.ProductID != "prod_1" || first.Name != "Poster" {
		t.Fatalf("first item = %+v", first)
	}
	if first.ImageURL == nil || *first.ImageURL != "https://cdn.test/poster.png" {
		t.Fatalf("first image = %v", first.ImageURL)
	}
	if snapshot.LineItems[1].ImageURL != nil {
		t.Fatal("second item must have nil image")
	}

	if snapshot.Contact.Email != "ada@example.com" {
		t.Fatalf("contact = %+v", snapshot.Contact)
	}
	if snapshot.TrackingParams["utm_source"] != "newsletter" {
		t.Fatal("utm metadata dropped")
	}
	if _, ok := snapshot.TrackingParams["event_id"]; ok {
		t.Fatal("non-tracking metadata must be filtered out")
	}
}

func TestResolveSessionDerivesUnitFromTotal(t *testing.T) {
	session := sessionFixture()
	session.LineItems.Data = []*stripe.LineItem{
		{Quantity: 2, AmountTotal: 3000},
	}
	gw := &stubGateway{
		getSessionFn: func(context.Context, string, []string) (*stripe.CheckoutSession, error) {
			return session, nil
		},
	}

	snapshot, err := NewNormalizer(gw).Resolve(context.Background(), "cs_test_abc")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	item := snapshot.LineItems[0]
	if item.UnitAmountMinor != 1500 {
		t.Fatalf("derived unit = %d, want 1500", item.UnitAmountMinor)
	}
	if item.Name != "Product" {
		t.Fatalf("fallback name = %q", item.Name)
	}
}

func TestResolveUnpaidSessionIsUnknown(t *testing.T) {
	session := sessionFixture()
	session.PaymentStatus = stripe.CheckoutSessionPaymentStatusUnpaid
	gw := &stubGateway{
		getSessionFn: func(context.Context, string, []string) (*stripe.CheckoutSession, error) {
			return session, nil
		},
	}

	snapshot, err := NewNormalizer(gw).Resolve(context.Background(), "cs_test_abc")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if snapshot.Status != enums.OrderStatusUnknown {
		t.Fatalf("status = %q, want unknown", snapshot.Status)
	}
}

func TestResolvePaymentIntentReference(t *testing.T) {
	gw := &stubGateway{
		getPaymentIntentFn: func(_ context.Context, id string) (*stripe.PaymentIntent, error) {
			if id != "pi_test_1" {
				t.Fatalf("intent id = %q", id)
			}
			return &stripe.PaymentIntent{
				ID:           "pi_test_1",
				Status:       stripe.PaymentIntentStatusProcessing,
				Amount:       4200,
				Currency:     stripe.CurrencyEUR,
				Created:      1770000000,
				ReceiptEmail: "ada@example.com",
			}, nil
		},
	}

	snapshot, err := NewNormalizer(gw).Resolve(context.Background(), "pi_test_1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if snapshot.Status != enums.OrderStatusProcessing {
		t.Fatalf("status = %q", snapshot.Status)
	}
	if snapshot.TotalMinor != 4200 || len(snapshot.LineItems) != 0 {
		t.Fatalf("snapshot = %+v", snapshot)
	}
	if snapshot.Contact.Email != "ada@example.com" {
		t.Fatalf("contact = %+v", snapshot.Contact)
	}
}

func TestResolveKeepsEmptyTrackingValues(t *testing.T) {
	session := sessionFixture()
	session.Metadata = map[string]string{
		"event_id":   "evt-internal",
		"utm_source": "newsletter",
		"utm_medium": "",
		"sck":        "",
	}
	gw := &stubGateway{
		getSessionFn: func(context.Context, string, []string) (*stripe.CheckoutSession, error) {
			return session, nil
		},
	}

	snapshot, err := NewNormalizer(gw).Resolve(context.Background(), "cs_test_abc")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	for _, key := range []string{"utm_medium", "sck"} {
		if value, ok := snapshot.TrackingParams[key]; !ok || value != "" {
			t.Fatalf("tracking key %q = (%q, %v), want empty value kept", key, value, ok)
		}
	}
}

func TestResolveNonSessionReferenceUsesPaymentIntent(t *testing.T) {
	var gotID string
	gw := &stubGateway{
		getPaymentIntentFn: func(_ context.Context, id string) (*stripe.PaymentIntent, error) {
			gotID = id
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment reference not found")
		},
	}

	_, err := NewNormalizer(gw).Resolve(context.Background(), "ch_test_1")
	if gotID != "ch_test_1" {
		t.Fatalf("intent id = %q, want lookup attempted", gotID)
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

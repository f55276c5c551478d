package stripe

import (
	"context"
	"errors"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

// Gateway exposes the session/payment lifecycle operations the checkout flow
// needs, with provider errors mapped onto the shared error taxonomy.
type Gateway struct{}

// NewGateway wraps the initialized Stripe client so callers can be stubbed in tests.
func NewGateway(api *Client) *Gateway {
	if api == nil {
		return nil
	}
	return &Gateway{}
}

// CreateSession opens a hosted/embedded checkout session.
func (g *Gateway) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	sess, err := session.New(params)
	if err != nil {
		return nil, mapError(err, "create checkout session")
	}
	return sess, nil
}

// GetSession retrieves a checkout session, optionally expanding nested data.
func (g *Gateway) GetSession(ctx context.Context, id string, expand []string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	for _, field := range expand {
		params.AddExpand(field)
	}
	sess, err := session.Get(id, params)
	if err != nil {
		return nil, mapError(err, "retrieve checkout session")
	}
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}
	return sess, nil
}

// GetPaymentIntent retrieves a single payment object; it carries no itemization.
func (g *Gateway) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	intent, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, mapError(err, "retrieve payment intent")
	}
	if intent == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return intent, nil
}

func mapError(err error, action string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, action)
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

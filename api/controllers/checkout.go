package controllers

import (
	"context"
	"net/http"

	"github.com/dmeister/storefront-backend/api/responses"
	"github.com/dmeister/storefront-backend/api/validators"
	"github.com/dmeister/storefront-backend/internal/checkout"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
	"github.com/dmeister/storefront-backend/pkg/logger"
)

type checkoutService interface {
	CreateSession(ctx context.Context, input checkout.Input) (*checkout.Session, error)
}

// CheckoutIntent opens an embedded payment session for the requested items.
// The response carries the client secret the storefront mounts and the event
// ID it reuses for browser-side tracking.
func CheckoutIntent(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "checkout service not configured"))
			return
		}

		var input checkout.Input
		if err := validators.DecodeJSON(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input.Meta = requestMeta(r)

		session, err := svc.CreateSession(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

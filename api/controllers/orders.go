package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmeister/storefront-backend/api/responses"
	"github.com/dmeister/storefront-backend/internal/orders"
	"github.com/dmeister/storefront-backend/internal/tracking"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
	"github.com/dmeister/storefront-backend/pkg/logger"
)

type ordersService interface {
	Lookup(ctx context.Context, referenceID string, meta tracking.RequestMeta) (*orders.Snapshot, error)
}

// Order resolves a payment reference into a normalized order snapshot. The
// storefront polls this after checkout returns, so a succeeded lookup also
// confirms the sale to the tracking sinks.
func Order(svc ordersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "orders service not configured"))
			return
		}

		snapshot, err := svc.Lookup(ctx, chi.URLParam(r, "referenceID"), requestMeta(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshot)
	}
}

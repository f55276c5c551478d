package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmeister/storefront-backend/api/responses"
	"github.com/dmeister/storefront-backend/internal/catalog"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
	"github.com/dmeister/storefront-backend/pkg/logger"
)

type catalogService interface {
	Get(ctx context.Context, sku string) (*catalog.Item, error)
	List(ctx context.Context) ([]catalog.Item, error)
}

// Products lists the catalog.
func Products(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "catalog service not configured"))
			return
		}

		items, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"products": items})
	}
}

// Product returns a single catalog item by SKU.
func Product(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "catalog service not configured"))
			return
		}

		item, err := svc.Get(ctx, chi.URLParam(r, "sku"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

package middleware

import (
	"fmt"
	"net/http"

	"github.com/dmeister/storefront-backend/api/responses"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
	"github.com/dmeister/storefront-backend/pkg/logger"
)

// Recoverer converts panics into 500 responses instead of dropping the
// connection.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := pkgerrors.Wrap(pkgerrors.CodeInternal,
						fmt.Errorf("panic: %v", rec), "request handler panicked")
					responses.WriteError(r.Context(), logg, w, err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

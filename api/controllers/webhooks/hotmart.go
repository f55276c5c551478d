package webhooks

import (
	"context"
	"crypto/subtle"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/dmeister/storefront-backend/api/responses"
	"github.com/dmeister/storefront-backend/internal/tracking"
	hotmartwebhook "github.com/dmeister/storefront-backend/internal/webhooks/hotmart"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
	"github.com/dmeister/storefront-backend/pkg/logger"
)

const (
	hottokHeader = "X-Hotmart-Hottok"
	maxBodyBytes = 1 << 20
)

type hotmartService interface {
	Handle(ctx context.Context, body []byte, meta tracking.RequestMeta) (hotmartwebhook.Outcome, error)
}

// Hotmart receives provider webhook deliveries. When a hottok is configured
// the header must match; otherwise deliveries are accepted unauthenticated,
// matching integrations that predate the token. Parse failures are the only
// rejections, every handled outcome acknowledges with 200 so the provider
// stops retrying.
func Hotmart(svc hotmartService, hottok string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "webhook service not configured"))
			return
		}

		if hottok != "" {
			provided := r.Header.Get(hottokHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(hottok)) != 1 {
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook token"))
				return
			}
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		meta := tracking.RequestMeta{
			ClientIP:  clientIP(r),
			UserAgent: r.UserAgent(),
		}

		outcome, err := svc.Handle(ctx, body, meta)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"result": string(outcome)})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-Ip")); realIP != "" {
		return realIP
	}
	if cfIP := strings.TrimSpace(r.Header.Get("CF-Connecting-Ip")); cfIP != "" {
		return cfIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package tracking

import (
	"context"
	"math"
	"strings"
)

type rateSource interface {
	LastQuote(ctx context.Context, from, to string) (float64, error)
}

// billingRate returns the multiplier that converts amounts in from into the
// attribution billing currency. Quote failures fall back to the configured
// static rate rather than dropping the event.
func (s *Service) billingRate(ctx context.Context, from string) float64 {
	if strings.EqualFold(from, s.billingCurrency) {
		return 1
	}

	if s.rates != nil {
		rate, err := s.rates.LastQuote(ctx, from, s.billingCurrency)
		if err == nil && rate > 0 {
			return rate
		}
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"from": from,
			"to":   s.billingCurrency,
			"rate": s.fallbackRate,
		}), "quote lookup failed, using fallback rate")
	}

	return s.fallbackRate
}

func convertMinor(minor int64, rate float64) int64 {
	return int64(math.Round(float64(minor) * rate))
}

package enums

import "strings"

// PaymentMethod is the attribution sink's payment classification.
type PaymentMethod string

const (
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodBoleto     PaymentMethod = "boleto"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
)

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// ClassifyPaymentType buckets a provider's raw payment-type string by
// substring match; anything unrecognized counts as a card payment.
func ClassifyPaymentType(raw string) PaymentMethod {
	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(upper, "PIX"):
		return PaymentMethodPix
	case strings.Contains(upper, "BILLET"):
		return PaymentMethodBoleto
	default:
		return PaymentMethodCreditCard
	}
}

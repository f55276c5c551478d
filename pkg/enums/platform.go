package enums

// Platform names the sales channel an order originated from.
type Platform string

const (
	PlatformStripe  Platform = "Stripe"
	PlatformHotmart Platform = "Hotmart"
)

// String implements fmt.Stringer.
func (p Platform) String() string {
	return string(p)
}

package enums

// EventName identifies the business moment reported to the conversions sink.
type EventName string

const (
	EventInitiateCheckout EventName = "InitiateCheckout"
	EventPurchase         EventName = "Purchase"
)

// String implements fmt.Stringer.
func (e EventName) String() string {
	return string(e)
}

package hotmartwebhook

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmeister/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

const (
	EventPurchaseApproved = "PURCHASE_APPROVED"
	EventPurchaseComplete = "PURCHASE_COMPLETE"

	defaultCurrency = "BRL"
)

// Event is one parsed webhook notification. Monetary values are minor units
// of Currency.
type Event struct {
	Name          string
	TransactionID string
	ValueMinor    int64
	Currency      string
	PaymentMethod enums.PaymentMethod
	BuyerName     string
	BuyerEmail    string
	BuyerPhone    string
	BuyerDocument string
	ProductID     string
	ProductName   string
	OrderDate     time.Time
	ApprovedDate  time.Time
}

// IsPurchase reports whether the event is one of the two completed-sale
// notifications this adapter processes.
func (e *Event) IsPurchase() bool {
	return e.Name == EventPurchaseApproved || e.Name == EventPurchaseComplete
}

// payload is the decoded request body. The provider ships JSON for current
// integrations and form encoding for legacy ones, and field placement drifts
// between webhook versions, so every read walks a fallback chain over both
// the nested document and the flattened form keys.
type payload struct {
	doc  map[string]any
	flat url.Values
}

// ParseEvent decodes a webhook body, trying JSON first and form encoding
// second.
func ParseEvent(body []byte) (*Event, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty webhook body")
	}

	p := &payload{}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err == nil {
		p.doc = doc
	} else {
		values, formErr := url.ParseQuery(string(body))
		if formErr != nil || len(values) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook body is neither json nor form encoded")
		}
		p.flat = values
	}

	event := &Event{
		Name:          p.text("event"),
		TransactionID: p.firstText(
			[]string{"data", "purchase", "transaction"},
			[]string{"purchase", "transaction"},
			[]string{"transaction"},
		),
		Currency: p.firstText(
			[]string{"data", "purchase", "price", "currency_code"},
			[]string{"data", "purchase", "price", "currency_value"},
			[]string{"purchase", "price", "currency_code"},
			[]string{"purchase", "price", "currency_value"},
			[]string{"currency"},
		),
		BuyerName: p.firstText(
			[]string{"data", "buyer", "name"},
			[]string{"buyer", "name"},
			[]string{"name"},
		),
		BuyerEmail: p.firstText(
			[]string{"data", "buyer", "email"},
			[]string{"buyer", "email"},
			[]string{"email"},
		),
		BuyerPhone: p.firstText(
			[]string{"data", "buyer", "checkout_phone"},
			[]string{"buyer", "checkout_phone"},
			[]string{"phone"},
			[]string{"phone_number"},
		),
		BuyerDocument: p.firstText(
			[]string{"data", "buyer", "document"},
			[]string{"buyer", "document"},
		),
		ProductID: p.firstText(
			[]string{"data", "product", "id"},
			[]string{"product", "id"},
			[]string{"product_id"},
			[]string{"prod"},
		),
		ProductName: p.firstText(
			[]string{"data", "product", "name"},
			[]string{"product", "name"},
			[]string{"prod_name"},
		),
	}

	// Legacy form deliveries carry no event literal at all. The name stays
	// empty and the caller acknowledges the delivery as ignored; erroring
	// here would make the provider retry.
	if event.Currency == "" {
		event.Currency = defaultCurrency
	}

	value := p.firstNumber(
		[]string{"data", "purchase", "price", "value"},
		[]string{"data", "purchase", "full_price", "value"},
		[]string{"purchase", "price", "value"},
		[]string{"price"},
	)
	event.ValueMinor = int64(math.Round(value * 100))

	event.PaymentMethod = enums.ClassifyPaymentType(p.firstText(
		[]string{"data", "purchase", "payment", "type"},
		[]string{"purchase", "payment", "type"},
		[]string{"payment_type"},
	))

	event.OrderDate = p.firstTime(
		[]string{"data", "purchase", "order_date"},
		[]string{"purchase", "order_date"},
	)
	event.ApprovedDate = p.firstTime(
		[]string{"data", "purchase", "approved_date"},
		[]string{"purchase", "approved_date"},
	)

	return event, nil
}

func (p *payload) lookup(path []string) (any, bool) {
	if p.doc != nil {
		node := any(p.doc)
		for _, segment := range path {
			obj, ok := node.(map[string]any)
			if !ok {
				return nil, false
			}
			node, ok = obj[segment]
			if !ok {
				return nil, false
			}
		}
		return node, true
	}

	key := strings.Join(path, ".")
	if values, ok := p.flat[key]; ok && len(values) > 0 {
		return values[0], true
	}
	return nil, false
}

func (p *payload) text(keys ...string) string {
	value, ok := p.lookup(keys)
	if !ok {
		return ""
	}
	return asText(value)
}

func (p *payload) firstText(paths ...[]string) string {
	for _, path := range paths {
		if value, ok := p.lookup(path); ok {
			if text := asText(value); text != "" {
				return text
			}
		}
	}
	return ""
}

func (p *payload) firstNumber(paths ...[]string) float64 {
	for _, path := range paths {
		value, ok := p.lookup(path)
		if !ok {
			continue
		}
		if number, ok := asNumber(value); ok {
			return number
		}
	}
	return 0
}

func (p *payload) firstTime(paths ...[]string) time.Time {
	for _, path := range paths {
		value, ok := p.lookup(path)
		if !ok {
			continue
		}
		if millis, ok := asNumber(value); ok && millis > 0 {
			return time.UnixMilli(int64(millis)).UTC()
		}
	}
	return time.Time{}
}

func asText(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// Product IDs arrive as JSON numbers.
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		number, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return number, true
	default:
		return 0, false
	}
}

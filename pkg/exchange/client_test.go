package exchange

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (fn roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return fn(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestLastQuote(t *testing.T) {
	var gotURL string
	client := NewClient(
		WithBaseURL("https://quotes.test"),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			gotURL = req.URL.String()
			return jsonResponse(http.StatusOK, `{"EURBRL":{"bid":"6.1530"}}`), nil
		})}),
	)

	rate, err := client.LastQuote(context.Background(), "eur", "brl")
	if err != nil {
		t.Fatalf("LastQuote returned error: %v", err)
	}
	if rate != 6.1530 {
		t.Fatalf("rate = %v, want 6.1530", rate)
	}
	if gotURL != "https://quotes.test/json/last/EUR-BRL" {
		t.Fatalf("request URL = %q", gotURL)
	}
}

func TestLastQuoteMissingPair(t *testing.T) {
	client := NewClient(
		WithBaseURL("https://quotes.test"),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"USDBRL":{"bid":"5.20"}}`), nil
		})}),
	)

	_, err := client.LastQuote(context.Background(), "EUR", "BRL")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestLastQuoteMalformedBid(t *testing.T) {
	client := NewClient(
		WithBaseURL("https://quotes.test"),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"EURBRL":{"bid":"not-a-number"}}`), nil
		})}),
	)

	_, err := client.LastQuote(context.Background(), "EUR", "BRL")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestLastQuoteUpstreamFailure(t *testing.T) {
	client := NewClient(
		WithBaseURL("https://quotes.test"),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusBadGateway, `oops`), nil
		})}),
	)

	_, err := client.LastQuote(context.Background(), "EUR", "BRL")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestLastQuoteEmptyPair(t *testing.T) {
	client := NewClient()
	_, err := client.LastQuote(context.Background(), "", "BRL")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
